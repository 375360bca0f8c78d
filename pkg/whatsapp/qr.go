package whatsapp

import (
	"os"

	"github.com/mdp/qrterminal"
	qrCode "github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
)

// EncodeQRPNG renders a login code as a 256px PNG.
func EncodeQRPNG(code string) ([]byte, error) {
	return qrCode.Encode(code, qrCode.Medium, 256)
}

func (c *Client) watchQR(window uint64, qrChan <-chan whatsmeow.QRChannelItem) {
	defer c.pairing.CompareAndSwap(window, 0)
	for evt := range qrChan {
		if c.closed.Load() {
			return
		}
		switch evt.Event {
		case "code":
			log.Session("qr").Info("QR code received, scan it with WhatsApp")
			if c.cfg.PrintQR {
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			}
			if c.handlers.OnCode != nil {
				c.handlers.OnCode(evt.Code)
			}
		case whatsmeow.QRChannelSuccess.Event:
			log.Session("qr").Info("QR code scanned successfully")
		case whatsmeow.QRChannelTimeout.Event:
			log.Session("qr").Warn("QR code batch expired without being scanned")
			if c.handlers.OnCodeExpired != nil {
				c.handlers.OnCodeExpired()
			}
		case whatsmeow.QRChannelClientOutdated.Event:
			log.Session("qr").Error("WhatsApp client version is outdated for QR pairing")
			c.disconnected("client outdated")
		case "error":
			if evt.Error != nil {
				log.Session("qr").WithError(evt.Error).Error("QR login failed")
			}
			c.disconnected("qr error")
		default:
			log.Session("qr").Warn("Unexpected QR channel event: " + evt.Event)
		}
	}
}
