package status

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/session"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

type Session interface {
	Status() session.Status
	Contacts(ctx context.Context) ([]session.Contact, error)
}

type ResponseContacts struct {
	Contacts []session.Contact `json:"contacts"`
}

type Controller struct {
	session Session
}

func NewController(sess Session) *Controller {
	return &Controller{session: sess}
}

// WhatsAppStatus
// @Summary     Show Session Status
// @Description Get the pending login QR code and whether the session is ready
// @Tags        Session
// @Produce     json
// @Success     200
// @Router      /api/whatsapp-status [get]
func (ctl *Controller) WhatsAppStatus(c *fiber.Ctx) error {
	return router.ResponseData(c, ctl.session.Status())
}

// WhatsAppQR
// @Summary     Show Login QR Code
// @Description Render the pending login code as a PNG image
// @Tags        Session
// @Produce     png
// @Success     200
// @Failure     404
// @Router      /api/whatsapp-qr [get]
func (ctl *Controller) WhatsAppQR(c *fiber.Ctx) error {
	status := ctl.session.Status()
	if status.QR == nil {
		return router.ResponseNotFound(c, "No hay código QR pendiente")
	}

	png, err := pkgWhatsApp.EncodeQRPNG(*status.QR)
	if err != nil {
		return router.ResponseInternalError(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(png)
}

// Contacts
// @Summary     List Contacts
// @Description List one-to-one chats that are not archived
// @Tags        Session
// @Produce     json
// @Success     200
// @Failure     500
// @Failure     503
// @Router      /api/contacts [get]
func (ctl *Controller) Contacts(c *fiber.Ctx) error {
	contacts, err := ctl.session.Contacts(c.UserContext())
	if err != nil {
		if errors.Is(err, session.ErrSessionNotReady) {
			return router.ResponseServiceUnavailable(c, session.MessageNotReady)
		}
		log.Print(c).WithError(err).Error("Failed to list contacts")
		return router.ResponseInternalError(c, err.Error())
	}
	return router.ResponseData(c, ResponseContacts{Contacts: contacts})
}
