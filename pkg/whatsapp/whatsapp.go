package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/sticker"
)

var (
	ErrNotLoggedIn  = errors.New("WhatsApp Client Store ID is Empty, Please Scan QR Code Again")
	ErrClientClosed = errors.New("WhatsApp Client has been destroyed")
)

const logoutRequestTimeout = 30 * time.Second

// Config selects the credential store and connection options.
type Config struct {
	SessionDir    string
	DatastoreType string
	DatastoreURI  string
	ProxyURL      string
	PrintQR       bool
}

// Handlers receive the session lifecycle callbacks. Nil handlers are skipped.
type Handlers struct {
	OnCode         func(code string)
	OnReady        func()
	OnDisconnected func(reason string)
	OnAuthFailure  func(reason string)
	OnCodeExpired  func()
}

// Client is one WhatsApp multi-device session backed by its own datastore.
type Client struct {
	wa       *whatsmeow.Client
	store    *Datastore
	cfg      Config
	handlers Handlers

	lifetime context.Context
	cancel   context.CancelFunc
	closed   atomic.Bool
	// pairing holds the id of the QR window that owns the unpaired
	// connection, zero when none does.
	pairing atomic.Uint64
	qrSeq   atomic.Uint64
}

// NewClient opens the datastore, loads (or creates) the first device and
// wires whatsmeow events to handlers. It does not connect.
func NewClient(ctx context.Context, cfg Config, handlers Handlers) (*Client, error) {
	ds, err := OpenDatastore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	device, err := ds.Container.GetFirstDevice(ctx)
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("load device: %w", err)
	}

	store.DeviceProps.Os = proto.String(runtime.GOOS)
	store.DeviceProps.PlatformType = waCompanionReg.DeviceProps_CHROME.Enum()
	store.DeviceProps.RequireFullSync = proto.Bool(false)

	wa := whatsmeow.NewClient(device, log.WhatsApp("Client"))
	if len(cfg.ProxyURL) > 0 {
		if err := wa.SetProxyAddress(cfg.ProxyURL); err != nil {
			log.Session("init").WithError(err).Warn("Ignoring invalid WhatsApp proxy address")
		}
	}
	// Reconnection is owned by the session manager so that attempts stay bounded.
	wa.EnableAutoReconnect = false
	wa.AutoTrustIdentity = true

	lifetime, cancel := context.WithCancel(context.Background())
	c := &Client{
		wa:       wa,
		store:    ds,
		cfg:      cfg,
		handlers: handlers,
		lifetime: lifetime,
		cancel:   cancel,
	}
	wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// Initialize connects the session. Unpaired devices start a QR login and
// report each code through OnCode.
func (c *Client) Initialize(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.wa.Disconnect()

	if c.wa.Store.ID == nil {
		qrChan, err := c.wa.GetQRChannel(c.lifetime)
		if err != nil {
			return err
		}
		window := c.qrSeq.Add(1)
		c.pairing.Store(window)
		if err := c.wa.Connect(); err != nil {
			c.pairing.CompareAndSwap(window, 0)
			return err
		}
		go c.watchQR(window, qrChan)
		return nil
	}

	return c.wa.Connect()
}

// Logout unlinks the device. When the server call fails the local
// credentials are still deleted.
func (c *Client) Logout(ctx context.Context) error {
	if c.wa.Store.ID == nil {
		return ErrNotLoggedIn
	}

	logoutCtx, cancel := context.WithTimeout(ctx, logoutRequestTimeout)
	defer cancel()

	err := c.wa.Logout(logoutCtx)
	if err != nil {
		c.wa.Disconnect()
		if delErr := c.wa.Store.Delete(logoutCtx); delErr != nil {
			return fmt.Errorf("%w (delete local device: %v)", err, delErr)
		}
		return err
	}
	return nil
}

// Destroy disconnects, stops event delivery and closes the datastore.
func (c *Client) Destroy() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	c.wa.Disconnect()
	return c.store.Close()
}

// IsConnected reports the raw socket state, used by health routines.
func (c *Client) IsConnected() bool {
	return c.wa.IsConnected() && c.wa.IsLoggedIn()
}

// IsRegistered reports whether jid belongs to an active WhatsApp account.
func (c *Client) IsRegistered(ctx context.Context, jid string) (bool, error) {
	target, err := types.ParseJID(jid)
	if err != nil {
		return false, err
	}
	infos, err := c.wa.IsOnWhatsApp(ctx, []string{"+" + target.User})
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if info.IsIn {
			return true, nil
		}
	}
	return false, nil
}

// SendSticker uploads a WebP sticker and sends it to jid.
func (c *Client) SendSticker(ctx context.Context, jid string, webp []byte) (string, error) {
	target, err := types.ParseJID(jid)
	if err != nil {
		return "", err
	}

	uploaded, err := c.wa.Upload(ctx, webp, whatsmeow.MediaImage)
	if err != nil {
		return "", fmt.Errorf("upload sticker: %w", err)
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: c.wa.GenerateMessageID()}
	msgContent := &waE2E.Message{
		StickerMessage: &waE2E.StickerMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(sticker.MimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			Width:         proto.Uint32(sticker.Size),
			Height:        proto.Uint32(sticker.Size),
		},
	}
	if _, err := c.wa.SendMessage(ctx, target, msgContent, msgExtra); err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

// SendText sends a plain conversation message to jid.
func (c *Client) SendText(ctx context.Context, jid string, text string) (string, error) {
	target, err := types.ParseJID(jid)
	if err != nil {
		return "", err
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: c.wa.GenerateMessageID()}
	msgContent := &waE2E.Message{
		Conversation: proto.String(text),
	}
	if _, err := c.wa.SendMessage(ctx, target, msgContent, msgExtra); err != nil {
		return "", err
	}
	return msgExtra.ID, nil
}

// Chats lists known conversations with their archive flag, sorted by id.
func (c *Client) Chats(ctx context.Context) ([]Chat, error) {
	contacts, err := c.wa.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, err
	}

	chats := make([]Chat, 0, len(contacts))
	for jid, info := range contacts {
		settings, err := c.wa.Store.ChatSettings.GetChatSettings(ctx, jid)
		if err != nil {
			log.Session("chats").WithError(err).Debug("Failed to load chat settings for " + log.MaskPhone(jid.User))
		}
		chats = append(chats, chatFromContact(jid, info, settings))
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].ID < chats[j].ID })
	return chats, nil
}

func (c *Client) handleEvent(evt interface{}) {
	if c.closed.Load() {
		return
	}

	switch e := evt.(type) {
	case *events.Connected:
		log.Session("event").Info("Client connected")
		if c.handlers.OnReady != nil {
			c.handlers.OnReady()
		}
	case *events.PairSuccess:
		log.Session("event").Info("Device paired as " + log.MaskPhone(e.ID.User))
	case *events.Disconnected:
		if c.pairing.Load() != 0 {
			// reported by watchQR as an expired code
			log.Session("event").Debug("Client disconnected during QR pairing")
			return
		}
		log.Session("event").Warn("Client disconnected")
		c.disconnected("connection lost")
	case *events.StreamReplaced:
		log.Session("event").Warn("Stream replaced by another connection")
		c.disconnected("stream replaced")
	case *events.LoggedOut:
		reason := fmt.Sprintf("%v", e.Reason)
		// whatsmeow deletes the device store itself when it reports a logout.
		log.Session("event").Error("Client logged out: " + reason)
		if c.handlers.OnAuthFailure != nil {
			c.handlers.OnAuthFailure(reason)
		}
	case *events.ConnectFailure:
		log.Session("event").Error(fmt.Sprintf("Client connection failure: reason=%s, message=%s", e.Reason, e.Message))
	case *events.TemporaryBan:
		log.Session("event").Error(fmt.Sprintf("Client temporarily banned: reason=%s, expires=%s", e.Code, e.Expire))
	case *events.KeepAliveTimeout:
		log.Session("event").Warn(fmt.Sprintf("Client keepalive timeout: errors=%d, lastSuccess=%s", e.ErrorCount, e.LastSuccess.Format(time.RFC3339)))
	case *events.Message:
		log.Session("event").WithField("from_me", e.Info.IsFromMe).Debug("Message in chat " + log.MaskPhone(e.Info.Chat.User))
	}
}

func (c *Client) disconnected(reason string) {
	if c.handlers.OnDisconnected != nil {
		c.handlers.OnDisconnected(reason)
	}
}
