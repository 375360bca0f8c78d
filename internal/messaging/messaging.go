package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/session"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/router"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/validation"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

const DefaultText = "Mensaje de prueba desde backend"

var ErrNotRegistered = errors.New("El número no está registrado en WhatsApp.")

type Session interface {
	Ready() bool
	IsRegistered(ctx context.Context, jid string) (bool, error)
	SendText(ctx context.Context, jid string, text string) (string, error)
}

type RequestSendText struct {
	PhoneNumber string `json:"phoneNumber"`
	Text        string `json:"text"`
}

type ResponseSendText struct {
	ID string `json:"id"`
}

// Service sends plain text messages used to diagnose the session end to end.
type Service struct {
	session Session
}

func NewService(sess Session) *Service {
	return &Service{session: sess}
}

// SendText validates phone, confirms it is registered and sends text, or
// DefaultText when text is blank. It returns the WhatsApp message id.
func (s *Service) SendText(ctx context.Context, phone string, text string) (string, error) {
	number, err := validation.NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	if !s.session.Ready() {
		return "", session.ErrSessionNotReady
	}

	jid := pkgWhatsApp.ComposeUserJID(number)
	registered, err := s.session.IsRegistered(ctx, jid)
	if err != nil {
		return "", err
	}
	if !registered {
		return "", ErrNotRegistered
	}

	if strings.TrimSpace(text) == "" {
		text = DefaultText
	}
	return s.session.SendText(ctx, jid, text)
}

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// SendText
// @Summary     Send Diagnostic Text
// @Description Send a plain text message to a Colombian mobile number
// @Tags        Messaging
// @Accept      json
// @Produce     json
// @Param       request body RequestSendText true "Destination and text"
// @Success     200
// @Failure     400
// @Failure     500
// @Failure     503
// @Router      /api/test-text [post]
func (ctl *Controller) SendText(c *fiber.Ctx) error {
	var reqSendText RequestSendText
	if err := c.BodyParser(&reqSendText); err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	logger := log.Print(c).WithField("phone", log.MaskPhone(validation.DigitsOnly(reqSendText.PhoneNumber)))

	msgID, err := ctl.service.SendText(c.UserContext(), reqSendText.PhoneNumber, reqSendText.Text)
	switch {
	case err == nil:
	case errors.Is(err, validation.ErrNoPhoneNumberProvided), errors.Is(err, validation.ErrInvalidPhoneNumber):
		return router.ResponseBadRequest(c, validation.ErrInvalidPhoneNumber.Error())
	case errors.Is(err, session.ErrSessionNotReady):
		return router.ResponseServiceUnavailable(c, session.MessageNotReady)
	case errors.Is(err, ErrNotRegistered):
		return router.ResponseBadRequest(c, err.Error())
	default:
		logger.WithError(err).Error("Failed to send text message")
		return router.ResponseInternalError(c, err.Error())
	}

	logger.WithField("message_id", msgID).Info("Text message sent")
	return router.ResponseSuccessWithResult(c, "Mensaje de texto enviado", ResponseSendText{ID: msgID})
}
