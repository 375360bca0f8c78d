package sticker

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/session"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/router"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/validation"
)

// FormFieldImages and FormFieldPhone name the multipart fields of a batch.
const (
	FormFieldImages = "images"
	FormFieldPhone  = "phoneNumber"
)

type Controller struct {
	pipeline    *Pipeline
	maxFileSize int64
}

func NewController(pipeline *Pipeline, maxFileSize int64) *Controller {
	return &Controller{
		pipeline:    pipeline,
		maxFileSize: maxFileSize,
	}
}

// SendStickers
// @Summary     Send Images as Stickers
// @Description Convert uploaded images to 512x512 WebP stickers and send them to a Colombian mobile number
// @Tags        Stickers
// @Accept      multipart/form-data
// @Produce     json
// @Param       images      formData file   true "Images to convert"
// @Param       phoneNumber formData string true "10-digit mobile number starting with 3"
// @Success     200
// @Failure     400
// @Failure     500
// @Failure     503
// @Router      /api/send-stickers [post]
func (ctl *Controller) SendStickers(c *fiber.Ctx) error {
	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		headers = form.File[FormFieldImages]
	}

	images := make([][]byte, 0, len(headers))
	for _, header := range headers {
		if ctl.maxFileSize > 0 && header.Size > ctl.maxFileSize {
			return router.ResponseBadRequest(c, fmt.Sprintf("El archivo %s supera el tamaño máximo permitido", header.Filename))
		}
		data, err := readFileHeader(header)
		if err != nil {
			log.Print(c).WithError(err).Warn("Failed to read uploaded image")
			return router.ResponseBadRequest(c, "No se pudo leer la imagen "+header.Filename)
		}
		images = append(images, data)
	}

	result, err := ctl.pipeline.SendStickers(c.UserContext(), images, c.FormValue(FormFieldPhone))
	if err != nil {
		return respondPipelineError(c, err)
	}

	switch result.Outcome() {
	case OutcomeSuccess:
		return router.ResponseSuccess(c, result.Message())
	case OutcomePartial:
		return router.ResponsePartialSuccess(c, result.Message(), result.Errors)
	default:
		return router.ResponseInternalError(c, result.Message(), result.Errors...)
	}
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// respondPipelineError maps a batch-level failure to its status code and
// user-facing message.
func respondPipelineError(c *fiber.Ctx, err error) error {
	if errors.Is(err, session.ErrSessionNotReady) {
		return router.ResponseServiceUnavailable(c, session.ErrSessionNotReady.Error())
	}
	for _, known := range []struct {
		err  error
		code int
	}{
		{ErrNoImagesProvided, http.StatusBadRequest},
		{validation.ErrNoPhoneNumberProvided, http.StatusBadRequest},
		{validation.ErrInvalidPhoneNumber, http.StatusBadRequest},
		{ErrNotRegistered, http.StatusBadRequest},
		{ErrConversionFailed, http.StatusInternalServerError},
		{ErrTempFileFailed, http.StatusInternalServerError},
		{ErrLookupFailed, http.StatusInternalServerError},
	} {
		if errors.Is(err, known.err) {
			return router.ResponseError(c, known.code, known.err.Error())
		}
	}
	return router.ResponseInternalError(c, err.Error())
}
