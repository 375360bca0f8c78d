package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
)

// SuccessResponse is the body of every successful mutation.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  []string    `json:"errores,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errores,omitempty"`
}

func logSuccess(c *fiber.Ctx, code int, message string) {
	statusMessage := http.StatusText(code)

	if statusMessage == message || c.OriginalURL() == BaseURL {
		log.Print(c).Info(fmt.Sprintf("%d %v", code, statusMessage))
	} else {
		log.Print(c).Info(fmt.Sprintf("%d %v", code, message))
	}
}

func logError(c *fiber.Ctx, code int, message string) {
	statusMessage := http.StatusText(code)

	if statusMessage == message {
		log.Print(c).Error(fmt.Sprintf("%d %v", code, statusMessage))
	} else {
		log.Print(c).Error(fmt.Sprintf("%d %v", code, message))
	}
}

func ResponseSuccess(c *fiber.Ctx, message string) error {
	return ResponseSuccessWithResult(c, message, nil)
}

func ResponseSuccessWithResult(c *fiber.Ctx, message string, result interface{}) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(http.StatusOK)
	}
	response := SuccessResponse{
		Success: true,
		Message: message,
		Result:  result,
	}

	logSuccess(c, http.StatusOK, response.Message)
	return c.Status(http.StatusOK).JSON(response)
}

// ResponsePartialSuccess reports a 200 whose batch still carried per-item errors.
func ResponsePartialSuccess(c *fiber.Ctx, message string, errors []string) error {
	response := SuccessResponse{
		Success: true,
		Message: message,
		Errors:  errors,
	}

	log.Print(c).WithField("errores", len(errors)).Warn(fmt.Sprintf("%d %v", http.StatusOK, message))
	return c.Status(http.StatusOK).JSON(response)
}

// ResponseData writes an arbitrary JSON projection with status 200.
func ResponseData(c *fiber.Ctx, data interface{}) error {
	logSuccess(c, http.StatusOK, http.StatusText(http.StatusOK))
	return c.Status(http.StatusOK).JSON(data)
}

func ResponseNoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

// ResponseFailure keeps the {success:false, message} shape used by session endpoints.
func ResponseFailure(c *fiber.Ctx, code int, message string) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(code)
	}
	response := SuccessResponse{
		Success: false,
		Message: message,
	}

	logError(c, code, message)
	return c.Status(code).JSON(response)
}

func ResponseError(c *fiber.Ctx, code int, message string, errors ...string) error {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(code)
	}
	response := ErrorResponse{
		Error:  message,
		Errors: errors,
	}

	logError(c, code, message)
	return c.Status(code).JSON(response)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	return ResponseError(c, http.StatusBadRequest, message)
}

func ResponseUnauthorized(c *fiber.Ctx, message string) error {
	return ResponseError(c, http.StatusUnauthorized, message)
}

func ResponseNotFound(c *fiber.Ctx, message string) error {
	return ResponseError(c, http.StatusNotFound, message)
}

func ResponseServiceUnavailable(c *fiber.Ctx, message string) error {
	return ResponseError(c, http.StatusServiceUnavailable, message)
}

func ResponseInternalError(c *fiber.Ctx, message string, errors ...string) error {
	return ResponseError(c, http.StatusInternalServerError, message, errors...)
}
