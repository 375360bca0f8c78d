package index

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/router"
)

type ResponseIndex struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Index
// @Summary     Show The Status of The Server
// @Description Get The Server Status
// @Tags        Root
// @Produce     json
// @Success     200
// @Router      / [get]
func Index(c *fiber.Ctx) error {
	return router.ResponseData(c, ResponseIndex{
		Status:  "ok",
		Message: "Servidor funcionando",
	})
}
