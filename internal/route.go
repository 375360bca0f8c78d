package internal

import (
	"github.com/gofiber/fiber/v2"
	swagger "github.com/gofiber/swagger"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/auth"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/router"

	ctlDevice "github.com/gdbrns/go-whatsapp-sticker-sender/internal/device"
	ctlIndex "github.com/gdbrns/go-whatsapp-sticker-sender/internal/index"
	ctlMessaging "github.com/gdbrns/go-whatsapp-sticker-sender/internal/messaging"
	ctlStatus "github.com/gdbrns/go-whatsapp-sticker-sender/internal/status"
	ctlSticker "github.com/gdbrns/go-whatsapp-sticker-sender/internal/sticker"
)

func Routes(app *fiber.App, deps *Dependencies) {
	// Configure OpenAPI / Swagger
	specURL := router.BaseURL + "/docs/swagger.json"
	swaggerHandler := swagger.New(swagger.Config{
		URL: specURL,
	})

	// Route for Index
	// ---------------------------------------------
	if router.BaseURL == "" {
		app.Get("/", ctlIndex.Index)
	} else {
		app.Get(router.BaseURL, ctlIndex.Index)
		app.Get(router.BaseURL+"/", ctlIndex.Index)
	}

	// Route for OpenAPI / Swagger
	// ---------------------------------------------
	app.Get(router.BaseURL+"/docs/swagger.json", func(c *fiber.Ctx) error {
		return c.SendFile("docs/swagger.json")
	})
	app.Get(router.BaseURL+"/docs/*", swaggerHandler)

	api := app.Group(router.BaseURL + "/api")

	// Stickers
	// ---------------------------------------------
	stickerController := ctlSticker.NewController(deps.Stickers, int64(deps.Config.MaxFileSize))
	api.Post("/send-stickers", stickerController.SendStickers)

	// Diagnostics
	// ---------------------------------------------
	messagingController := ctlMessaging.NewController(deps.Messaging)
	api.Post("/test-text", messagingController.SendText)

	// Session
	// ---------------------------------------------
	statusController := ctlStatus.NewController(deps.Session)
	api.Get("/whatsapp-status", statusController.WhatsAppStatus)
	api.Get("/whatsapp-qr", statusController.WhatsAppQR)
	api.Get("/contacts", statusController.Contacts)

	deviceController := ctlDevice.NewController(deps.Session)
	api.Post("/logout", auth.AdminAuth(deps.Config.AdminSecret), deviceController.Logout)
}
