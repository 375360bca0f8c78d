package device

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/router"
)

type Session interface {
	Reset(ctx context.Context) error
}

type Controller struct {
	session Session
}

func NewController(sess Session) *Controller {
	return &Controller{session: sess}
}

// Logout
// @Summary     Log Out and Reset Session
// @Description Log the linked device out, purge its stored credentials and start a new login
// @Tags        Session
// @Produce     json
// @Param       X-Admin-Secret header string false "Required when ADMIN_SECRET_KEY is set"
// @Success     200
// @Failure     401
// @Failure     500
// @Router      /api/logout [post]
func (ctl *Controller) Logout(c *fiber.Ctx) error {
	if err := ctl.session.Reset(c.UserContext()); err != nil {
		log.Print(c).WithError(err).Error("Failed to reset WhatsApp session")
		return router.ResponseFailure(c, http.StatusInternalServerError, "Error al cerrar sesión")
	}
	return router.ResponseSuccess(c, "Sesión cerrada correctamente")
}
