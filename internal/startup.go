package internal

import (
	"context"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/messaging"
	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/session"
	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/sticker"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
)

// Dependencies are the long-lived services shared by routes and routines.
type Dependencies struct {
	Config    Config
	Session   *session.Manager
	Stickers  *sticker.Pipeline
	Messaging *messaging.Service
}

// NewDependencies wires the services around one session manager. The
// session is not started.
func NewDependencies(cfg Config, factory session.Factory, opts ...session.Option) *Dependencies {
	manager := session.NewManager(cfg.Session, factory, opts...)
	return &Dependencies{
		Config:    cfg,
		Session:   manager,
		Stickers:  sticker.NewPipeline(cfg.Sticker, manager),
		Messaging: messaging.NewService(manager),
	}
}

// Startup starts the WhatsApp session. A failure is logged and leaves the
// session not ready; a later logout builds a fresh one.
func Startup(deps *Dependencies) {
	log.Print(nil).Info("Running Startup Tasks")

	if err := deps.Session.Start(context.Background()); err != nil {
		log.Print(nil).WithError(err).Error("Failed to start WhatsApp session")
		return
	}
	log.Print(nil).
		WithField("datastore", deps.Config.WhatsApp.DatastoreType).
		WithField("session_dir", deps.Config.WhatsApp.SessionDir).
		Info("WhatsApp session started")
}
