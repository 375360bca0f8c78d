package session

import (
	"context"

	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

// Contact is a one-to-one chat as listed to the frontend.
type Contact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Contacts lists non-group, non-archived chats. The client is not touched
// when the session is not ready.
func (m *Manager) Contacts(ctx context.Context) ([]Contact, error) {
	client, err := m.current()
	if err != nil {
		return nil, err
	}

	chats, err := client.Chats(ctx)
	if err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0, len(chats))
	for _, chat := range chats {
		if chat.IsGroup || chat.Archived {
			continue
		}
		contacts = append(contacts, Contact{
			ID:   chat.ID,
			Name: chat.DisplayName(),
		})
	}
	return contacts, nil
}

// WhatsAppFactory builds whatsmeow-backed clients that report lifecycle
// callbacks as session events.
func WhatsAppFactory(cfg pkgWhatsApp.Config) Factory {
	return func(ctx context.Context, emit func(Event)) (Client, error) {
		client, err := pkgWhatsApp.NewClient(ctx, cfg, pkgWhatsApp.Handlers{
			OnCode: func(code string) {
				emit(Event{Kind: EventCode, Code: code})
			},
			OnReady: func() {
				emit(Event{Kind: EventReady})
			},
			OnDisconnected: func(reason string) {
				emit(Event{Kind: EventDisconnected, Reason: reason})
			},
			OnAuthFailure: func(reason string) {
				emit(Event{Kind: EventAuthFailed, Reason: reason})
			},
			OnCodeExpired: func() {
				emit(Event{Kind: EventCodeExpired, Reason: "qr timeout"})
			},
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
