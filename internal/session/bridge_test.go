package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

func TestContacts_NotReadyDoesNotTouchClient(t *testing.T) {
	m, factory, _ := newTestManager(t, testConfig(""))
	require.NoError(t, m.Start(context.Background()))

	contacts, err := m.Contacts(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotReady)
	assert.Nil(t, contacts)
	assert.Equal(t, 0, factory.client(0).chatCalls)
}

func TestContacts_FiltersAndNames(t *testing.T) {
	m, factory, _ := newTestManager(t, testConfig(""))
	factory.prepare = func(c *fakeClient) {
		c.chats = []pkgWhatsApp.Chat{
			{ID: "573001111111@s.whatsapp.net", Name: "Ana", FormattedTitle: "Ana P", User: "573001111111"},
			{ID: "573002222222@s.whatsapp.net", FormattedTitle: "Beto", User: "573002222222"},
			{ID: "573003333333@s.whatsapp.net", User: "573003333333"},
			{ID: "120363@g.us", Name: "Familia", IsGroup: true},
			{ID: "573004444444@s.whatsapp.net", Name: "Archivado", Archived: true},
		}
	}
	require.NoError(t, m.Start(context.Background()))
	factory.emit(0, Event{Kind: EventReady})

	contacts, err := m.Contacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Contact{
		{ID: "573001111111@s.whatsapp.net", Name: "Ana"},
		{ID: "573002222222@s.whatsapp.net", Name: "Beto"},
		{ID: "573003333333@s.whatsapp.net", Name: "573003333333"},
	}, contacts)
}
