package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/types"
)

func TestDisplayNameFallback(t *testing.T) {
	assert.Equal(t, "Ana", Chat{Name: "Ana", FormattedTitle: "ana_p", User: "573001234567"}.DisplayName())
	assert.Equal(t, "ana_p", Chat{Name: "  ", FormattedTitle: "ana_p", User: "573001234567"}.DisplayName())
	assert.Equal(t, "573001234567", Chat{User: "573001234567"}.DisplayName())
}

func TestChatFromContact(t *testing.T) {
	jid := types.NewJID("573001234567", types.DefaultUserServer)
	chat := chatFromContact(jid, types.ContactInfo{PushName: "Ana P", BusinessName: "Tienda"}, types.LocalChatSettings{Archived: true})

	assert.Equal(t, "573001234567@s.whatsapp.net", chat.ID)
	assert.Equal(t, "Ana P", chat.FormattedTitle)
	assert.True(t, chat.Archived)
	assert.False(t, chat.IsGroup)

	group := chatFromContact(types.NewJID("120363000000000000", types.GroupServer), types.ContactInfo{}, types.LocalChatSettings{})
	assert.True(t, group.IsGroup)
}

func TestComposeUserJID(t *testing.T) {
	assert.Equal(t, "573001234567@s.whatsapp.net", ComposeUserJID("573001234567"))
}

func TestNormalizeDatastore(t *testing.T) {
	assert.Equal(t, "pgx", normalizeDatastoreDriver("PostgreSQL"))
	assert.Equal(t, "sqlite3", normalizeDatastoreDriver(""))
	assert.Equal(t, "postgres", datastoreDialect("pgx"))
	assert.Equal(t, "sqlite3", datastoreDialect("sqlite3"))

	dsn := normalizeDatastoreDSN("pgx", "postgres://u:p@db/wa?sslmode=disable")
	assert.Contains(t, dsn, "&statement_cache_capacity=0")
	assert.Contains(t, dsn, "&default_query_exec_mode=simple_protocol")
	assert.Equal(t, "file:x.db", normalizeDatastoreDSN("sqlite3", "file:x.db"))

	assert.Equal(t, "file:.wa_session/whatsapp.db?_foreign_keys=on", DefaultSQLiteURI(".wa_session/"))
}
