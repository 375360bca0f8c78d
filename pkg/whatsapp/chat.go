package whatsapp

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// Chat is the library-neutral view of one conversation.
type Chat struct {
	ID             string
	Name           string
	FormattedTitle string
	User           string
	IsGroup        bool
	Archived       bool
}

// DisplayName falls back from the saved name to the formatted title to the bare user id.
func (c Chat) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	if title := strings.TrimSpace(c.FormattedTitle); title != "" {
		return title
	}
	return c.User
}

func chatFromContact(jid types.JID, info types.ContactInfo, settings types.LocalChatSettings) Chat {
	return Chat{
		ID:             jid.String(),
		Name:           info.FullName,
		FormattedTitle: firstNonEmpty(info.PushName, info.BusinessName, info.FirstName),
		User:           jid.User,
		IsGroup:        jid.Server == types.GroupServer,
		Archived:       settings.Archived,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ComposeUserJID builds the address of a personal account from its international number.
func ComposeUserJID(number string) string {
	return types.NewJID(number, types.DefaultUserServer).String()
}
