package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/session"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/validation"
)

type fakeSession struct {
	ready      bool
	registered bool
	lookupErr  error
	sendErr    error
	jid        string
	text       string
}

func (f *fakeSession) Ready() bool { return f.ready }

func (f *fakeSession) IsRegistered(_ context.Context, jid string) (bool, error) {
	f.jid = jid
	return f.registered, f.lookupErr
}

func (f *fakeSession) SendText(_ context.Context, jid string, text string) (string, error) {
	f.text = text
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "3EB0ABC", nil
}

func TestService_SendText(t *testing.T) {
	sess := &fakeSession{ready: true, registered: true}
	svc := NewService(sess)

	id, err := svc.SendText(context.Background(), "(300) 123-4567", "")
	require.NoError(t, err)
	assert.Equal(t, "3EB0ABC", id)
	assert.Equal(t, "573001234567@s.whatsapp.net", sess.jid)
	assert.Equal(t, DefaultText, sess.text)

	_, err = svc.SendText(context.Background(), "3001234567", "hola")
	require.NoError(t, err)
	assert.Equal(t, "hola", sess.text)
}

func TestService_SendTextErrors(t *testing.T) {
	_, err := NewService(&fakeSession{ready: true}).SendText(context.Background(), "4001234567", "")
	assert.ErrorIs(t, err, validation.ErrInvalidPhoneNumber)

	_, err = NewService(&fakeSession{}).SendText(context.Background(), "3001234567", "")
	assert.ErrorIs(t, err, session.ErrSessionNotReady)

	_, err = NewService(&fakeSession{ready: true}).SendText(context.Background(), "3001234567", "")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestController_SendText(t *testing.T) {
	tests := []struct {
		name     string
		sess     *fakeSession
		body     string
		wantCode int
		wantKey  string
		wantMsg  string
	}{
		{"sent", &fakeSession{ready: true, registered: true}, `{"phoneNumber":"3001234567","text":"hola"}`, http.StatusOK, "message", "Mensaje de texto enviado"},
		{"invalid phone", &fakeSession{ready: true}, `{"phoneNumber":"123"}`, http.StatusBadRequest, "error", validation.ErrInvalidPhoneNumber.Error()},
		{"not ready", &fakeSession{}, `{"phoneNumber":"3001234567"}`, http.StatusServiceUnavailable, "error", session.MessageNotReady},
		{"not registered", &fakeSession{ready: true}, `{"phoneNumber":"3001234567"}`, http.StatusBadRequest, "error", ErrNotRegistered.Error()},
		{"send failure", &fakeSession{ready: true, registered: true, sendErr: errors.New("socket closed")}, `{"phoneNumber":"3001234567"}`, http.StatusInternalServerError, "error", "socket closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/api/test-text", NewController(NewService(tt.sess)).SendText)

			req := httptest.NewRequest(http.MethodPost, "/api/test-text", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.wantMsg, body[tt.wantKey])
		})
	}
}
