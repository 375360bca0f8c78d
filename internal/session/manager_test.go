package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/fsutil"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

type fakeClient struct {
	mu          sync.Mutex
	initialized int
	loggedOut   int
	destroyed   int
	chatCalls   int
	logoutErr   error
	destroyErr  error
	chats       []pkgWhatsApp.Chat
}

func (f *fakeClient) Initialize(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized++
	return nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut++
	return f.logoutErr
}

func (f *fakeClient) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
	return f.destroyErr
}

func (f *fakeClient) IsRegistered(context.Context, string) (bool, error) {
	return true, nil
}

func (f *fakeClient) SendSticker(context.Context, string, []byte) (string, error) {
	return "sticker-id", nil
}

func (f *fakeClient) SendText(context.Context, string, string) (string, error) {
	return "text-id", nil
}

func (f *fakeClient) Chats(context.Context) ([]pkgWhatsApp.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	return f.chats, nil
}

func (f *fakeClient) initCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

type fakeFactory struct {
	mu       sync.Mutex
	clients  []*fakeClient
	emitters []func(Event)
	prepare  func(*fakeClient)
	err      error
}

func (f *fakeFactory) build(_ context.Context, emit func(Event)) (Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeClient{}
	if f.prepare != nil {
		f.prepare(c)
	}
	f.clients = append(f.clients, c)
	f.emitters = append(f.emitters, emit)
	return c, nil
}

func (f *fakeFactory) client(i int) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[i]
}

func (f *fakeFactory) emit(i int, evt Event) {
	f.mu.Lock()
	emit := f.emitters[i]
	f.mu.Unlock()
	emit(evt)
}

type recordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return nil
}

func (s *recordingSleeper) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

func testConfig(dir string) Config {
	return Config{
		SessionDir:     dir,
		SettleDelay:    2 * time.Second,
		PurgeDelay:     5 * time.Second,
		ReconnectDelay: 2 * time.Second,
	}
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) (*Manager, *fakeFactory, *recordingSleeper) {
	t.Helper()
	factory := &fakeFactory{}
	sleeper := &recordingSleeper{}
	opts = append([]Option{WithSleeper(sleeper)}, opts...)
	m := NewManager(cfg, factory.build, opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m, factory, sleeper
}

func TestManager_StartTracksLoginAndReady(t *testing.T) {
	m, factory, _ := newTestManager(t, testConfig(""))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, 1, factory.client(0).initCount())
	assert.Equal(t, Status{}, m.Status())

	factory.emit(0, Event{Kind: EventCode, Code: "2@login"})
	status := m.Status()
	require.NotNil(t, status.QR)
	assert.Equal(t, "2@login", *status.QR)
	assert.False(t, status.Ready)

	factory.emit(0, Event{Kind: EventReady})
	assert.Equal(t, Status{Ready: true}, m.Status())
	assert.True(t, m.Ready())
}

func TestManager_StartFactoryError(t *testing.T) {
	factory := &fakeFactory{err: errors.New("datastore unavailable")}
	m := NewManager(testConfig(""), factory.build, WithSleeper(&recordingSleeper{}))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.False(t, m.Ready())
	assert.NoError(t, m.Close())
}

func TestManager_ReconnectIsBounded(t *testing.T) {
	m, factory, sleeper := newTestManager(t, testConfig(""))
	require.NoError(t, m.Start(context.Background()))
	factory.emit(0, Event{Kind: EventReady})

	for i := 0; i < MaxReconnectAttempts+2; i++ {
		factory.emit(0, Event{Kind: EventDisconnected, Reason: "connection lost"})
		m.wg.Wait()
	}

	assert.Equal(t, 1+MaxReconnectAttempts, factory.client(0).initCount())
	assert.Len(t, sleeper.durations(), MaxReconnectAttempts)
	assert.Equal(t, MaxReconnectAttempts, m.State().Attempts)
	assert.False(t, m.Ready())

	// auth failures are not capped
	factory.emit(0, Event{Kind: EventAuthFailed, Reason: "logged out"})
	m.wg.Wait()
	assert.Equal(t, 2+MaxReconnectAttempts, factory.client(0).initCount())
}

func TestManager_ExpiredCodesKeepReissuing(t *testing.T) {
	m, factory, sleeper := newTestManager(t, testConfig(""))
	require.NoError(t, m.Start(context.Background()))

	windows := 3 * MaxReconnectAttempts
	for i := 0; i < windows; i++ {
		code := fmt.Sprintf("2@login-%d", i)
		factory.emit(0, Event{Kind: EventCode, Code: code})
		status := m.Status()
		require.NotNil(t, status.QR)
		assert.Equal(t, code, *status.QR)

		factory.emit(0, Event{Kind: EventCodeExpired, Reason: "qr timeout"})
		m.wg.Wait()
		assert.Nil(t, m.Status().QR)
	}

	assert.Equal(t, 1+windows, factory.client(0).initCount())
	assert.Equal(t, 0, m.State().Attempts)
	assert.Empty(t, sleeper.durations())

	factory.emit(0, Event{Kind: EventCode, Code: "2@still-offered"})
	status := m.Status()
	require.NotNil(t, status.QR)
	assert.Equal(t, "2@still-offered", *status.QR)
}

func TestManager_ReadyResetsReconnectCounter(t *testing.T) {
	m, factory, _ := newTestManager(t, testConfig(""))
	require.NoError(t, m.Start(context.Background()))

	factory.emit(0, Event{Kind: EventDisconnected})
	factory.emit(0, Event{Kind: EventDisconnected})
	m.wg.Wait()
	assert.Equal(t, 2, m.State().Attempts)

	factory.emit(0, Event{Kind: EventReady})
	assert.Equal(t, 0, m.State().Attempts)
}

func TestManager_ResetPurgesAndReplacesClient(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "whatsapp.db"), []byte("creds"), 0o600))

	m, factory, sleeper := newTestManager(t, testConfig(dir))
	require.NoError(t, m.Start(context.Background()))
	factory.emit(0, Event{Kind: EventReady})

	require.NoError(t, m.Reset(context.Background()))

	old := factory.client(0)
	assert.Equal(t, 1, old.loggedOut)
	assert.Equal(t, 1, old.destroyed)
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second, 2 * time.Second}, sleeper.durations())
	assert.NoDirExists(t, dir)

	replacement := factory.client(1)
	assert.Equal(t, 1, replacement.initCount())
	assert.Equal(t, Status{}, m.Status())

	// the replacement carries the same event wiring
	factory.emit(1, Event{Kind: EventReady})
	assert.True(t, m.Ready())
}

func TestManager_ResetToleratesEveryCleanupFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lockfile"), nil, 0o600))

	// rename succeeds, recursive delete always fails
	remover := &fsutil.Remover{
		Rename:    os.Rename,
		RemoveAll: func(string) error { return errors.New("resource busy") },
		Lstat:     os.Lstat,
		Now:       time.Now,
	}

	m, factory, _ := newTestManager(t, testConfig(dir), WithPurger(remover.PurgeDir))
	factory.prepare = func(c *fakeClient) {
		c.logoutErr = errors.New("logout failed")
		c.destroyErr = errors.New("destroy failed")
	}
	require.NoError(t, m.Start(context.Background()))

	require.NoError(t, m.Reset(context.Background()))

	old := factory.client(0)
	assert.Equal(t, 1, old.loggedOut)
	assert.Equal(t, 1, old.destroyed)
	require.Len(t, factory.clients, 2)
	assert.Equal(t, 1, factory.client(1).initCount())
}

func TestManager_ResetRemovesArtifactsFromRenamedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "whatsapp.db"), []byte("creds"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lockfile"), nil, 0o600))

	scratch := dir + "_7"
	remover := &fsutil.Remover{
		Rename: os.Rename,
		RemoveAll: func(p string) error {
			if p == scratch {
				return errors.New("resource busy")
			}
			return os.RemoveAll(p)
		},
		Lstat: os.Lstat,
		Now:   func() time.Time { return time.Unix(0, 7) },
	}

	m, factory, _ := newTestManager(t, testConfig(dir), WithPurger(remover.PurgeDir))
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Reset(context.Background()))

	assert.NoFileExists(t, filepath.Join(scratch, "whatsapp.db"))
	assert.NoFileExists(t, filepath.Join(scratch, "lockfile"))
	assert.Equal(t, 1, factory.client(1).initCount())
}

func TestManager_ResetReturnsFactoryFailure(t *testing.T) {
	m, factory, _ := newTestManager(t, testConfig(""))
	require.NoError(t, m.Start(context.Background()))

	factory.err = errors.New("cannot open store")
	require.Error(t, m.Reset(context.Background()))
	assert.False(t, m.Ready())
}

func TestManager_DropsEventsFromReplacedClient(t *testing.T) {
	m, factory, _ := newTestManager(t, testConfig(""))
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Reset(context.Background()))

	factory.emit(0, Event{Kind: EventReady})
	assert.False(t, m.Ready())

	factory.emit(0, Event{Kind: EventDisconnected})
	m.wg.Wait()
	assert.Equal(t, 0, m.State().Attempts)
	assert.Equal(t, 1, factory.client(0).initCount())
}

func TestManager_DelegatesOnlyWhenReady(t *testing.T) {
	m, factory, _ := newTestManager(t, testConfig(""))
	require.NoError(t, m.Start(context.Background()))

	_, err := m.SendSticker(context.Background(), "573001234567@s.whatsapp.net", []byte("webp"))
	assert.ErrorIs(t, err, ErrSessionNotReady)
	_, err = m.SendText(context.Background(), "573001234567@s.whatsapp.net", "hola")
	assert.ErrorIs(t, err, ErrSessionNotReady)
	_, err = m.IsRegistered(context.Background(), "573001234567@s.whatsapp.net")
	assert.ErrorIs(t, err, ErrSessionNotReady)

	factory.emit(0, Event{Kind: EventReady})
	id, err := m.SendSticker(context.Background(), "573001234567@s.whatsapp.net", []byte("webp"))
	require.NoError(t, err)
	assert.Equal(t, "sticker-id", id)
}
