// Package session owns the single WhatsApp session of the process. Every
// reader and writer reaches the live client through Manager, so replacing the
// client on logout never leaves a handler holding a stale reference.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/fsutil"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

var ErrSessionNotReady = errors.New("Cliente de WhatsApp no está listo. Por favor, escanea el código QR.")

// MessageNotReady is the shorter not-ready notice of the diagnostic and contacts endpoints.
const MessageNotReady = "Cliente de WhatsApp no está listo."

// DefaultArtifacts lists the session files removed one by one when the
// session directory cannot be removed as a whole.
var DefaultArtifacts = []string{
	"whatsapp.db",
	"whatsapp.db-journal",
	"whatsapp.db-wal",
	"whatsapp.db-shm",
	"lockfile",
	"LOCK",
	"Cookies",
	"Cookies-journal",
}

// Client is the subset of the WhatsApp client the manager drives.
type Client interface {
	Initialize(ctx context.Context) error
	Logout(ctx context.Context) error
	Destroy() error
	IsRegistered(ctx context.Context, jid string) (bool, error)
	SendSticker(ctx context.Context, jid string, webp []byte) (string, error)
	SendText(ctx context.Context, jid string, text string) (string, error)
	Chats(ctx context.Context) ([]pkgWhatsApp.Chat, error)
}

// Factory builds a client whose lifecycle notifications are delivered to emit.
type Factory func(ctx context.Context, emit func(Event)) (Client, error)

// Sleeper abstracts time-based waiting for testing.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Config struct {
	SessionDir     string
	Artifacts      []string
	SettleDelay    time.Duration
	PurgeDelay     time.Duration
	ReconnectDelay time.Duration
}

// Status is the read-only projection served to the frontend.
type Status struct {
	QR    *string `json:"qr"`
	Ready bool    `json:"ready"`
}

type Option func(*Manager)

func WithSleeper(s Sleeper) Option {
	return func(m *Manager) { m.sleeper = s }
}

// WithPurger replaces the function used to delete the session directory.
func WithPurger(purge func(dir string, fallback []string) []error) Option {
	return func(m *Manager) { m.purge = purge }
}

type Manager struct {
	cfg     Config
	factory Factory
	sleeper Sleeper
	purge   func(dir string, fallback []string) []error

	mu         sync.RWMutex
	client     Client
	generation uint64
	state      State

	lifetime context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewManager(cfg Config, factory Factory, opts ...Option) *Manager {
	if cfg.Artifacts == nil {
		cfg.Artifacts = DefaultArtifacts
	}

	lifetime, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		factory:  factory,
		sleeper:  realSleeper{},
		purge:    fsutil.PurgeDir,
		lifetime: lifetime,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start builds a fresh client with zero state and initializes it.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.state = State{}
	m.client = nil
	m.mu.Unlock()

	client, err := m.factory(ctx, m.emitter(gen))
	if err != nil {
		log.Session("start").WithError(err).Error("Failed to create WhatsApp client")
		return err
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		_ = client.Destroy()
		return nil
	}
	m.client = client
	m.mu.Unlock()

	if err := client.Initialize(ctx); err != nil {
		log.Session("start").WithError(err).Error("Failed to initialize WhatsApp client")
		return err
	}
	log.Session("start").Info("WhatsApp client initialized")
	return nil
}

// Reset logs the current session out, purges its on-disk artifacts and starts
// a replacement. Every step before the replacement is best-effort; only a
// failure to build or initialize the replacement is returned.
func (m *Manager) Reset(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	logger := log.Session("reset")

	m.mu.Lock()
	m.generation++
	old := m.client
	m.client = nil
	m.state = State{}
	m.mu.Unlock()

	if old != nil {
		if err := old.Logout(ctx); err != nil {
			logger.WithError(err).Warn("Logout failed, continuing with cleanup")
		}
		if err := old.Destroy(); err != nil {
			logger.WithError(err).Warn("Destroy failed, continuing with cleanup")
		}
	}

	_ = m.sleeper.Sleep(ctx, m.cfg.SettleDelay)

	if m.cfg.SessionDir != "" {
		_ = m.sleeper.Sleep(ctx, m.cfg.PurgeDelay)
		if failures := m.purge(m.cfg.SessionDir, m.cfg.Artifacts); len(failures) > 0 {
			logger.WithField("failures", len(failures)).Warn("Session artifacts were not fully removed")
		}
	}

	_ = m.sleeper.Sleep(ctx, m.cfg.SettleDelay)

	return m.Start(ctx)
}

func (m *Manager) emitter(gen uint64) func(Event) {
	return func(evt Event) {
		m.handle(gen, evt)
	}
}

func (m *Manager) handle(gen uint64, evt Event) {
	logger := log.Session("event").WithField("event", evt.Kind.String())

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		logger.Debug("Dropping event from a replaced client")
		return
	}
	next, action := Transition(m.state, evt)
	m.state = next
	m.mu.Unlock()

	if evt.Reason != "" {
		logger = logger.WithField("reason", evt.Reason)
	}
	logger.WithFields(logrus.Fields{
		"ready":    next.Ready,
		"attempts": next.Attempts,
		"action":   action.String(),
	}).Info("Session state changed")

	switch action {
	case ActionReconnect:
		m.background(func() {
			if err := m.sleeper.Sleep(m.lifetime, m.cfg.ReconnectDelay); err != nil {
				return
			}
			m.reinitialize(gen)
		})
	case ActionReinitialize:
		m.background(func() {
			m.reinitialize(gen)
		})
	case ActionGiveUp:
		logger.Error("Max reconnect attempts reached, waiting for a manual logout")
	}
}

func (m *Manager) reinitialize(gen uint64) {
	m.mu.RLock()
	client := m.client
	current := gen == m.generation
	m.mu.RUnlock()

	if !current || client == nil {
		return
	}
	if err := client.Initialize(m.lifetime); err != nil {
		log.Session("reinitialize").WithError(err).Error("Failed to re-initialize WhatsApp client")
	}
}

func (m *Manager) background(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

// Wait cancels pending reconnects and blocks until background work returns.
func (m *Manager) Wait() {
	m.cancel()
	m.wg.Wait()
}

// Close stops background work and destroys the current client.
func (m *Manager) Close() error {
	m.Wait()

	m.mu.Lock()
	m.generation++
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Destroy()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Ready() bool {
	return m.State().Ready
}

func (m *Manager) Status() Status {
	s := m.State()
	status := Status{Ready: s.Ready}
	if s.Code != "" {
		code := s.Code
		status.QR = &code
	}
	return status
}

// current returns the live client, or ErrSessionNotReady.
func (m *Manager) current() (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.state.Ready || m.client == nil {
		return nil, ErrSessionNotReady
	}
	return m.client, nil
}

func (m *Manager) IsRegistered(ctx context.Context, jid string) (bool, error) {
	client, err := m.current()
	if err != nil {
		return false, err
	}
	return client.IsRegistered(ctx, jid)
}

func (m *Manager) SendSticker(ctx context.Context, jid string, webp []byte) (string, error) {
	client, err := m.current()
	if err != nil {
		return "", err
	}
	return client.SendSticker(ctx, jid, webp)
}

func (m *Manager) SendText(ctx context.Context, jid string, text string) (string, error) {
	client, err := m.current()
	if err != nil {
		return "", err
	}
	return client.SendText(ctx, jid, text)
}
