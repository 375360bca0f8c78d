package internal

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/session"
	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/sticker"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/env"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

// Config is the process configuration assembled from the environment.
type Config struct {
	WhatsApp pkgWhatsApp.Config
	Session  session.Config
	Sticker  sticker.Config

	MaxFileSize int
	TempMaxAge  time.Duration
	AdminSecret string

	HealthCheckCron     bool
	VersionRefreshCron  bool
	VersionRefreshSpec  string
	VersionRefreshForce bool
}

func LoadConfig() Config {
	sessionDir := filepath.Clean(env.GetEnvStringOrDefault("WHATSAPP_SESSION_DIR", "./.wa_session"))

	datastoreType := env.GetEnvStringOrDefault("WHATSAPP_DATASTORE_TYPE", "sqlite3")
	datastoreURI := env.GetEnvStringOrDefault("WHATSAPP_DATASTORE_URI", "")
	if datastoreURI == "" {
		datastoreURI = pkgWhatsApp.DefaultSQLiteURI(sessionDir)
	}

	// A remote store has nothing on disk to purge on logout.
	purgeDir := sessionDir
	if !strings.HasPrefix(strings.ToLower(datastoreType), "sqlite") {
		purgeDir = ""
	}

	proxyURL, _ := env.GetEnvString("WHATSAPP_CLIENT_PROXY_URL")
	adminSecret, _ := env.GetEnvString("ADMIN_SECRET_KEY")

	return Config{
		WhatsApp: pkgWhatsApp.Config{
			SessionDir:    sessionDir,
			DatastoreType: datastoreType,
			DatastoreURI:  datastoreURI,
			ProxyURL:      proxyURL,
			PrintQR:       env.GetEnvBoolOrDefault("WHATSAPP_PRINT_QR", true),
		},
		Session: session.Config{
			SessionDir:     purgeDir,
			SettleDelay:    env.GetEnvDurationOrDefault("WHATSAPP_SESSION_SETTLE_DELAY", 2*time.Second),
			PurgeDelay:     env.GetEnvDurationOrDefault("WHATSAPP_SESSION_PURGE_DELAY", 5*time.Second),
			ReconnectDelay: env.GetEnvDurationOrDefault("WHATSAPP_RECONNECT_DELAY", 2*time.Second),
		},
		Sticker: sticker.Config{
			TempDir:      env.GetEnvStringOrDefault("STICKER_TEMP_DIR", "./temp"),
			SendInterval: env.GetEnvDurationOrDefault("STICKER_SEND_INTERVAL", 0),
		},

		MaxFileSize: env.GetEnvSizeOrDefault("STICKER_MAX_FILE_SIZE", 5<<20),
		TempMaxAge:  env.GetEnvDurationOrDefault("STICKER_TEMP_MAX_AGE", 30*time.Minute),
		AdminSecret: adminSecret,

		HealthCheckCron:     env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_HEALTH_CHECK_CRON", true),
		VersionRefreshCron:  env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_WAVERSION_REFRESH_CRON", false),
		VersionRefreshSpec:  env.GetEnvStringOrDefault("WHATSAPP_WAVERSION_REFRESH_CRON_SPEC", "0 0 3 * * *"),
		VersionRefreshForce: env.GetEnvBoolOrDefault("WHATSAPP_WAVERSION_REFRESH_CRON_FORCE", false),
	}
}
