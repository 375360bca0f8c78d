package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow/store/sqlstore"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
)

// Datastore is the whatsmeow device container plus the handle it runs on.
type Datastore struct {
	Container *sqlstore.Container
	db        *sql.DB
	driver    string
}

func normalizeDatastoreDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgresql", "postgres", "pgx":
		return "pgx"
	case "", "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return strings.ToLower(driver)
	}
}

func datastoreDialect(driver string) string {
	if driver == "pgx" {
		return "postgres"
	}
	return driver
}

func normalizeDatastoreDSN(driver string, dsn string) string {
	if driver != "pgx" {
		return dsn
	}
	appendParam := func(current string, key string, value string) string {
		if strings.Contains(current, key+"=") {
			return current
		}
		separator := "?"
		if strings.Contains(current, "?") {
			if strings.HasSuffix(current, "?") || strings.HasSuffix(current, "&") {
				separator = ""
			} else {
				separator = "&"
			}
		}
		return current + separator + key + "=" + value
	}
	dsn = appendParam(dsn, "statement_cache_capacity", "0")
	dsn = appendParam(dsn, "default_query_exec_mode", "simple_protocol")
	return dsn
}

// DefaultSQLiteURI places the session database inside sessionDir.
func DefaultSQLiteURI(sessionDir string) string {
	return "file:" + strings.TrimRight(sessionDir, "/") + "/whatsapp.db?_foreign_keys=on"
}

// OpenDatastore opens the credential store and upgrades its schema.
func OpenDatastore(ctx context.Context, cfg Config) (*Datastore, error) {
	driver := normalizeDatastoreDriver(cfg.DatastoreType)
	dsn := cfg.DatastoreURI
	if driver == "sqlite3" {
		if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
		if dsn == "" {
			dsn = DefaultSQLiteURI(cfg.SessionDir)
		}
	}
	if dsn == "" {
		return nil, errors.New("WHATSAPP_DATASTORE_URI is required for driver " + driver)
	}
	dsn = normalizeDatastoreDSN(driver, dsn)

	log.Session("datastore").Info("Opening WhatsApp datastore with driver=" + driver)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "pgx" {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(3 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping datastore: %w", err)
	}

	container := sqlstore.NewWithDB(db, datastoreDialect(driver), log.WhatsApp("Database"))
	if err := container.Upgrade(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("upgrade operation failed: %w", err)
	}

	return &Datastore{Container: container, db: db, driver: driver}, nil
}

// Close releases the underlying database handle so on-disk files can be removed.
func (d *Datastore) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
