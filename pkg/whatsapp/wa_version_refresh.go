package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"golang.org/x/sync/singleflight"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/env"
)

type VersionStatus struct {
	CurrentVersion store.WAVersionContainer `json:"current_version"`
	LastRefreshed  *time.Time              `json:"last_refreshed,omitempty"`
	LastError      string                  `json:"last_error,omitempty"`
}

var (
	versionRefreshGroup singleflight.Group

	versionMu            sync.RWMutex
	versionLastRefreshed *time.Time
	versionLastError     string

	// swapped in tests
	fetchLatestVersion = func(ctx context.Context) (*store.WAVersionContainer, error) {
		return whatsmeow.GetLatestVersion(ctx, &http.Client{Timeout: 15 * time.Second})
	}
)

func GetVersionStatus() VersionStatus {
	versionMu.RLock()
	defer versionMu.RUnlock()

	var last *time.Time
	if versionLastRefreshed != nil {
		t := *versionLastRefreshed
		last = &t
	}
	return VersionStatus{
		CurrentVersion: store.GetWAVersion(),
		LastRefreshed:  last,
		LastError:      versionLastError,
	}
}

func recordVersionRefresh(err error) {
	versionMu.Lock()
	defer versionMu.Unlock()
	now := time.Now()
	versionLastRefreshed = &now
	if err != nil {
		versionLastError = err.Error()
	} else {
		versionLastError = ""
	}
}

// RefreshVersion fetches the latest WhatsApp Web version and applies it
// globally. Unless forced, calls are throttled by
// WHATSAPP_WAVERSION_REFRESH_MIN_INTERVAL (default 10m).
func RefreshVersion(ctx context.Context, force bool) (VersionStatus, bool, error) {
	minInterval := env.GetEnvDurationOrDefault("WHATSAPP_WAVERSION_REFRESH_MIN_INTERVAL", 10*time.Minute)
	if !force && minInterval > 0 {
		versionMu.RLock()
		last := versionLastRefreshed
		versionMu.RUnlock()
		if last != nil && time.Since(*last) < minInterval {
			return GetVersionStatus(), false, nil
		}
	}

	_, err, _ := versionRefreshGroup.Do("refresh", func() (interface{}, error) {
		latest, err := fetchLatestVersion(ctx)
		if err == nil && latest == nil {
			err = errors.New("latest WhatsApp Web version is nil")
		}
		if err != nil {
			recordVersionRefresh(err)
			return nil, err
		}
		store.SetWAVersion(*latest)
		recordVersionRefresh(nil)
		return nil, nil
	})
	return GetVersionStatus(), true, err
}
