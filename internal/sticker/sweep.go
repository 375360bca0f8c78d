package sticker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/fsutil"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
)

// SweepTempDir removes sticker files older than maxAge, left behind when the
// process died mid-batch. It returns how many files were removed.
func SweepTempDir(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), TempFilePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := fsutil.Remove(path); err != nil {
			log.Print(nil).WithField("path", path).WithError(err).Warn("Failed to remove stale sticker file")
			continue
		}
		removed++
	}
	return removed, nil
}
