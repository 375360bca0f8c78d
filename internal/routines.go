package internal

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/sticker"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

// Routines registers the background jobs on cron and starts it.
func Routines(cron *cron.Cron, deps *Dependencies) {
	log.Print(nil).Info("Running Routine Tasks")

	// Orphaned stickers from batches interrupted by a crash or restart
	_, err := cron.AddFunc("0 */10 * * * *", func() {
		sweepTempDir(deps.Config.Sticker.TempDir, deps.Config.TempMaxAge)
	})
	if err != nil {
		log.Print(nil).WithField("error", err.Error()).Error("Failed to add temp sweep cron job")
	}

	if deps.Config.HealthCheckCron {
		_, err := cron.AddFunc("0 */5 * * * *", func() {
			logSessionHealth(deps)
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add health check cron job")
		}
	} else {
		log.Print(nil).Info("Health check cron disabled; relying on whatsmeow event handlers")
	}

	if deps.Config.VersionRefreshCron {
		spec := deps.Config.VersionRefreshSpec
		force := deps.Config.VersionRefreshForce
		_, err := cron.AddFunc(spec, func() {
			refreshWAVersion(force)
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add WA Web version refresh cron job")
		} else {
			log.Print(nil).WithField("spec", spec).WithField("force", force).Info("WA Web version refresh cron enabled")
		}
	}

	cron.Start()
}

func sweepTempDir(dir string, maxAge time.Duration) int {
	removed, err := sticker.SweepTempDir(dir, maxAge, time.Now())
	if err != nil {
		log.Print(nil).WithField("dir", dir).WithError(err).Warn("Failed to sweep sticker temp dir")
		return 0
	}
	if removed > 0 {
		log.Print(nil).WithField("dir", dir).WithField("removed", removed).Info("Removed stale sticker files")
	}
	return removed
}

func logSessionHealth(deps *Dependencies) {
	state := deps.Session.State()
	entry := log.Session("health").
		WithField("ready", state.Ready).
		WithField("attempts", state.Attempts)

	switch {
	case state.Ready:
		entry.Info("Session healthy")
	case state.Code != "":
		entry.Info("Session awaiting QR login")
	default:
		entry.Warn("Session not ready")
	}
}

func refreshWAVersion(force bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, refreshed, err := pkgWhatsApp.RefreshVersion(ctx, force)
	v := status.CurrentVersion
	versionStr := strconv.FormatUint(uint64(v[0]), 10) + "." + strconv.FormatUint(uint64(v[1]), 10) + "." + strconv.FormatUint(uint64(v[2]), 10)
	if err != nil {
		log.Print(nil).WithField("version", versionStr).WithField("force", force).Error("WA Web version refresh failed: " + err.Error())
		return
	}
	log.Print(nil).WithField("version", versionStr).WithField("refreshed", refreshed).WithField("force", force).Info("WA Web version refresh completed")
}
