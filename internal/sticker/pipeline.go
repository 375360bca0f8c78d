// Package sticker turns an upload batch into WhatsApp sticker messages for a
// single validated destination.
package sticker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gdbrns/go-whatsapp-sticker-sender/internal/session"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/fsutil"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
	pkgSticker "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/sticker"
	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/validation"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-sticker-sender/pkg/whatsapp"
)

var (
	ErrNoImagesProvided = errors.New("No se proporcionaron imágenes")
	ErrConversionFailed = errors.New("Error al convertir imágenes a WebP")
	ErrTempFileFailed   = errors.New("Error al guardar archivos temporales")
	ErrLookupFailed     = errors.New("Error al verificar número en WhatsApp")
	ErrNotRegistered    = errors.New("El número no está registrado en WhatsApp.")
)

// TempFilePrefix starts the name of every sticker written to the temp dir.
const TempFilePrefix = "sticker_"

// Session is what the pipeline needs from the WhatsApp session.
type Session interface {
	Ready() bool
	IsRegistered(ctx context.Context, jid string) (bool, error)
	SendSticker(ctx context.Context, jid string, webp []byte) (string, error)
}

type Config struct {
	TempDir string
	// SendInterval paces consecutive dispatches. Zero disables pacing.
	SendInterval time.Duration
}

type Pipeline struct {
	cfg     Config
	session Session
	convert func([]byte) ([]byte, error)
	remove  func(path string) error
	newID   func() string
}

func NewPipeline(cfg Config, sess Session) *Pipeline {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Pipeline{
		cfg:     cfg,
		session: sess,
		convert: pkgSticker.Convert,
		remove:  fsutil.Remove,
		newID:   uuid.NewString,
	}
}

// SendStickers validates the batch, converts every image, confirms the
// destination and dispatches the stickers one by one. Per-sticker send
// failures are collected in the result; every other failure aborts the batch
// before anything is sent. Temp files never outlive the call.
func (p *Pipeline) SendStickers(ctx context.Context, images [][]byte, phone string) (Result, error) {
	if len(images) == 0 {
		return Result{}, ErrNoImagesProvided
	}
	number, err := validation.NormalizePhone(phone)
	if err != nil {
		return Result{}, err
	}
	if !p.session.Ready() {
		return Result{}, session.ErrSessionNotReady
	}

	batchID := p.newID()
	logger := log.Sticker(batchID, "send")
	logger.WithField("images", len(images)).WithField("phone", log.MaskPhone(number)).Info("Processing sticker batch")

	stickers, err := p.convertAll(ctx, images)
	if err != nil {
		logger.WithError(err).Error("Failed to convert images")
		return Result{}, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	var files []string
	defer func() {
		p.cleanup(batchID, files)
	}()

	files, err = p.writeTempFiles(batchID, stickers)
	if err != nil {
		logger.WithError(err).Error("Failed to write temp files")
		return Result{}, fmt.Errorf("%w: %v", ErrTempFileFailed, err)
	}

	jid := pkgWhatsApp.ComposeUserJID(number)
	registered, err := p.session.IsRegistered(ctx, jid)
	if err != nil {
		logger.WithError(err).Error("Failed to check WhatsApp registration")
		if errors.Is(err, session.ErrSessionNotReady) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if !registered {
		logger.Warn("Destination is not registered on WhatsApp")
		return Result{}, ErrNotRegistered
	}

	result := p.dispatch(ctx, batchID, jid, files)
	logger.WithField("sent", result.Sent).WithField("failed", len(result.Errors)).Info("Sticker batch finished")
	return result, nil
}

func (p *Pipeline) convertAll(ctx context.Context, images [][]byte) ([][]byte, error) {
	stickers := make([][]byte, len(images))
	g, ctx := errgroup.WithContext(ctx)
	for i, img := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			webp, err := p.convert(img)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			stickers[i] = webp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stickers, nil
}

// writeTempFiles returns every path it created, including on failure, so the
// caller can remove them.
func (p *Pipeline) writeTempFiles(batchID string, stickers [][]byte) ([]string, error) {
	if err := os.MkdirAll(p.cfg.TempDir, 0o755); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(stickers))
	for i, webp := range stickers {
		path := filepath.Join(p.cfg.TempDir, TempFilePrefix+batchID+"_"+strconv.Itoa(i)+".webp")
		files = append(files, path)
		if err := os.WriteFile(path, webp, 0o600); err != nil {
			return files, err
		}
	}
	return files, nil
}

func (p *Pipeline) dispatch(ctx context.Context, batchID string, jid string, files []string) Result {
	var limiter *rate.Limiter
	if p.cfg.SendInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.cfg.SendInterval), 1)
	}

	var result Result
	for i, path := range files {
		logger := log.Sticker(batchID, "dispatch").WithField("index", i)

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				logger.WithError(err).Warn("Sticker dispatch cancelled")
				result.Errors = append(result.Errors, err.Error())
				continue
			}
		}

		webp, err := os.ReadFile(path)
		if err == nil {
			_, err = p.session.SendSticker(ctx, jid, webp)
		}
		if err != nil {
			logger.WithError(err).Warn("Failed to send sticker")
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Sent++
	}
	return result
}

func (p *Pipeline) cleanup(batchID string, files []string) {
	for _, path := range files {
		if err := p.remove(path); err != nil {
			log.Sticker(batchID, "cleanup").WithField("path", path).WithError(err).Warn("Failed to remove temp file")
		}
	}
}
