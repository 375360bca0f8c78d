// Package fsutil holds best-effort deletion helpers for files that may still
// be held open by another process, such as session stores and temp stickers.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gdbrns/go-whatsapp-sticker-sender/pkg/log"
)

// Remover performs deletions through swappable filesystem primitives.
type Remover struct {
	Rename    func(oldpath, newpath string) error
	RemoveAll func(path string) error
	Lstat     func(path string) (os.FileInfo, error)
	Now       func() time.Time
}

// Default uses the real filesystem.
var Default = &Remover{
	Rename:    os.Rename,
	RemoveAll: os.RemoveAll,
	Lstat:     os.Lstat,
	Now:       time.Now,
}

func (r *Remover) scratchName(path string) string {
	return path + "_" + strconv.FormatInt(r.Now().UnixNano(), 10)
}

// Remove deletes path directly and, if that fails, renames it to a scratch
// name and deletes the renamed entry. A missing path is not an error.
func (r *Remover) Remove(path string) error {
	if _, err := r.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	directErr := r.RemoveAll(path)
	if directErr == nil {
		return nil
	}

	scratch := r.scratchName(path)
	if err := r.Rename(path, scratch); err != nil {
		return fmt.Errorf("remove %s: %w (rename fallback: %v)", path, directErr, err)
	}
	if err := r.RemoveAll(scratch); err != nil {
		return fmt.Errorf("remove renamed %s: %w", scratch, err)
	}
	return nil
}

// PurgeDir renames dir out of the way and removes it recursively. If either
// step fails, every name in fallback is removed individually with Remove,
// from the renamed directory when the rename went through and from dir
// otherwise. Failures are logged and collected, never fatal.
func (r *Remover) PurgeDir(dir string, fallback []string) []error {
	if _, err := r.Lstat(dir); errors.Is(err, os.ErrNotExist) {
		log.Print(nil).WithField("dir", dir).Debug("Session directory does not exist, nothing to purge")
		return nil
	}

	// root is wherever the artifacts live after the rename attempt
	root := dir
	scratch := r.scratchName(dir)
	err := r.Rename(dir, scratch)
	if err == nil {
		root = scratch
		err = r.RemoveAll(scratch)
		if err == nil {
			log.Print(nil).WithField("dir", dir).Info("Session directory removed")
			return nil
		}
	}
	log.Print(nil).WithField("dir", root).WithError(err).Warn("Failed to remove session directory, removing known artifacts one by one")

	failures := []error{err}
	for _, name := range fallback {
		path := filepath.Join(root, name)
		if rmErr := r.Remove(path); rmErr != nil {
			log.Print(nil).WithField("artifact", name).WithError(rmErr).Warn("Failed to remove session artifact")
			failures = append(failures, rmErr)
			continue
		}
	}
	return failures
}

// Remove deletes path with the default Remover.
func Remove(path string) error {
	return Default.Remove(path)
}

// PurgeDir purges dir with the default Remover.
func PurgeDir(dir string, fallback []string) []error {
	return Default.PurgeDir(dir, fallback)
}
