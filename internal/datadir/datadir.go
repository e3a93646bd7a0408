// Package datadir prepares the on-disk layout the server expects before it
// starts accepting requests: data and upload directories, default documents
// restored from a seed directory, a one-time rename of the legacy content
// file, and empty documents for anything still missing.
package datadir

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/edugate/sitecms/pkg/logger"
)

// Layout names every path Prepare touches.
type Layout struct {
	DataDir     string
	DefaultsDir string
	UploadDir   string
	// ContentFile and NavbarFile are file names inside DataDir.
	ContentFile string
	NavbarFile  string
	// LegacyContentFile, when present and ContentFile is not, is renamed to
	// ContentFile. Empty disables the rename.
	LegacyContentFile string
}

// Report lists what Prepare changed; useful for logs and tests.
type Report struct {
	Restored []string
	Migrated bool
	Created  []string
}

// Prepare creates missing directories and files. Only directory creation is
// fatal; seeding and migration failures are logged and skipped.
func Prepare(l Layout) (*Report, error) {
	rep := &Report{}
	for _, dir := range []string{l.DataDir, l.UploadDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	restored, err := restoreDefaults(l.DefaultsDir, l.DataDir)
	if err != nil {
		logger.Errorf("[self-healing] %v", err)
	}
	rep.Restored = restored

	contentPath := filepath.Join(l.DataDir, l.ContentFile)
	if l.LegacyContentFile != "" && l.LegacyContentFile != l.ContentFile {
		legacy := filepath.Join(l.DataDir, l.LegacyContentFile)
		if exists(legacy) && !exists(contentPath) {
			if err := os.Rename(legacy, contentPath); err != nil {
				logger.Errorf("[migration] %s -> %s failed: %v", l.LegacyContentFile, l.ContentFile, err)
			} else {
				rep.Migrated = true
				logger.Infof("[migration] %s -> %s", l.LegacyContentFile, l.ContentFile)
			}
		}
	}

	for _, name := range []string{l.ContentFile, l.NavbarFile} {
		if name == "" {
			continue
		}
		p := filepath.Join(l.DataDir, name)
		if exists(p) {
			continue
		}
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			return rep, fmt.Errorf("create %s: %w", p, err)
		}
		rep.Created = append(rep.Created, name)
	}
	return rep, nil
}

// restoreDefaults copies every regular file of src that dst lacks.
func restoreDefaults(src, dst string) ([]string, error) {
	if src == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read defaults %s: %w", src, err)
	}
	var restored []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		target := filepath.Join(dst, e.Name())
		if exists(target) {
			continue
		}
		if err := copyFile(filepath.Join(src, e.Name()), target); err != nil {
			logger.Errorf("[self-healing] restore %s: %v", e.Name(), err)
			continue
		}
		logger.Infof("[self-healing] restored: %s", e.Name())
		restored = append(restored, e.Name())
	}
	return restored, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
