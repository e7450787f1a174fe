package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/ripeness/api-go/internal/model"
)

// LocalFS stores objects as files under Root. The content type is not kept.
type LocalFS struct {
	Root string
}

func (l LocalFS) Put(ctx context.Context, relPath string, r io.Reader, _ string) (string, error) {
	clean, abs, err := l.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	// CreateTemp opens with 0600; stored images must stay readable to other processes.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", fmt.Errorf("blob put %s: %w", clean, err)
	}
	return filepath.ToSlash(clean), nil
}

func (l LocalFS) Exists(_ context.Context, relPath string) (bool, error) {
	clean, abs, err := l.resolve(relPath)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("blob stat %s: %w", clean, err)
}

func (l LocalFS) Delete(_ context.Context, relPath string) error {
	clean, abs, err := l.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("blob delete %s: %w", clean, model.ErrNotFound)
		}
		return fmt.Errorf("blob delete %s: %w", clean, err)
	}
	return nil
}

func (l LocalFS) resolve(relPath string) (string, string, error) {
	clean := filepath.Clean(relPath)
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("blob: invalid key %q", relPath)
	}
	return clean, filepath.Join(l.Root, clean), nil
}
