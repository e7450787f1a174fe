package blob

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is a key-addressable object store.
//
// Put is atomic: after it returns nil the object is fully visible under key,
// otherwise nothing is. Stores do not retry.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

const keyTimeLayout = "2006-01-02_150405"

// NewKey returns "<prefix>/<date_HHMMSS>_<10 random chars>.<ext>" with the
// time in UTC.
func NewKey(prefix, ext string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	name := fmt.Sprintf("%s_%s.%s", now.UTC().Format(keyTimeLayout), suffix, ext)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Extension picks the extension for a stored image: the declared one, then the
// filename's, then one registered for contentType, then "bin".
func Extension(declared, filename, contentType string) string {
	if ext := cleanExt(declared); ext != "" {
		return ext
	}
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		if ext := cleanExt(filename[i:]); ext != "" {
			return ext
		}
	}
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return cleanExt(exts[0])
	}
	return "bin"
}

func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" || strings.ContainsAny(ext, `/\.`) {
		return ""
	}
	return ext
}
