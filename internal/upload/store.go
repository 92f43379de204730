// Package upload stores request attachments on the local filesystem.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrUnsupportedFile = internal.NewValidationError("attachment must be a PNG, JPEG or PDF file", internal.ErrCodeUnsupportedFile)
	ErrFileTooLarge    = internal.NewValidationError("attachment exceeds the size limit", internal.ErrCodeFileTooLarge)
)

// allowed maps a detected MIME type to the stored extension.
var allowed = []struct {
	mime string
	ext  string
}{
	{"image/png", ".png"},
	{"image/jpeg", ".jpg"},
	{"application/pdf", ".pdf"},
}

type Store struct {
	dir      string
	maxBytes int64
	logger   *slog.Logger
}

func NewStore(cfg internal.UploadConfig, logger *slog.Logger) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "uploads"
	}
	max := cfg.MaxBytes
	if max <= 0 {
		max = 5 << 20
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir, maxBytes: max, logger: logger}, nil
}

// Save writes the attachment to <dir>/<role>/<identifier>-<request id>.<ext>
// and returns that path. Earlier attachments of other types stay on disk
// until Prune is called for the new path.
func (s *Store) Save(ctx context.Context, role, identifier string, requestID int64, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", internal.NewValidationError("failed to read attachment", internal.ErrCodeUnsupportedFile)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrFileTooLarge
	}

	ext, ok := detect(data)
	if !ok {
		return "", ErrUnsupportedFile
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	folder := filepath.Join(s.dir, Sanitize(role))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", internal.NewInternalError("failed to prepare upload folder", err)
	}
	base := fmt.Sprintf("%s-%d", Sanitize(identifier), requestID)
	dst := filepath.Join(folder, base+ext)

	tmp, err := os.CreateTemp(folder, base+"-*.tmp")
	if err != nil {
		return "", internal.NewInternalError("failed to store attachment", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return "", internal.NewInternalError("failed to store attachment", err)
	}
	if err := tmp.Close(); err != nil {
		return "", internal.NewInternalError("failed to store attachment", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", internal.NewInternalError("failed to store attachment", err)
	}
	return dst, nil
}

// Prune removes the attachments of other types stored next to keep.
func (s *Store) Prune(keep string) {
	ext := filepath.Ext(keep)
	stem := strings.TrimSuffix(keep, ext)
	for _, a := range allowed {
		if a.ext != ext {
			s.remove(stem + a.ext)
		}
	}
}

// Discard removes a file written by Save that was never recorded.
func (s *Store) Discard(path string) {
	s.remove(path)
}

func (s *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove attachment", "path", path, "error", err)
	}
}

func detect(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	for _, a := range allowed {
		if mt.Is(a.mime) {
			return a.ext, true
		}
	}
	return "", false
}

// Sanitize lower-cases s and replaces everything outside [a-z0-9_-] with '_'.
func Sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
