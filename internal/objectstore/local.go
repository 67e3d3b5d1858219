// Package objectstore stores uploaded files (avatars) under per-user
// namespaces and hands out their public URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"fintrack/internal/core"
)

const (
	DefaultMaxSize   = 5 << 20
	defaultExtension = "png"
	defaultBaseName  = "avatar"
)

var (
	ErrTooLarge     = errors.New("file too large")
	ErrBadNamespace = errors.New("invalid namespace")
	ErrNoPublicURL  = errors.New("public url unavailable")
)

// Local keeps objects on the local filesystem and serves them from baseURL.
type Local struct {
	dir     string
	baseURL string
	maxSize int64
	now     func() time.Time
}

func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: DefaultMaxSize,
		now:     time.Now,
	}, nil
}

// Key builds "<namespace>/<unix-nanos>-<name>.<ext>".
func (s *Local) Key(namespace, filename, contentType string) (string, error) {
	ns := slug.Make(namespace)
	if ns == "" {
		return "", ErrBadNamespace
	}
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = defaultBaseName
	}
	return path.Join(ns, fmt.Sprintf("%d-%s.%s", s.now().UnixNano(), base, Extension(filename, contentType))), nil
}

// Extension picks the file extension from the filename, then the MIME
// subtype, then falls back to png.
func Extension(filename, contentType string) string {
	if ext := slug.Make(strings.TrimPrefix(filepath.Ext(filename), ".")); ext != "" {
		return ext
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, sub, ok := strings.Cut(mediaType, "/"); ok {
			if ext := slug.Make(sub); ext != "" {
				return ext
			}
		}
	}
	return defaultExtension
}

// Upload writes r under a fresh key and returns the key.
func (s *Local) Upload(ctx context.Context, namespace, filename, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrUpload, err)
	}
	key, err := s.Key(namespace, filename, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrUpload, err)
	}

	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("%w: create namespace dir: %w", core.ErrUpload, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create file: %w", core.ErrUpload, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxSize+1))
	closeErr := tmp.Close()
	switch {
	case err != nil:
		return "", fmt.Errorf("%w: failed to write file: %w", core.ErrUpload, err)
	case closeErr != nil:
		return "", fmt.Errorf("%w: failed to write file: %w", core.ErrUpload, closeErr)
	case n > s.maxSize:
		return "", fmt.Errorf("%w: %w", core.ErrUpload, ErrTooLarge)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("%w: store file: %w", core.ErrUpload, err)
	}
	return key, nil
}

func (s *Local) PublicURL(key string) (string, error) {
	if key == "" || s.baseURL == "" {
		return "", ErrNoPublicURL
	}
	return s.baseURL + "/" + key, nil
}

func (s *Local) Delete(key string) error {
	return os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
}

// Handler serves stored objects; mount it under the base URL path.
func (s *Local) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}
