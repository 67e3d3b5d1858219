package objectstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newTestStore(t *testing.T, baseURL string) *Local {
	t.Helper()
	s, err := NewLocal(filepath.Join(t.TempDir(), "media"), baseURL)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	s.now = func() time.Time { return time.Unix(0, 1700000000000000000) }
	return s
}

func TestExtension(t *testing.T) {
	tests := []struct {
		filename, contentType, want string
	}{
		{"foto.JPG", "image/png", "jpg"},
		{"foto", "image/webp", "webp"},
		{"foto", "image/svg+xml; charset=utf-8", "svg-xml"},
		{"foto", "", "png"},
		{"", "garbage", "png"},
	}
	for _, tt := range tests {
		if got := Extension(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("Extension(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
		}
	}
}

func TestKey(t *testing.T) {
	s := newTestStore(t, "/media")

	key, err := s.Key("user-1", "Mi Foto Ñandú.png", "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if key != "user-1/1700000000000000000-mi-foto-nandu.png" {
		t.Errorf("Key() = %q", key)
	}

	if _, err := s.Key("../..", "a.png", ""); !errors.Is(err, ErrBadNamespace) {
		t.Errorf("Key() error = %v, want ErrBadNamespace", err)
	}
}

func TestUploadAndServe(t *testing.T) {
	s := newTestStore(t, "http://localhost:8080/media/")

	key, err := s.Upload(context.Background(), "user-1", "avatar.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	url, err := s.PublicURL(key)
	if err != nil || url != "http://localhost:8080/media/"+key {
		t.Fatalf("PublicURL() = %q, %v", url, err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+key, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Fatalf("serve: status %d body %q", rec.Code, rec.Body.String())
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.dir, key)); !os.IsNotExist(err) {
		t.Fatal("expected file to be removed")
	}
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	s := newTestStore(t, "/media")
	s.maxSize = 4

	_, err := s.Upload(context.Background(), "user-1", "a.png", "", strings.NewReader("12345"))
	if !errors.Is(err, ErrTooLarge) || !errors.Is(err, core.ErrUpload) {
		t.Fatalf("Upload() error = %v, want ErrTooLarge wrapped in ErrUpload", err)
	}
	entries, _ := os.ReadDir(filepath.Join(s.dir, "user-1"))
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, got %d", len(entries))
	}
}

func TestUploadCancelled(t *testing.T) {
	s := newTestStore(t, "/media")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Upload(ctx, "user-1", "a.png", "", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Upload() error = %v, want context.Canceled", err)
	}
}

func TestPublicURLWithoutBase(t *testing.T) {
	s := newTestStore(t, "")
	if _, err := s.PublicURL("user-1/a.png"); !errors.Is(err, ErrNoPublicURL) {
		t.Fatalf("PublicURL() error = %v, want ErrNoPublicURL", err)
	}
}
