package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const releaseFile = `Origin: Debian
Label: Debian
Suite: stable
Version: 13.1
Codename: trixie
Date: Sat, 22 Aug 2026 10:00:00 UTC
Architectures: amd64 arm64
`

func newTestResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewResolver(srv.URL, "jessie", 5*time.Second, nil)
}

func TestStableCodename(t *testing.T) {
	t.Run("parses codename field", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(releaseFile))
		})
		assert.Equal(t, "trixie", r.StableCodename(context.Background()))
	})

	t.Run("falls back on server error", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		assert.Equal(t, "jessie", r.StableCodename(context.Background()))
	})

	t.Run("falls back when field is missing", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("Origin: Debian\nSuite: stable\n"))
		})
		assert.Equal(t, "jessie", r.StableCodename(context.Background()))
	})

	t.Run("falls back when field is empty", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte("Codename:   \n"))
		})
		assert.Equal(t, "jessie", r.StableCodename(context.Background()))
	})

	t.Run("falls back when unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		r := NewResolver(srv.URL, "jessie", time.Second, nil)
		assert.Equal(t, "jessie", r.StableCodename(context.Background()))
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		r := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(releaseFile))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, "jessie", r.StableCodename(ctx))
	})
}
