package app

import (
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minefield-server/internal/config"
	"github.com/vancomm/minefield-server/internal/repository"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	a := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.cookies = config.NewCookiesWith(
		config.NewJWTFromKeys(key, &key.PublicKey, time.Hour),
		"", false, http.SameSiteLaxMode,
	)
	a.ws, err = config.NewWebSocket()
	require.NoError(t, err)
	a.loadRoutes(repository.New(nil))
	return a
}

func TestRoutes(t *testing.T) {
	h := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/levels", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "minefield_")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/levels", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBasePath(t *testing.T) {
	t.Setenv("APP_BASE_PATH", "/api/")
	h := newTestApp(t).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/levels", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/levels", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
