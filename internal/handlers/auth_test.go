package handlers

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minefield-server/internal/config"
	"github.com/vancomm/minefield-server/internal/middleware"
	"github.com/vancomm/minefield-server/internal/mines"
	"github.com/vancomm/minefield-server/internal/repository"
)

func init() {
	passwordCost = bcrypt.MinCost
}

func newTestAuth(t *testing.T, store *memStore) (*config.Cookies, http.Handler) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cookies := config.NewCookiesWith(
		config.NewJWTFromKeys(key, &key.PublicKey, time.Hour),
		"localhost", false, http.SameSiteLaxMode,
	)
	auth := NewAuth(discard, store, cookies)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("GET /auth/status", auth.Status)
	return cookies, middleware.Auth(discard, cookies)(mux)
}

func postForm(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	_, h := newTestAuth(t, store)

	rec := postForm(h, "/auth/register", credentials("alice", "hunter2"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[Status](t, rec)
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "alice", status.Player.Username)
	assert.Len(t, rec.Result().Cookies(), 2)

	rec = postForm(h, "/auth/register", credentials("alice", "other"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postForm(h, "/auth/login", credentials("alice", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postForm(h, "/auth/login", credentials("nobody", "hunter2"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postForm(h, "/auth/login", credentials("alice", "hunter2"))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	status = decode[Status](t, rec)
	assert.True(t, status.LoggedIn)
	assert.Equal(t, store.players["alice"].PlayerID, status.Player.PlayerID)
}

func TestLoginUnknownUserStillHashes(t *testing.T) {
	_, h := newTestAuth(t, newMemStore())

	rec := postForm(h, "/auth/login", credentials("ghost", "hunter2"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"`+ErrInvalidCredentials.Error()+`"}`, rec.Body.String())

	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, passwordCost, cost)
}

func TestRegisterValidatesBody(t *testing.T) {
	_, h := newTestAuth(t, newMemStore())

	assert.Equal(t, http.StatusBadRequest,
		postForm(h, "/auth/register", url.Values{"username": {"bob"}}).Code)
	assert.Equal(t, http.StatusBadRequest,
		postForm(h, "/auth/register", credentials("bob", strings.Repeat("x", 73))).Code)
}

func TestStatusAnonymous(t *testing.T) {
	_, h := newTestAuth(t, newMemStore())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[Status](t, rec).LoggedIn)

	rec = postForm(h, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestLoggedInPlayerOwnsNewGame(t *testing.T) {
	store := newMemStore()
	cookies, _ := newTestAuth(t, store)
	_, mux := newTestGameHandler(store)
	h := middleware.Auth(discard, cookies)(mux)

	login := httptest.NewRecorder()
	require.NoError(t, cookies.Refresh(login, config.NewPlayerClaims(7, "carol")))
	withCookies := func(req *http.Request) *http.Request {
		for _, c := range login.Result().Cookies() {
			req.AddCookie(c)
		}
		return req
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodPost, "/game?level=easy", nil)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decode[GameSessionDTO](t, rec).GameSessionID

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/game/"+id, nil)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game/"+id, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHighscores(t *testing.T) {
	store := newMemStore()
	name := "alice"
	store.highscores = []repository.Highscore{
		{GameSessionID: 3, Username: &name, Level: "easy", MineCount: 2, PlaytimeMs: 1500},
	}
	hs := NewHighscores(discard, store)

	rec := httptest.NewRecorder()
	hs.List(rec, httptest.NewRequest(http.MethodGet, "/highscores?level=facil&username=alice", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	scores := decode[[]repository.Highscore](t, rec)
	require.Len(t, scores, 1)
	assert.Equal(t, 1500.0, scores[0].PlaytimeMs)

	require.NotNil(t, store.lastFilter.Level)
	assert.Equal(t, mines.Easy, *store.lastFilter.Level)
	require.NotNil(t, store.lastFilter.Username)
	assert.Equal(t, "alice", *store.lastFilter.Username)

	store.highscores = nil
	rec = httptest.NewRecorder()
	hs.List(rec, httptest.NewRequest(http.MethodGet, "/highscores", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	assert.Nil(t, store.lastFilter.Level)

	rec = httptest.NewRecorder()
	hs.List(rec, httptest.NewRequest(http.MethodGet, "/highscores?level=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
