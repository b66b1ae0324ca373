package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/minefield-server/internal/config"
	"github.com/vancomm/minefield-server/internal/middleware"
	"github.com/vancomm/minefield-server/internal/repository"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordLen = 72

var passwordCost = bcrypt.DefaultCost

// dummyHash is compared against when the username is unknown.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("minefield"), passwordCost)
	if err != nil {
		panic(err)
	}
	return hash
})

var (
	ErrBadAuthBody        = errors.New("request body must contain url-encoded username and password")
	ErrBadPasswordTooLong = errors.New("password too long")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type PlayerStore interface {
	CreatePlayer(context.Context, repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(context.Context, string) (*repository.Player, error)
}

type Auth struct {
	logger  *slog.Logger
	repo    PlayerStore
	cookies *config.Cookies
}

func NewAuth(logger *slog.Logger, repo PlayerStore, cookies *config.Cookies) *Auth {
	return &Auth{
		logger:  logger,
		repo:    repo,
		cookies: cookies,
	}
}

type PlayerInfo struct {
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

func (a *Auth) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.logger, Status{LoggedIn: false})
		return
	}

	a.logger.Debug("refresh cookies", "player", claims.Username)
	if err := a.cookies.Refresh(w, config.NewPlayerClaims(claims.PlayerID, claims.Username)); err != nil {
		internalError(w, a.logger, "unable to refresh cookies", err)
		return
	}

	sendJSONOrLog(w, a.logger, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{claims.PlayerID, claims.Username},
	})
}

func parseCredentials(r *http.Request) (username, password string, err error) {
	if err := r.ParseForm(); err != nil {
		return "", "", ErrBadAuthBody
	}
	username = r.FormValue("username")
	password = r.FormValue("password")
	if username == "" || password == "" {
		return "", "", ErrBadAuthBody
	}
	if len(password) > maxPasswordLen {
		return "", "", ErrBadPasswordTooLong
	}
	return username, password, nil
}

func (a *Auth) login(w http.ResponseWriter, player *repository.Player) {
	claims := config.NewPlayerClaims(player.PlayerID, player.Username)
	if err := a.cookies.Refresh(w, claims); err != nil {
		internalError(w, a.logger, "unable to create a jwt token", err)
		return
	}
	sendJSONOrLog(w, a.logger, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{player.PlayerID, player.Username},
	})
}

func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	username, password, err := parseCredentials(r)
	if err != nil {
		sendError(w, a.logger, http.StatusBadRequest, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		internalError(w, a.logger, "unable to hash password", err)
		return
	}

	player, err := a.repo.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		sendError(w, a.logger, http.StatusConflict, ErrUsernameTaken)
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to insert player", err)
		return
	}

	a.logger.Info("player registered", "player", player.Username)
	a.login(w, player)
}

func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	username, password, err := parseCredentials(r)
	if err != nil {
		sendError(w, a.logger, http.StatusBadRequest, err)
		return
	}

	player, err := a.repo.FetchPlayer(r.Context(), username)
	if errors.Is(err, pgx.ErrNoRows) {
		// burn the same time as a real comparison
		bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		sendError(w, a.logger, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to fetch player", err)
		return
	}

	err = bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(password))
	if err != nil {
		sendError(w, a.logger, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}

	a.login(w, player)
}

func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	sendJSONOrLog(w, a.logger, Status{LoggedIn: false})
}
