package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/vancomm/minefield-server/internal/config"
	"github.com/vancomm/minefield-server/internal/metrics"
	"github.com/vancomm/minefield-server/internal/middleware"
	"github.com/vancomm/minefield-server/internal/mines"
	"github.com/vancomm/minefield-server/internal/repository"
)

var ErrForbidden = errors.New("game session belongs to another player")

type GameStore interface {
	CreateGameSession(context.Context, repository.CreateGameSessionParams) (*repository.GameSession, error)
	FetchGameSession(context.Context, int64) (*repository.GameSession, error)
	UpdateGameSession(context.Context, int64, repository.UpdateGameSessionParams) (*repository.GameSession, error)
}

type GameHandler struct {
	logger *slog.Logger
	repo   GameStore
	ws     *config.WebSocket

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

func NewGameHandler(
	logger *slog.Logger,
	repo GameStore,
	ws *config.WebSocket,
	rnd *rand.Rand,
) *GameHandler {
	return &GameHandler{
		logger: logger,
		repo:   repo,
		ws:     ws,
		rnd:    rnd,
	}
}

func (g *GameHandler) withRand(fn func(r *rand.Rand) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.rnd)
}

func (g *GameHandler) Levels(w http.ResponseWriter, r *http.Request) {
	sendJSONOrLog(w, g.logger, NewLevelDTOs())
}

func (g *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseCreateNewGameDTO(r.URL.Query())
	if err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return
	}

	var game *mines.Session
	err = g.withRand(func(rnd *rand.Rand) (err error) {
		game, err = mines.NewSession(dto.Level, dto.Unique, rnd)
		return
	})
	if err != nil {
		sendError(w, g.logger, statusFor(err), err)
		return
	}

	params := repository.CreateGameSessionParams{Session: game}
	if claims, ok := middleware.PlayerClaims(r); ok {
		g.logger.Debug("creating player session", "player", claims.Username)
		params.PlayerID = &claims.PlayerID
	} else {
		g.logger.Debug("creating anonymous session")
	}

	row, err := g.repo.CreateGameSession(r.Context(), params)
	if err != nil {
		internalError(w, g.logger, "unable to create game session", err)
		return
	}
	metrics.GameStarted(game.Level)

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(row, game))
}

// load fetches a session by its path id and checks that the requester may
// play it. On failure the response has already been written.
func (g *GameHandler) load(w http.ResponseWriter, r *http.Request) (*repository.GameSession, *mines.Session, bool) {
	id, err := parseSessionID(r.PathValue("id"))
	if err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return nil, nil, false
	}

	row, err := g.repo.FetchGameSession(r.Context(), id)
	if err != nil {
		if status := statusFor(err); status != http.StatusInternalServerError {
			w.WriteHeader(status)
		} else {
			internalError(w, g.logger, "unable to fetch session from db", err)
		}
		return nil, nil, false
	}

	if row.PlayerID != nil {
		claims, ok := middleware.PlayerClaims(r)
		if !ok || claims.PlayerID != *row.PlayerID {
			sendError(w, g.logger, http.StatusForbidden, ErrForbidden)
			return nil, nil, false
		}
	}

	game, err := row.Decode()
	if err != nil {
		internalError(w, g.logger, "db returned invalid game_session.state", err)
		return nil, nil, false
	}

	return row, game, true
}

// save writes game back over row. The update only applies if row is still
// the stored version; otherwise repository.ErrStaleSession is returned.
// restarted tells whether a new game was started since row was read.
func (g *GameHandler) save(
	ctx context.Context,
	row *repository.GameSession,
	game *mines.Session,
	restarted bool,
) (*repository.GameSession, error) {
	state, err := game.Bytes()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	level, mineCount, status := game.Level, len(game.Mines), game.Status
	params := repository.UpdateGameSessionParams{
		UpdatedAt: &row.UpdatedAt,
		Level:     &level,
		MineCount: &mineCount,
		Status:    &status,
		State:     &state,
	}
	if restarted {
		params.StartedAt = &now
		params.ClearEnded = true
	}
	wasOver := row.Status != mines.Playing.String()
	if game.Over() && (restarted || !wasOver) {
		params.EndedAt = &now
	}

	return g.repo.UpdateGameSession(ctx, row.GameSessionID, params)
}

func (g *GameHandler) saveFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrStaleSession) {
		sendError(w, g.logger, http.StatusConflict, err)
		return
	}
	internalError(w, g.logger, "unable to update session in db", err)
}

func (g *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	row, game, ok := g.load(w, r)
	if !ok {
		return
	}
	sendJSONOrLog(w, g.logger, NewGameSessionDTO(row, game))
}

func (g *GameHandler) Open(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseOpenCellDTO(r.URL.Query())
	if err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return
	}

	row, game, ok := g.load(w, r)
	if !ok {
		return
	}

	outcome, err := game.Open(dto.Index)
	if err != nil {
		sendError(w, g.logger, statusFor(err), err)
		return
	}

	updated, err := g.save(r.Context(), row, game, false)
	if err != nil {
		g.saveFailed(w, err)
		return
	}
	metrics.CellOpened(game.Level)
	metrics.GameFinished(game)

	sendJSONOrLog(w, g.logger, NewMoveDTO(outcome, NewGameSessionDTO(updated, game)))
}

func (g *GameHandler) Restart(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseRestartDTO(r.URL.Query())
	if err != nil {
		sendError(w, g.logger, http.StatusBadRequest, err)
		return
	}

	row, game, ok := g.load(w, r)
	if !ok {
		return
	}

	level := dto.Level
	if level == "" {
		level = game.Level
	}
	err = g.withRand(func(rnd *rand.Rand) error {
		return game.NewGame(level, rnd)
	})
	if err != nil {
		sendError(w, g.logger, statusFor(err), err)
		return
	}

	updated, err := g.save(r.Context(), row, game, true)
	if err != nil {
		g.saveFailed(w, err)
		return
	}
	metrics.GameStarted(game.Level)

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(updated, game))
}
