package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vancomm/minefield-server/internal/command"
	"github.com/vancomm/minefield-server/internal/metrics"
	"github.com/vancomm/minefield-server/internal/mines"
	"github.com/vancomm/minefield-server/internal/repository"
)

type wsReply struct {
	Outcome *mines.Outcome  `json:"outcome,omitempty"`
	Error   string          `json:"error,omitempty"`
	Session *GameSessionDTO `json:"session"`
}

// forkRand returns a generator seeded from the shared one, for use by a
// single goroutine.
func (g *GameHandler) forkRand() *rand.Rand {
	g.mu.Lock()
	defer g.mu.Unlock()
	return rand.New(rand.NewPCG(g.rnd.Uint64(), g.rnd.Uint64()))
}

func (g *GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	row, _, ok := g.load(w, r)
	if !ok {
		return
	}

	conn, err := g.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		g.logger.Error("unable to upgrade", slog.Any("error", err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(g.ws.ReadLimit)

	g.logger.Debug("established WS connection", slog.Int64("session", row.GameSessionID))

	err = g.runGameLoop(r.Context(), conn, row.GameSessionID, g.forkRand())
	if err != nil && websocket.IsUnexpectedCloseError(
		err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
	) {
		g.logger.Warn("error in ws loop", slog.Any("error", err))
	}
}

// current reads the stored version of the session.
func (g *GameHandler) current(ctx context.Context, id int64) (*repository.GameSession, *mines.Session, error) {
	row, err := g.repo.FetchGameSession(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to fetch session from db: %w", err)
	}
	game, err := row.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("db returned invalid game_session.state: %w", err)
	}
	return row, game, nil
}

// runGameLoop executes each text message as a batch of commands against the
// stored session and answers with the resulting view. The session is read
// again for every message so changes made over HTTP are not overwritten.
// Command errors are reported to the client; storage and connection errors
// end the loop.
func (g *GameHandler) runGameLoop(
	ctx context.Context,
	conn *websocket.Conn,
	id int64,
	rnd *rand.Rand,
) error {
	for {
		if g.ws.IdleTime > 0 {
			conn.SetReadDeadline(time.Now().Add(g.ws.IdleTime))
		}
		mt, buf, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		row, game, err := g.current(ctx, id)
		if err != nil {
			return err
		}

		reply := wsReply{}
		if mt != websocket.TextMessage {
			reply.Error = "only text messages are supported"
			reply.Session = NewGameSessionDTO(row, game)
			if err := conn.WriteJSON(reply); err != nil {
				return fmt.Errorf("unable to write json: %w", err)
			}
			continue
		}

		exec := command.Executor{Session: game, Rand: rnd}
		results, execErr := exec.Run(string(buf))

		changed, restarted := false, false
		for _, res := range results {
			if res.Outcome != nil {
				changed = true
				reply.Outcome = res.Outcome
			}
			if res.Started {
				changed, restarted = true, true
			}
		}
		if execErr != nil {
			reply.Error = execErr.Error()
		}

		if changed {
			updated, err := g.save(ctx, row, game, restarted)
			switch {
			case errors.Is(err, repository.ErrStaleSession):
				reply.Outcome = nil
				reply.Error = err.Error()
				if row, game, err = g.current(ctx, id); err != nil {
					return err
				}
			case err != nil:
				return fmt.Errorf("unable to update session in db: %w", err)
			default:
				row = updated
				recordResults(results)
			}
		}

		reply.Session = NewGameSessionDTO(row, game)
		if err := conn.WriteJSON(reply); err != nil {
			return fmt.Errorf("unable to write json: %w", err)
		}
	}
}

func recordResults(results []command.Result) {
	for _, res := range results {
		if res.Outcome != nil {
			metrics.CellOpened(res.Level)
		}
		if res.Started {
			metrics.GameStarted(res.Level)
		}
		metrics.GameEnded(res.Level, res.Ended)
	}
}
