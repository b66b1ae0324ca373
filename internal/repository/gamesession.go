package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vancomm/minefield-server/internal/mines"
)

const gameSessionColumns = `game_session_id, player_id, level, mine_count,
	"unique", status, state, started_at, ended_at, created_at, updated_at`

type GameSession struct {
	GameSessionID int64      `db:"game_session_id"`
	PlayerID      *int64     `db:"player_id"`
	Level         string     `db:"level"`
	MineCount     int32      `db:"mine_count"`
	Unique        bool       `db:"unique"`
	Status        string     `db:"status"`
	State         []byte     `db:"state"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (g GameSession) Decode() (*mines.Session, error) {
	return mines.DecodeSession(g.State)
}

type CreateGameSessionParams struct {
	PlayerID *int64
	Session  *mines.Session
}

func (q *Queries) CreateGameSession(
	ctx context.Context, params CreateGameSessionParams,
) (*GameSession, error) {
	state, err := params.Session.Bytes()
	if err != nil {
		return nil, err
	}

	args := pgx.NamedArgs{
		"player_id":  params.PlayerID,
		"level":      params.Session.Level.String(),
		"mine_count": len(params.Session.Mines),
		"unique":     params.Session.Unique,
		"status":     params.Session.Status.String(),
		"state":      state,
	}

	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO game_session (
			player_id, level, mine_count, "unique", status, state
		)
		VALUES (
			@player_id, @level, @mine_count, @unique, @status, @state
		)
		RETURNING `+gameSessionColumns,
		args,
	)
	return pgx.CollectExactlyOneRow(
		rows, pgx.RowToAddrOfStructByName[GameSession],
	)
}

func (q *Queries) FetchGameSession(ctx context.Context, gameSessionID int64) (*GameSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT "+gameSessionColumns+" FROM game_session WHERE game_session_id = $1",
		gameSessionID,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
}

// ErrStaleSession is returned by UpdateGameSession when the row changed
// since the caller read it.
var ErrStaleSession = errors.New("game session was modified by another request")

type UpdateGameSessionParams struct {
	// UpdatedAt, when set, must match the stored updated_at for the update
	// to apply.
	UpdatedAt  *time.Time
	Level      *mines.Level
	MineCount  *int
	Status     *mines.Status
	State      *[]byte
	StartedAt  *time.Time
	EndedAt    *time.Time
	ClearEnded bool
}

// SetClause builds the SET list for the fields present in p. updated_at is
// always touched.
func (p UpdateGameSessionParams) SetClause() (string, pgx.NamedArgs) {
	parts := make([]string, 0)
	args := pgx.NamedArgs{}

	if p.Level != nil {
		parts = append(parts, "level = @level")
		args["level"] = p.Level.String()
	}
	if p.MineCount != nil {
		parts = append(parts, "mine_count = @mine_count")
		args["mine_count"] = *p.MineCount
	}
	if p.Status != nil {
		parts = append(parts, "status = @status")
		args["status"] = p.Status.String()
	}
	if p.State != nil {
		parts = append(parts, "state = @state")
		args["state"] = *p.State
	}
	if p.StartedAt != nil {
		parts = append(parts, "started_at = @started_at")
		args["started_at"] = *p.StartedAt
	}
	if p.EndedAt != nil {
		parts = append(parts, "ended_at = @ended_at")
		args["ended_at"] = *p.EndedAt
	} else if p.ClearEnded {
		parts = append(parts, "ended_at = NULL")
	}
	parts = append(parts, "updated_at = now()")

	return strings.Join(parts, ", "), args
}

// WhereClause matches the session row, and only its unchanged version when
// UpdatedAt is set.
func (p UpdateGameSessionParams) WhereClause(gameSessionID int64, args pgx.NamedArgs) string {
	args["game_session_id"] = gameSessionID
	if p.UpdatedAt == nil {
		return "game_session_id = @game_session_id"
	}
	args["prev_updated_at"] = *p.UpdatedAt
	return "game_session_id = @game_session_id AND updated_at = @prev_updated_at"
}

func (q *Queries) UpdateGameSession(
	ctx context.Context, gameSessionID int64, params UpdateGameSessionParams,
) (*GameSession, error) {
	setClause, args := params.SetClause()
	whereClause := params.WhereClause(gameSessionID, args)
	rows, _ := q.db.Query(
		ctx,
		"UPDATE game_session SET "+setClause+
			" WHERE "+whereClause+" RETURNING "+gameSessionColumns,
		args,
	)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
	if errors.Is(err, pgx.ErrNoRows) && params.UpdatedAt != nil {
		return nil, ErrStaleSession
	}
	return row, err
}
