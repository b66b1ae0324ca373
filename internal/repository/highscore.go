package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vancomm/minefield-server/internal/mines"
)

const highscoreLimit = 50

type Highscore struct {
	GameSessionID int64   `json:"game_session_id" db:"game_session_id"`
	Username      *string `json:"username" db:"username"`
	Level         string  `json:"level" db:"level"`
	MineCount     int32   `json:"mine_count" db:"mine_count"`
	Unique        bool    `json:"unique" db:"unique"`
	PlaytimeMs    float64 `json:"playtime_ms" db:"playtime_ms"`
}

type HighscoreFilter struct {
	Username *string
	Level    *mines.Level
}

func (f HighscoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Username != nil {
		clauses = append(clauses, "username = @username")
		args["username"] = *f.Username
	}
	if f.Level != nil {
		clauses = append(clauses, "level = @level")
		args["level"] = f.Level.String()
	}
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	query := `
	SELECT
		game_session_id,
		username,
		level,
		mine_count,
		"unique",
		(
			extract('epoch' from ended_at) -
			extract('epoch' from started_at)
		) * 1000 playtime_ms
	FROM game_session
		LEFT OUTER JOIN player using (player_id)
	WHERE
		status = 'won'
		AND ended_at IS NOT NULL
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}

	query += " ORDER BY playtime_ms LIMIT @limit;"
	args["limit"] = highscoreLimit

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Highscore])
}
