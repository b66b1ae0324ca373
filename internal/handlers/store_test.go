package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vancomm/minefield-server/internal/mines"
	"github.com/vancomm/minefield-server/internal/repository"
)

// memStore is an in-memory stand-in for the postgres repository.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	sessions   map[int64]repository.GameSession
	players    map[string]repository.Player
	highscores []repository.Highscore
	lastFilter repository.HighscoreFilter

	// beforeUpdate, if set, runs against the stored row before an update
	// is checked and applied.
	beforeUpdate func(row *repository.GameSession)
}

// tick returns a timestamp strictly after prev.
func tick(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[int64]repository.GameSession),
		players:  make(map[string]repository.Player),
	}
}

func (m *memStore) CreateGameSession(
	ctx context.Context, params repository.CreateGameSessionParams,
) (*repository.GameSession, error) {
	state, err := params.Session.Bytes()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	now := time.Now().UTC()
	row := repository.GameSession{
		GameSessionID: m.nextID,
		PlayerID:      params.PlayerID,
		Level:         params.Session.Level.String(),
		MineCount:     int32(len(params.Session.Mines)),
		Unique:        params.Session.Unique,
		Status:        params.Session.Status.String(),
		State:         state,
		StartedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.sessions[row.GameSessionID] = row
	return &row, nil
}

func (m *memStore) FetchGameSession(ctx context.Context, id int64) (*repository.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (m *memStore) UpdateGameSession(
	ctx context.Context, id int64, p repository.UpdateGameSessionParams,
) (*repository.GameSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(&row)
		m.sessions[id] = row
	}
	if p.UpdatedAt != nil && !p.UpdatedAt.Equal(row.UpdatedAt) {
		return nil, repository.ErrStaleSession
	}
	if p.Level != nil {
		row.Level = p.Level.String()
	}
	if p.MineCount != nil {
		row.MineCount = int32(*p.MineCount)
	}
	if p.Status != nil {
		row.Status = p.Status.String()
	}
	if p.State != nil {
		row.State = *p.State
	}
	if p.StartedAt != nil {
		row.StartedAt = *p.StartedAt
	}
	if p.EndedAt != nil {
		ended := *p.EndedAt
		row.EndedAt = &ended
	} else if p.ClearEnded {
		row.EndedAt = nil
	}
	row.UpdatedAt = tick(row.UpdatedAt)
	m.sessions[id] = row
	return &row, nil
}

func (m *memStore) CreatePlayer(
	ctx context.Context, params repository.CreatePlayerParams,
) (*repository.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[params.Username]; ok {
		return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	}
	m.nextID++
	p := repository.Player{
		PlayerID:     m.nextID,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
	}
	m.players[p.Username] = p
	return &p, nil
}

func (m *memStore) FetchPlayer(ctx context.Context, username string) (*repository.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (m *memStore) GetHighscores(
	ctx context.Context, filter repository.HighscoreFilter,
) ([]repository.Highscore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	return m.highscores, nil
}

// seed stores a session with known mines and returns its id.
func (m *memStore) seed(s *mines.Session, playerID *int64) int64 {
	row, err := m.CreateGameSession(context.Background(), repository.CreateGameSessionParams{
		PlayerID: playerID,
		Session:  s,
	})
	if err != nil {
		panic(err)
	}
	return row.GameSessionID
}

func (m *memStore) session(id int64) (repository.GameSession, *mines.Session) {
	m.mu.Lock()
	row := m.sessions[id]
	m.mu.Unlock()
	s, err := row.Decode()
	if err != nil {
		panic(err)
	}
	return row, s
}
