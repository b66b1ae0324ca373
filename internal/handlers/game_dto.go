package handlers

import (
	"fmt"
	"strconv"

	"github.com/vancomm/minefield-server/internal/mines"
	"github.com/vancomm/minefield-server/internal/repository"
)

type CreateNewGameDTO struct {
	Level  mines.Level `schema:"level,required"`
	Unique bool        `schema:"unique"`
}

func ParseCreateNewGameDTO(src map[string][]string) (CreateNewGameDTO, error) {
	var dto CreateNewGameDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type OpenCellDTO struct {
	Index int `schema:"index,required"`
}

func ParseOpenCellDTO(src map[string][]string) (OpenCellDTO, error) {
	var dto OpenCellDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type RestartDTO struct {
	Level mines.Level `schema:"level"`
}

func ParseRestartDTO(src map[string][]string) (RestartDTO, error) {
	var dto RestartDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type HighscoresDTO struct {
	Level    mines.Level `schema:"level"`
	Username string      `schema:"username"`
}

func ParseHighscoresDTO(src map[string][]string) (HighscoresDTO, error) {
	var dto HighscoresDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type GameSessionDTO struct {
	GameSessionID string       `json:"game_session_id"`
	Level         mines.Level  `json:"level"`
	Side          int          `json:"side"`
	MineCount     int          `json:"mine_count"`
	Unique        bool         `json:"unique"`
	Status        mines.Status `json:"status"`
	Grid          mines.Grid   `json:"grid"`
	Opened        int          `json:"opened"`
	StartedAt     int64        `json:"started_at"`
	EndedAt       *int64       `json:"ended_at,omitempty"`
}

func NewGameSessionDTO(row *repository.GameSession, g *mines.Session) *GameSessionDTO {
	var endedAt *int64
	if row.EndedAt != nil {
		e := row.EndedAt.UnixMilli()
		endedAt = &e
	}
	return &GameSessionDTO{
		GameSessionID: strconv.FormatInt(row.GameSessionID, 10),
		Level:         g.Level,
		Side:          g.Level.Side(),
		MineCount:     len(g.Mines),
		Unique:        g.Unique,
		Status:        g.Status,
		Grid:          g.PlayerGrid(),
		Opened:        len(g.Opened),
		StartedAt:     row.StartedAt.UnixMilli(),
		EndedAt:       endedAt,
	}
}

// MoveDTO carries either the mine flag or, for a safe cell, its count.
type MoveDTO struct {
	Mine    bool            `json:"mine"`
	Count   *int            `json:"count,omitempty"`
	Session *GameSessionDTO `json:"session"`
}

func NewMoveDTO(o mines.Outcome, session *GameSessionDTO) MoveDTO {
	dto := MoveDTO{Mine: o.Mine, Session: session}
	if !o.Mine {
		count := o.Count
		dto.Count = &count
	}
	return dto
}

type LevelDTO struct {
	Level mines.Level `json:"level"`
	Cells int         `json:"cells"`
	Side  int         `json:"side"`
	Mines int         `json:"mines"`
}

func NewLevelDTOs() []LevelDTO {
	levels := make([]LevelDTO, 0, len(mines.Levels))
	for _, l := range mines.Levels {
		levels = append(levels, LevelDTO{
			Level: l,
			Cells: l.CellCount(),
			Side:  l.Side(),
			Mines: l.MineCount(),
		})
	}
	return levels
}

func parseSessionID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid game session id %q", s)
	}
	return id, nil
}
