package mines

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

var Log *slog.Logger = slog.Default()

type Status int8

const (
	Playing Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("Status(%d)", int8(s))
	}
}

// [Status] implements [encoding.TextMarshaler]
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "playing":
		*s = Playing
	case "won":
		*s = Won
	case "lost":
		*s = Lost
	default:
		return fmt.Errorf("invalid status %q", text)
	}
	return nil
}

// Outcome is the result of opening a cell: either a mine or the adjacent
// mine count to display.
type Outcome struct {
	Mine  bool `json:"mine"`
	Count int  `json:"count"`
}

// MarshalJSON leaves out the count when a mine was hit.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Mine {
		return []byte(`{"mine":true}`), nil
	}
	return json.Marshal(struct {
		Mine  bool `json:"mine"`
		Count int  `json:"count"`
	}{false, o.Count})
}

// Session holds the state of one player's game: the board, its mines and the
// cells revealed so far.
type Session struct {
	Level    Level
	Unique   bool
	Mines    MineSet
	Opened   []int
	Status   Status
	Exploded int /* index of the mine that ended the game, -1 if none */
}

func NewSession(level Level, unique bool, r *rand.Rand) (*Session, error) {
	s := &Session{Unique: unique}
	if err := s.NewGame(level, r); err != nil {
		return nil, err
	}
	return s, nil
}

// NewGame discards the current game and starts over on level with a freshly
// generated mine set.
func (s *Session) NewGame(level Level, r *rand.Rand) error {
	if !level.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	s.Level = level
	if s.Unique {
		s.Mines = GenerateUniqueMines(level, r)
	} else {
		s.Mines = GenerateMines(level, r)
	}
	s.Opened = make([]int, 0, level.CellCount())
	s.Status = Playing
	s.Exploded = -1
	Log.Debug("new game", "level", level, "mines", s.Mines, "unique", s.Unique)
	return nil
}

func (s *Session) Over() bool {
	return s.Status != Playing
}

func (s *Session) IsOpened(index int) bool {
	for _, i := range s.Opened {
		if i == index {
			return true
		}
	}
	return false
}

func (s *Session) Open(index int) (Outcome, error) {
	if !s.Level.InBounds(index) {
		return Outcome{}, ErrOutOfRange
	}
	if s.Over() {
		return Outcome{}, ErrGameOver
	}
	if s.IsOpened(index) {
		return Outcome{}, ErrAlreadyOpened
	}

	if s.Mines.Contains(index) {
		s.Status = Lost
		s.Exploded = index
		Log.Debug("mine hit", "level", s.Level, "index", index)
		return Outcome{Mine: true}, nil
	}

	count := CountAdjacentMines(index, s.Level, s.Mines)
	s.Opened = append(s.Opened, index)

	if CheckWin(len(s.Opened), s.Level, s.Mines) {
		s.Status = Won
		Log.Debug("game won", "level", s.Level, "opened", len(s.Opened))
	}

	return Outcome{Count: count}, nil
}

// PlayerGrid renders what the player is allowed to see. Mines stay hidden
// until the game is over.
func (s *Session) PlayerGrid() Grid {
	grid := make(Grid, s.Level.CellCount())
	for i := range grid {
		grid[i] = Hidden
	}
	for _, i := range s.Opened {
		grid[i] = CellState(CountAdjacentMines(i, s.Level, s.Mines))
	}
	if s.Over() {
		for _, i := range s.Mines {
			grid[i] = Mine
		}
		if s.Exploded >= 0 {
			grid[s.Exploded] = ExplodedMine
		}
	}
	return grid
}

func DecodeSession(buf []byte) (*Session, error) {
	var s Session
	err := gob.NewDecoder(bytes.NewBuffer(buf)).Decode(&s)
	if err != nil {
		return nil, err
	}
	if !s.Level.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, s.Level)
	}
	return &s, nil
}

func (s Session) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(s)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
