package mines

import (
	"fmt"
	"math"
	"strings"
)

type Level string

const (
	Easy   Level = "easy"
	Medium Level = "medium"
	Hard   Level = "hard"
)

// Share of the board covered by mines, rounded down.
const mineDensity = 0.3

var Levels = []Level{Easy, Medium, Hard}

var ErrUnknownLevel = fmt.Errorf("unknown level")

var cellsByLevel = map[Level]int{
	Easy:   9,
	Medium: 16,
	Hard:   25,
}

var levelAliases = map[string]Level{
	"easy":    Easy,
	"facil":   Easy,
	"medium":  Medium,
	"medio":   Medium,
	"hard":    Hard,
	"dificil": Hard,
}

func ParseLevel(s string) (Level, error) {
	l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return l, nil
}

func (l Level) Valid() bool {
	_, ok := cellsByLevel[l]
	return ok
}

// CellCount returns the number of cells on the board, 0 for an invalid level.
func (l Level) CellCount() int {
	return cellsByLevel[l]
}

func (l Level) Side() int {
	return int(math.Sqrt(float64(l.CellCount())))
}

func (l Level) MineCount() int {
	return int(math.Floor(float64(l.CellCount()) * mineDensity))
}

func (l Level) InBounds(index int) bool {
	return 0 <= index && index < l.CellCount()
}

func (l Level) String() string {
	return string(l)
}

// [Level] implements [encoding.TextMarshaler]
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
