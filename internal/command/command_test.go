package command

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minefield-server/internal/mines"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"g", Command{Kind: Noop}},
		{"o 4", Command{Kind: Open, Index: 4}},
		{"  O   12 ", Command{Kind: Open, Index: 12}},
		{"n", Command{Kind: NewGame}},
		{"n dificil", Command{Kind: NewGame, Level: mines.Hard}},
	}
	for _, test := range tests {
		got, err := Parse(test.line)
		require.NoError(t, err, test.line)
		assert.Equal(t, test.want, got, test.line)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		err  error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"x 1", ErrUnknownCommand},
		{"o", ErrInvalidArgs},
		{"o one", ErrInvalidArgs},
		{"o 1 2", ErrInvalidArgs},
		{"g 1", ErrInvalidArgs},
		{"n extreme", ErrInvalidArgs},
	}
	for _, test := range tests {
		_, err := Parse(test.line)
		assert.ErrorIs(t, err, test.err, test.line)
	}

	_, err := Parse("n extreme")
	assert.ErrorIs(t, err, mines.ErrUnknownLevel)
}

func newExecutor() Executor {
	return Executor{
		Session: &mines.Session{
			Level:    mines.Easy,
			Mines:    mines.MineSet{0, 8},
			Opened:   []int{},
			Exploded: -1,
		},
		Rand: rand.New(rand.NewPCG(1, 2)),
	}
}

func TestRun(t *testing.T) {
	e := newExecutor()

	results, err := e.Run("o 4\n\no 2\ng\n")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, &mines.Outcome{Count: 2}, results[0].Outcome)
	assert.Equal(t, &mines.Outcome{Count: 0}, results[1].Outcome)
	assert.Nil(t, results[2].Outcome)
	assert.Equal(t, mines.Playing, results[0].Ended)
	assert.Equal(t, []int{4, 2}, e.Session.Opened)

	results, err = e.Run("o 8\no 1")
	assert.ErrorIs(t, err, mines.ErrGameOver)
	require.Len(t, results, 1)
	assert.True(t, results[0].Outcome.Mine)
}

func TestNewGameKeepsLevelByDefault(t *testing.T) {
	e := newExecutor()

	results, err := e.Run("o 0\nn")
	require.NoError(t, err)
	assert.Equal(t, mines.Lost, results[0].Ended)
	assert.Equal(t, mines.Easy, results[0].Level)
	assert.True(t, results[1].Started)
	assert.Equal(t, mines.Playing, results[1].Ended)
	assert.Equal(t, mines.Easy, e.Session.Level)
	assert.Equal(t, mines.Playing, e.Session.Status)
	assert.Empty(t, e.Session.Opened)

	_, err = e.Run("n medio")
	require.NoError(t, err)
	assert.Equal(t, mines.Medium, e.Session.Level)
	assert.Len(t, e.Session.Mines, 4)
}
