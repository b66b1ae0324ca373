package savestore

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minefield-server/internal/mines"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "saves.db"), "test_store")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadName(t *testing.T) {
	for _, name := range []string{"", "saves; DROP TABLE x", "a-b", "1st"} {
		_, err := Open(filepath.Join(t.TempDir(), "saves.db"), name)
		assert.ErrorIs(t, err, ErrBadName, name)
	}
}

func TestReadEmpty(t *testing.T) {
	s := setupTestStore(t)

	var nothing struct{}
	assert.ErrorIs(t, s.Get("some key", &nothing), ErrNotFound)
	assert.ErrorIs(t, s.Get("some key", nil), ErrNotFound)
}

func TestWriteAndReadPrimitive(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.Set("key", 1337))

	var got int
	require.NoError(t, s.Get("key", &got))
	assert.Equal(t, 1337, got)
	assert.NoError(t, s.Get("key", nil))
}

func TestWriteAndReadSession(t *testing.T) {
	s := setupTestStore(t)

	game, err := mines.NewSession(mines.Medium, true, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	_, err = game.Open(game.Mines[0])
	require.NoError(t, err)

	require.NoError(t, s.Set("current", game))

	var got mines.Session
	require.NoError(t, s.Get("current", &got))
	assert.Equal(t, game.Level, got.Level)
	assert.Equal(t, game.Mines, got.Mines)
	assert.True(t, got.Unique)
	assert.Empty(t, got.Opened)
	assert.Equal(t, mines.Lost, got.Status)
	assert.Equal(t, game.Mines[0], got.Exploded)
}

func TestUpdate(t *testing.T) {
	s := setupTestStore(t)
	r := rand.New(rand.NewPCG(1, 2))

	require.NoError(t, s.Set("key", r.Int32()))
	want := r.Int32()
	require.NoError(t, s.Set("key", want))

	var got int32
	require.NoError(t, s.Get("key", &got))
	assert.Equal(t, want, got)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)

	assert.NoError(t, s.Delete("missing"))

	require.NoError(t, s.Set("key", 1))
	require.NoError(t, s.Delete("key"))

	var got int
	assert.ErrorIs(t, s.Get("key", &got), ErrNotFound)
}

func TestCountAndKeys(t *testing.T) {
	s := setupTestStore(t)

	for key, value := range map[string]int{"d": 4, "b": 2, "a": 1, "c": 3} {
		require.NoError(t, s.Set(key, value))
	}

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, s.Delete("a"))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, keys)
}
