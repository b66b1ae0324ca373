package mines

import (
	"fmt"
	"math/rand/v2"
)

// MineSet lists the indices holding a mine. It may contain duplicates when
// produced by [GenerateMines].
type MineSet []int

// GenerateMines draws level.MineCount() indices independently and uniformly
// from the board. Indices may repeat.
func GenerateMines(level Level, r *rand.Rand) MineSet {
	cells := level.CellCount()
	mines := make(MineSet, level.MineCount())
	for i := range mines {
		mines[i] = r.IntN(cells)
	}
	return mines
}

// GenerateUniqueMines draws level.MineCount() distinct indices.
func GenerateUniqueMines(level Level, r *rand.Rand) MineSet {
	cells := level.CellCount()

	candidates := make([]int, cells)
	for i := range candidates {
		candidates[i] = i
	}

	/*
	 * Pick n off the list at random, moving the last candidate into the
	 * hole left by each pick.
	 */
	mines := make(MineSet, 0, level.MineCount())
	k := len(candidates)
	for range level.MineCount() {
		i := r.IntN(k)
		mines = append(mines, candidates[i])
		k--
		candidates[i] = candidates[k]
	}
	return mines
}

// Count returns how many times index appears in the set.
func (m MineSet) Count(index int) (n int) {
	for _, i := range m {
		if i == index {
			n++
		}
	}
	return
}

func (m MineSet) Contains(index int) bool {
	return m.Count(index) > 0
}

func (m MineSet) Distinct() int {
	seen := make(map[int]struct{}, len(m))
	for _, i := range m {
		seen[i] = struct{}{}
	}
	return len(seen)
}

type neighbor struct {
	dx, dy int
}

var neighbors = [8]neighbor{
	{-1, -1}, {0, -1}, {+1, -1},
	{-1, 0}, {+1, 0},
	{-1, +1}, {0, +1}, {+1, +1},
}

// Neighbors returns the up to eight indices adjacent to index on a row-major
// grid. Cells on the left or right edge do not wrap onto the neighbouring row.
//
// panics [AssertionError]
func Neighbors(index int, level Level) []int {
	if !level.InBounds(index) {
		panic(AssertionError{fmt.Sprintf("cell %d outside %s board", index, level)})
	}
	side := level.Side()
	col := index % side
	result := make([]int, 0, len(neighbors))
	for _, n := range neighbors {
		if (n.dx < 0 && col == 0) || (n.dx > 0 && col == side-1) {
			continue
		}
		j := index + n.dy*side + n.dx
		if level.InBounds(j) {
			result = append(result, j)
		}
	}
	return result
}

// CountAdjacentMines counts mines around index, a duplicated mine index
// counting once per occurrence.
//
// panics [AssertionError]
func CountAdjacentMines(index int, level Level, mines MineSet) int {
	n := 0
	for _, j := range Neighbors(index, level) {
		n += mines.Count(j)
	}
	return n
}

// CheckWin compares against the raw length of mines, not the number of
// distinct mined cells.
func CheckWin(openedCount int, level Level, mines MineSet) bool {
	return openedCount == level.CellCount()-len(mines)
}
