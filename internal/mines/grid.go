package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type CellState int8

const (
	Hidden       CellState = -2
	ExplodedMine CellState = 65
	Mine         CellState = 67
	/*
	 * Each item in a player grid is one of the following values:
	 *
	 *  - 0 to 8 mean the cell is open and shows its adjacent mine
	 *    count.
	 *
	 *  - -2 means the cell is still hidden.
	 *
	 *  - 65 means the cell held the mine the player hit.
	 *
	 *  - 67 means the cell holds a mine revealed after the game ended.
	 */
)

func (s CellState) String() string {
	switch {
	case s == Hidden:
		return "#"
	case s == ExplodedMine:
		return "X"
	case s == Mine:
		return "*"
	case 0 <= s && s <= 8:
		return strconv.Itoa(int(s))
	default:
		return "!"
	}
}

type Grid []CellState

func (g Grid) ToString(width int) string {
	var b strings.Builder
	for y := range len(g) / width {
		for x := range width {
			i := y*width + x
			if i >= len(g) {
				break
			}
			fmt.Fprint(&b, g[i].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}
