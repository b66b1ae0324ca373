package mines

import "errors"

var (
	ErrOutOfRange    = errors.New("cell index out of range")
	ErrAlreadyOpened = errors.New("cell already opened")
	ErrGameOver      = errors.New("game is over")
)

// AssertionError signals a broken caller contract, such as asking about a
// cell that is not on the board.
type AssertionError struct {
	message string
}

// [AssertionError] implements [error]
func (e AssertionError) Error() string {
	return "assertion failed: " + e.message
}
