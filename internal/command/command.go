// Package command implements the line-based game protocol shared by the
// websocket endpoint and the terminal client:
//
//	g            no-op, report the current state
//	o <index>    open a cell
//	n [level]    start a new game, on the current level if none is given
package command

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/vancomm/minefield-server/internal/mines"
)

type Kind string

const (
	Noop    Kind = "g"
	Open    Kind = "o"
	NewGame Kind = "n"
)

var (
	ErrEmpty          = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidArgs    = errors.New("invalid args")
)

type Command struct {
	Kind  Kind
	Index int
	Level mines.Level
}

func Parse(line string) (Command, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Command{}, ErrEmpty
	}
	cmd, args := Kind(strings.ToLower(tokens[0])), tokens[1:]
	switch cmd {
	case Noop:
		if len(args) != 0 {
			return Command{}, ErrInvalidArgs
		}
		return Command{Kind: Noop}, nil
	case Open:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: expected a cell index", ErrInvalidArgs)
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: cell index must be an int", ErrInvalidArgs)
		}
		return Command{Kind: Open, Index: index}, nil
	case NewGame:
		switch len(args) {
		case 0:
			return Command{Kind: NewGame}, nil
		case 1:
			level, err := mines.ParseLevel(args[0])
			if err != nil {
				return Command{}, fmt.Errorf("%w: %w", ErrInvalidArgs, err)
			}
			return Command{Kind: NewGame, Level: level}, nil
		default:
			return Command{}, ErrInvalidArgs
		}
	default:
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, tokens[0])
	}
}

// Result reports what a command did to the session.
type Result struct {
	Outcome *mines.Outcome
	Started bool
	// Level is the level being played once the command has run.
	Level mines.Level
	// Ended is Won or Lost when this command finished the game.
	Ended mines.Status
}

type Executor struct {
	Session *mines.Session
	Rand    *rand.Rand
}

func (e Executor) Execute(c Command) (Result, error) {
	switch c.Kind {
	case Noop:
		return Result{}, nil
	case Open:
		outcome, err := e.Session.Open(c.Index)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Outcome: &outcome,
			Level:   e.Session.Level,
			Ended:   e.Session.Status,
		}, nil
	case NewGame:
		level := c.Level
		if level == "" {
			level = e.Session.Level
		}
		if err := e.Session.NewGame(level, e.Rand); err != nil {
			return Result{}, err
		}
		return Result{Started: true, Level: e.Session.Level}, nil
	default:
		return Result{}, ErrUnknownCommand
	}
}

// Run parses and executes each non-blank line of message in order, stopping
// at the first error.
func (e Executor) Run(message string) ([]Result, error) {
	results := make([]Result, 0)
	for _, line := range strings.Split(message, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c, err := Parse(line)
		if err != nil {
			return results, err
		}
		res, err := e.Execute(c)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
