package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"hash/maphash"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/vancomm/minefield-server/internal/command"
	"github.com/vancomm/minefield-server/internal/mines"
	"github.com/vancomm/minefield-server/internal/savestore"
)

const usage = `commands:
  o <index>   open a cell
  n [level]   start a new game, optionally on another level
  g           show the board
  q           save and quit
`

type options struct {
	level  mines.Level
	unique bool
	save   string
}

func newLogger(path string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   path,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      logrus.DebugLevel,
		Formatter:  &logrus.JSONFormatter{},
	})
	if err != nil {
		return nil, err
	}
	log.AddHook(hook)
	return log, nil
}

func printBoard(out io.Writer, game *mines.Session) {
	fmt.Fprint(out, game.PlayerGrid().ToString(game.Level.Side()))
	fmt.Fprintf(out, "level=%s mines=%d opened=%d status=%s\n",
		game.Level, len(game.Mines), len(game.Opened), game.Status)
}

// resume loads the session saved under opts.save, or starts a fresh one.
func resume(store *savestore.Store, opts options, rnd *rand.Rand, log *logrus.Logger) (*mines.Session, error) {
	var game mines.Session
	err := store.Get(opts.save, &game)
	if err == nil && game.Level.Valid() {
		log.WithFields(logrus.Fields{
			"save":   opts.save,
			"level":  game.Level,
			"status": game.Status,
		}).Info("resumed session")
		return &game, nil
	}
	if err != nil && !errors.Is(err, savestore.ErrNotFound) {
		log.WithError(err).Warn("unable to read save, starting over")
	}
	return mines.NewSession(opts.level, opts.unique, rnd)
}

// listSaves prints every save slot with the state of its game.
func listSaves(out io.Writer, store *savestore.Store) error {
	n, err := store.Count()
	if err != nil {
		return err
	}
	keys, err := store.Keys()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d saved games\n", n)
	for _, key := range keys {
		var game mines.Session
		if err := store.Get(key, &game); err != nil {
			fmt.Fprintf(out, "%s\tunreadable: %v\n", key, err)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\topened=%d\n", key, game.Level, game.Status, len(game.Opened))
	}
	return nil
}

func run(in io.Reader, out io.Writer, store *savestore.Store, opts options, rnd *rand.Rand, log *logrus.Logger) error {
	game, err := resume(store, opts, rnd, log)
	if err != nil {
		return err
	}
	exec := command.Executor{Session: game, Rand: rnd}

	fmt.Fprint(out, usage)
	printBoard(out, game)

	scanner := bufio.NewScanner(in)
	for fmt.Fprint(out, "> "); scanner.Scan(); fmt.Fprint(out, "> ") {
		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" {
			break
		}

		results, err := exec.Run(line)
		for _, res := range results {
			switch {
			case res.Outcome != nil && res.Outcome.Mine:
				fmt.Fprintln(out, "boom")
			case res.Outcome != nil:
				fmt.Fprintf(out, "%d adjacent\n", res.Outcome.Count)
			case res.Started:
				fmt.Fprintln(out, "new game")
			}
		}
		if err != nil {
			log.WithError(err).WithField("line", line).Debug("command failed")
			fmt.Fprintf(out, "error: %v\n", err)
		}

		printBoard(out, game)
		if err := store.Set(opts.save, game); err != nil {
			return fmt.Errorf("unable to save session: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	return store.Set(opts.save, game)
}

func main() {
	var (
		dbPath   = flag.String("db", "minefield.db", "sqlite file holding saved games")
		logPath  = flag.String("log", "minefield.log", "log file")
		levelArg = flag.String("level", string(mines.Easy), "level for a new game")
		unique   = flag.Bool("unique", false, "place mines on distinct cells")
		save     = flag.String("save", "default", "name of the save slot")
		list     = flag.Bool("list", false, "list save slots and exit")
		remove   = flag.Bool("delete", false, "delete the save slot and exit")
	)
	flag.Parse()

	level, err := mines.ParseLevel(*levelArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := newLogger(*logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "unable to open log file:", err)
		os.Exit(1)
	}

	store, err := savestore.Open(*dbPath, "sessions")
	if err != nil {
		log.WithError(err).Error("unable to open save store")
		fmt.Fprintln(os.Stderr, "unable to open save store:", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *list:
		if err := listSaves(os.Stdout, store); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	case *remove:
		if err := store.Delete(*save); err != nil {
			log.WithError(err).Error("unable to delete save")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log.WithField("save", *save).Info("deleted save")
		return
	}

	rnd := rand.New(rand.NewPCG(new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64()))
	opts := options{level: level, unique: *unique, save: *save}
	if err := run(os.Stdin, os.Stdout, store, opts, rnd, log); err != nil {
		log.WithError(err).Error("session ended with error")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
