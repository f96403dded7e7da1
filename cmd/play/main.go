package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"emittr/fourinarow/internal/config"
	"emittr/fourinarow/internal/game"
	"emittr/fourinarow/internal/tui"
)

func main() {
	cfg := config.Load()
	depth := flag.Int("depth", cfg.Game.Depth, "search depth in plies")
	prune := flag.Bool("prune", cfg.Game.Pruning, "enable alpha-beta pruning")
	first := flag.String("first", "", "who moves first: human, engine or empty for a coin toss")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	settings := cfg.Game
	settings.Depth = *depth
	settings.Pruning = *prune

	// The screen owns the terminal, so logs only go to a file.
	out, err := openLog(*logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()
	logger := config.SetupLoggerTo(out, cfg.LogLevel, "json")

	opts := []game.CoordinatorOption{game.WithCoordinatorLogger(logger)}
	switch *first {
	case "human":
		opts = append(opts, game.WithFirstMover(game.HumanPiece))
	case "engine":
		opts = append(opts, game.WithFirstMover(game.EnginePiece))
	}
	coord, err := game.NewCoordinator(settings, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p, err := tui.Open()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	result, err := coord.Play(context.Background(), p)
	if err == nil {
		p.WaitForKey()
	}
	p.Close()

	if err != nil && !errors.Is(err, tui.ErrQuit) {
		logger.Error().Err(err).Msg("game aborted")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(coord.Grid())
	fmt.Println(result)
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
