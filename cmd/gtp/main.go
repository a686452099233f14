package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/goban/config"
	"github.com/domino14/goban/game"
	"github.com/domino14/goban/gtp"
	"github.com/domino14/goban/zobrist"
)

var (
	GitVersion string
)

func setupLogger(cfg *config.Config) {
	// stdout carries the protocol; logs go to stderr.
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	level := zerolog.InfoLevel
	if cfg.GetBool(config.ConfigDebug) {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogger(cfg)
	zobrist.SetTableSeed(cfg.GetUint64(config.ConfigSeed))
	log.Debug().Msgf("Loaded config: %v", cfg.SanitizedSettings())
	if GitVersion != "" {
		gtp.Version = GitVersion
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := game.NewGame(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-create-game")
	}
	defer g.Close()
	ctrl := gtp.NewController(g)

	var in gtp.LineReader = gtp.NewScannerReader(os.Stdin)
	var out io.Writer = os.Stdout
	if cfg.GetBool(config.ConfigInteractive) {
		l, err := readline.NewEx(&readline.Config{
			Prompt:          "\033[31mgoban>\033[0m ",
			HistoryFile:     "/tmp/goban-readline.tmp",
			EOFPrompt:       "quit",
			InterruptPrompt: "^C",

			HistorySearchFold:   true,
			FuncFilterInputRune: filterInput,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-start-readline")
		}
		defer l.Close()
		in, out = l, l.Stdout()
	}

	err = ctrl.Loop(ctx, in, out)
	switch {
	case err == nil, errors.Is(err, readline.ErrInterrupt), errors.Is(err, context.Canceled):
		log.Debug().Msg("exiting")
	default:
		log.Error().Err(err).Msg("gtp-loop-failed")
		os.Exit(1)
	}
}
