package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/goban/automatic"
	"github.com/domino14/goban/config"
	"github.com/domino14/goban/zobrist"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

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
	log.Info().Msgf("Loaded config: %v", cfg.SanitizedSettings())
	zobrist.SetTableSeed(cfg.GetUint64(config.ConfigSeed))

	if fn := cfg.GetString(config.ConfigAutoplayAnalyze); fn != "" {
		summary, err := automatic.AnalyzeLogFile(fn)
		if err != nil {
			log.Fatal().Err(err).Str("file", fn).Msg("could-not-analyze")
		}
		fmt.Print(summary)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tstart := time.Now()
	results, err := automatic.StartCompVComp(ctx, cfg,
		cfg.GetInt(config.ConfigAutoplayGames),
		cfg.GetInt(config.ConfigAutoplayThreads),
		cfg.GetString(config.ConfigAutoplayOutput))
	log.Info().Int("games", len(results)).Dur("elapsed", time.Since(tstart)).Msg("autoplay-done")

	fmt.Print(automatic.Summarize(results))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("autoplay-failed")
		os.Exit(1)
	}
}
