// Package automatic plays computer vs computer games for testing the
// engine, logs one CSV line per game and summarizes the results.
package automatic

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/goban/config"
	"github.com/domino14/goban/game"
	"github.com/domino14/goban/montecarlo"
	"github.com/domino14/goban/move"
)

var logHeader = []string{"gameID", "moves", "score", "winner", "margin", "meanPlayoutLength"}

// Result is the outcome of one self-play game.
type Result struct {
	GameID int
	Moves  int
	// Score is the final score from Black's point of view, komi included.
	Score float64
	// Winner is Empty for a draw.
	Winner move.Color
	// MeanPlayoutLength is from the search for the game's last move.
	MeanPlayoutLength float64
}

func (r Result) Margin() float64 {
	return math.Abs(r.Score)
}

func (r Result) record() []string {
	return []string{
		strconv.Itoa(r.GameID),
		strconv.Itoa(r.Moves),
		strconv.FormatFloat(r.Score, 'f', -1, 64),
		r.Winner.String(),
		strconv.FormatFloat(r.Margin(), 'f', -1, 64),
		strconv.FormatFloat(r.MeanPlayoutLength, 'f', 3, 64),
	}
}

func winner(score float64) move.Color {
	switch {
	case score > 0:
		return move.Black
	case score < 0:
		return move.White
	}
	return move.Empty
}

// PlayGame plays one game to the end with the settings in cfg. Each game
// gets its own seed, derived from the configured one, so a batch is
// reproducible.
func PlayGame(ctx context.Context, cfg *config.Config, gameID int) (Result, error) {
	params := montecarlo.ParamsFromConfig(cfg)
	if params.Seed != 0 {
		params.Seed += uint64(gameID)
	}
	g, err := game.NewGameWithParams(cfg, params)
	if err != nil {
		return Result{}, err
	}
	defer g.Close()

	n, err := g.SelfPlay(ctx, move.Black)
	if err != nil {
		return Result{}, err
	}
	score := g.FinalScore()
	return Result{
		GameID:            gameID,
		Moves:             n,
		Score:             score,
		Winner:            winner(score),
		MeanPlayoutLength: g.SearchStats().MeanPlayoutLength,
	}, nil
}

// StartCompVComp plays numGames games, at most threads at a time, and
// writes one CSV line per finished game to outputFilename. It returns the
// finished games in game order. If ctx is cancelled the games in flight
// are abandoned and the error is returned along with what finished.
func StartCompVComp(ctx context.Context, cfg *config.Config, numGames, threads int,
	outputFilename string) ([]Result, error) {

	if numGames < 1 || threads < 1 {
		return nil, errors.New("need at least one game and one thread")
	}
	logfile, err := os.Create(outputFilename)
	if err != nil {
		return nil, err
	}
	defer logfile.Close()
	log.Debug().Msgf("Starting %v games, %v threads", numGames, threads)

	logChan := make(chan Result, threads)
	writerDone := make(chan error, 1)
	go func() {
		w := csv.NewWriter(logfile)
		w.Write(logHeader)
		for r := range logChan {
			w.Write(r.record())
		}
		w.Flush()
		writerDone <- w.Error()
	}()

	results := make([]Result, numGames)
	finished := make([]bool, numGames)
	var played atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(threads)
	for i := range numGames {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			r, err := PlayGame(egCtx, cfg, i+1)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			results[i] = r
			finished[i] = true
			logChan <- r
			if n := played.Add(1); n%100 == 0 {
				log.Info().Int64("games", n).Msg("games-played")
			}
			return nil
		})
	}
	err = eg.Wait()
	if err == nil {
		// games left unstarted by a cancellation.
		err = ctx.Err()
	}
	close(logChan)
	if werr := <-writerDone; werr != nil && err == nil {
		err = werr
	}

	done := make([]Result, 0, numGames)
	for i, r := range results {
		if finished[i] {
			done = append(done, r)
		}
	}
	log.Info().Int("games", len(done)).Str("output", outputFilename).Msg("all-games-finished")
	return done, err
}
