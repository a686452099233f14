// Package game holds the state of one Go game: the board, the hashes of
// every earlier position, komi, the move history and the engines that play
// on it. A protocol front end drives a Game; nothing here is global.
package game

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/domino14/goban/board"
	"github.com/domino14/goban/config"
	"github.com/domino14/goban/montecarlo"
	"github.com/domino14/goban/move"
	"github.com/domino14/goban/negamax"
	"github.com/domino14/goban/zobrist"
)

const (
	MinBoardSize = 3
	MaxBoardSize = 21
)

var (
	ErrOccupied         = errors.New("point is occupied")
	ErrSuicide          = errors.New("suicide")
	ErrKoViolation      = errors.New("move repeats an earlier position")
	ErrIllegalColor     = errors.New("illegal color")
	ErrOffBoard         = errors.New("move is off the board")
	ErrInvalidBoardSize = errors.New("invalid board size")
	ErrNothingToUndo    = errors.New("nothing to undo")
)

// Turn is one committed move.
type Turn struct {
	Color move.Color
	Move  move.Move
}

// Game is a single game session. It is not safe for concurrent use.
type Game struct {
	cfg   *config.Config
	board *board.Board
	// trial is where a move is tried before it is committed, to check it
	// against the earlier positions.
	trial *board.Board
	keys  *zobrist.KeyStack
	komi  float64

	lastMove move.Move
	history  []Turn
	handicap []move.Move
	// consecutive passes at the end of history.
	passes int

	searcher *montecarlo.Searcher
	solver   *negamax.Solver
	logFile  *os.File
}

// NewGame creates a game with the board size, komi and search settings
// in cfg.
func NewGame(cfg *config.Config) (*Game, error) {
	return NewGameWithParams(cfg, montecarlo.ParamsFromConfig(cfg))
}

// NewGameWithParams is NewGame with explicit search parameters, which take
// precedence over the ones in cfg. The komi comes from params.
func NewGameWithParams(cfg *config.Config, params montecarlo.Params) (*Game, error) {
	size := cfg.GetInt(config.ConfigBoardSize)
	if err := checkBoardSize(size); err != nil {
		return nil, err
	}
	g := &Game{
		cfg:      cfg,
		keys:     zobrist.NewKeyStack(),
		komi:     params.Komi,
		lastMove: move.Null,
		searcher: montecarlo.NewSearcher(params),
		solver:   &negamax.Solver{},
	}
	g.newBoards(size)

	if fn := cfg.GetString(config.ConfigSearchLog); fn != "" {
		f, err := os.OpenFile(fn, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening search log: %w", err)
		}
		g.logFile = f
		g.searcher.SetLogStream(f)
	}

	if frac := cfg.GetFloat64(config.ConfigTTFractionOfMem); frac > 0 {
		g.solver.SetTranspositionTableFraction(frac)
	}
	if err := g.solver.Init(g.komi, cfg.GetInt(config.ConfigNegamaxDepth)); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

func checkBoardSize(size int) error {
	if size < MinBoardSize || size > MaxBoardSize {
		return fmt.Errorf("%w: %d (must be %d to %d)", ErrInvalidBoardSize, size,
			MinBoardSize, MaxBoardSize)
	}
	return nil
}

func checkColor(c move.Color) error {
	if !c.IsPlayer() {
		return fmt.Errorf("%w: %v", ErrIllegalColor, c)
	}
	return nil
}

func (g *Game) newBoards(size int) {
	g.board = board.NewBoard(size)
	g.board.SetVerify(g.cfg.GetBool(config.ConfigDebug))
	g.trial = board.NewBoard(size)
}

// Close releases the search log, if one is open.
func (g *Game) Close() error {
	if g.logFile == nil {
		return nil
	}
	err := g.logFile.Close()
	g.logFile = nil
	g.searcher.SetLogStream(nil)
	return err
}

// Board returns the current position. Callers must not modify it.
func (g *Game) Board() *board.Board {
	return g.board
}

func (g *Game) Komi() float64 {
	return g.komi
}

func (g *Game) SetKomi(komi float64) {
	g.komi = komi
	g.searcher.SetKomi(komi)
	g.solver.SetKomi(komi)
}

// LastMove is the most recent move, Pass, or Null at the start of a game.
func (g *Game) LastMove() move.Move {
	return g.lastMove
}

// History returns a copy of the moves played since the board was cleared.
// Handicap stones are not included.
func (g *Game) History() []Turn {
	return slices.Clone(g.history)
}

func (g *Game) Handicap() []move.Move {
	return slices.Clone(g.handicap)
}

// IsOver is true after two consecutive passes.
func (g *Game) IsOver() bool {
	return g.passes >= 2
}

// SearchStats returns the summary of the last generated move.
func (g *Game) SearchStats() montecarlo.SearchStats {
	return g.searcher.Stats()
}

// SetBoardSize starts a new game on an empty board of the given size.
func (g *Game) SetBoardSize(size int) error {
	if err := checkBoardSize(size); err != nil {
		return err
	}
	g.newBoards(size)
	g.ClearBoard()
	return nil
}

// ClearBoard starts a new game on the current board size. The searcher
// forgets what it learned in the previous game.
func (g *Game) ClearBoard() {
	g.board.Reset()
	g.keys.Clear()
	g.history = g.history[:0]
	g.handicap = nil
	g.passes = 0
	g.lastMove = move.Null
	g.searcher.ResetState()
}

// Play commits move m for color c after checking it is legal. Repeating
// any earlier position is a ko violation.
func (g *Game) Play(c move.Color, m move.Move) error {
	if err := checkColor(c); err != nil {
		return err
	}
	if !m.IsPass() {
		if !g.board.OnBoard(m) {
			return fmt.Errorf("%w: %v", ErrOffBoard, m)
		}
		if g.board.At(m) != move.Empty {
			return fmt.Errorf("%w: %v", ErrOccupied, m)
		}
		if !g.board.IsMoveValid(c, m) {
			return fmt.Errorf("%w: %v", ErrSuicide, m)
		}
		g.trial.CopyFrom(g.board)
		g.trial.DoMove(c, m)
		if g.keys.Contains(g.trial.ZobristKey()) {
			return fmt.Errorf("%w: %v", ErrKoViolation, m)
		}
	}
	g.commit(c, m)
	return nil
}

// commit plays an already validated move. The key of the position before
// the move goes on the stack; a pass leaves the position alone, so it
// pushes nothing.
func (g *Game) commit(c move.Color, m move.Move) {
	if m.IsPass() {
		g.passes++
	} else {
		g.keys.Push(g.board.ZobristKey())
		g.passes = 0
	}
	g.board.DoMove(c, m)
	g.lastMove = m
	g.history = append(g.history, Turn{Color: c, Move: m})
	log.Debug().Str("color", c.String()).Str("move", m.String()).
		Int("turn", len(g.history)).Msg("move-committed")
}

// GenMove searches for a move for color c and plays it.
func (g *Game) GenMove(ctx context.Context, c move.Color) (move.Move, error) {
	if err := checkColor(c); err != nil {
		return move.Null, err
	}
	m := g.searcher.GenerateMove(ctx, g.board, g.keys, c, g.lastMove)
	if err := g.Play(c, m); err != nil {
		// the searcher only returns legal moves.
		return move.Null, fmt.Errorf("generated move rejected: %w", err)
	}
	return m, nil
}

// Solve runs the alpha-beta searcher on the current position. Nothing is
// played.
func (g *Game) Solve(ctx context.Context, c move.Color) (move.Move, float64, error) {
	if err := checkColor(c); err != nil {
		return move.Null, 0, err
	}
	return g.solver.Solve(ctx, g.board, g.keys, c)
}

// FinalScore is the territory score of the current position from Black's
// point of view: captures plus estimated territory, komi included. Stones
// inside a region the other side encloses count as dead territory.
func (g *Game) FinalScore() float64 {
	return g.board.Score(g.komi)
}

// SelfPlay lets the engine play both sides, starting with toMove, until
// two consecutive passes or a move limit of factor*N*N. It returns the
// number of moves played.
func (g *Game) SelfPlay(ctx context.Context, toMove move.Color) (int, error) {
	if err := checkColor(toMove); err != nil {
		return 0, err
	}
	factor := g.cfg.GetInt(config.ConfigMaxPlayoutMovesFactor)
	if factor <= 0 {
		factor = 3
	}
	limit := factor * g.board.Size() * g.board.Size()
	played := 0
	for !g.IsOver() && played < limit {
		if err := ctx.Err(); err != nil {
			return played, err
		}
		if _, err := g.GenMove(ctx, toMove); err != nil {
			return played, err
		}
		played++
		toMove = toMove.Opponent()
	}
	log.Debug().Int("moves", played).Float64("score", g.FinalScore()).
		Msg("selfplay-finished")
	return played, nil
}

// Undo takes back the last move by replaying the game without it.
func (g *Game) Undo() error {
	if len(g.history) == 0 {
		return ErrNothingToUndo
	}
	turns := slices.Clone(g.history[:len(g.history)-1])
	handicap := g.handicap

	g.board.Reset()
	g.keys.Clear()
	g.history = g.history[:0]
	g.passes = 0
	g.lastMove = move.Null
	g.placeHandicap(handicap)
	for _, t := range turns {
		g.commit(t.Color, t.Move)
	}
	return nil
}
