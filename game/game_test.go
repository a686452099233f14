package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/goban/config"
	"github.com/domino14/goban/move"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testConfig(size, playouts int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigBoardSize, size)
	cfg.Set(config.ConfigPlayouts, playouts)
	cfg.Set(config.ConfigNegamaxDepth, 2)
	cfg.Set(config.ConfigTTFractionOfMem, 0.0001)
	cfg.Set(config.ConfigDebug, true)
	return cfg
}

func newTestGame(t *testing.T, size, playouts int) *Game {
	g, err := NewGame(testConfig(size, playouts))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func playAll(t *testing.T, g *Game, turns []Turn) {
	for _, tt := range turns {
		if err := g.Play(tt.Color, tt.Move); err != nil {
			t.Fatalf("playing %v %v: %v", tt.Color, tt.Move, err)
		}
	}
}

// koGame leaves White to move with Black having just taken a ko at C3;
// retaking at B3 would repeat the position.
func koGame(t *testing.T) *Game {
	g := newTestGame(t, 5, 10)
	B, W := move.Black, move.White
	playAll(t, g, []Turn{
		{B, move.FromCoords(2, 4)}, {W, move.FromCoords(3, 4)},
		{B, move.FromCoords(1, 3)}, {W, move.FromCoords(2, 3)},
		{B, move.FromCoords(2, 2)}, {W, move.FromCoords(3, 2)},
		{B, move.FromCoords(5, 5)}, {W, move.FromCoords(4, 3)},
		{B, move.FromCoords(3, 3)},
	})
	return g
}

func TestNewGameRejectsBoardSize(t *testing.T) {
	is := is.New(t)
	_, err := NewGame(testConfig(2, 10))
	is.True(errors.Is(err, ErrInvalidBoardSize))
	_, err = NewGame(testConfig(MaxBoardSize+1, 10))
	is.True(errors.Is(err, ErrInvalidBoardSize))
}

func TestPlayErrors(t *testing.T) {
	is := is.New(t)
	g := koGame(t)
	is.Equal(g.Board().At(move.FromCoords(2, 3)), move.Empty)
	is.Equal(g.Board().CapturedStones(move.Black), 1)

	is.True(errors.Is(g.Play(move.White, move.FromCoords(2, 3)), ErrKoViolation))
	is.True(errors.Is(g.Play(move.White, move.FromCoords(2, 4)), ErrOccupied))
	is.True(errors.Is(g.Play(move.White, move.FromCoords(6, 1)), ErrOffBoard))
	is.True(errors.Is(g.Play(move.Empty, move.FromCoords(1, 1)), ErrIllegalColor))
	is.Equal(len(g.History()), 9)

	// after a ko threat and answer the retake is legal.
	is.NoErr(g.Play(move.White, move.FromCoords(5, 1)))
	is.NoErr(g.Play(move.Black, move.FromCoords(1, 1)))
	is.NoErr(g.Play(move.White, move.FromCoords(2, 3)))
	is.Equal(g.Board().At(move.FromCoords(3, 3)), move.Empty)
	is.NoErr(g.Board().Verify())
}

func TestPlaySuicide(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 5, 10)
	playAll(t, g, []Turn{
		{move.Black, move.FromCoords(1, 2)}, {move.White, move.Pass},
		{move.Black, move.FromCoords(2, 1)},
	})
	is.True(errors.Is(g.Play(move.White, move.FromCoords(1, 1)), ErrSuicide))
	is.Equal(g.Board().At(move.FromCoords(1, 1)), move.Empty)
}

func TestPlayPushesKeys(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 5, 10)
	empty := g.Board().ZobristKey()
	is.NoErr(g.Play(move.Black, move.FromCoords(3, 3)))
	is.Equal(g.keys.Len(), 1)
	is.Equal(g.keys.Top(), empty)

	is.NoErr(g.Play(move.White, move.Pass))
	is.Equal(g.keys.Len(), 1)
	is.Equal(g.LastMove(), move.Pass)
	is.True(!g.IsOver())
	is.NoErr(g.Play(move.Black, move.Pass))
	is.True(g.IsOver())
}

func TestUndo(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 9, 10)
	_, err := g.FixedHandicap(2)
	is.NoErr(err)
	is.NoErr(g.Play(move.White, move.FromCoords(5, 5)))
	afterFirst := g.Board().ZobristKey()
	is.NoErr(g.Play(move.Black, move.FromCoords(5, 6)))
	is.NoErr(g.Play(move.White, move.Pass))

	is.NoErr(g.Undo())
	is.NoErr(g.Undo())
	is.Equal(g.Board().ZobristKey(), afterFirst)
	is.Equal(len(g.History()), 1)
	is.Equal(g.LastMove(), move.FromCoords(5, 5))
	is.Equal(g.keys.Len(), 1)

	is.NoErr(g.Undo())
	is.Equal(g.Board().StoneCount(move.Black), 2)
	is.Equal(g.LastMove(), move.Null)
	is.True(errors.Is(g.Undo(), ErrNothingToUndo))
}

func TestSetBoardSize(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 5, 10)
	is.NoErr(g.Play(move.Black, move.FromCoords(3, 3)))
	is.True(errors.Is(g.SetBoardSize(MinBoardSize-1), ErrInvalidBoardSize))
	is.Equal(g.Board().Size(), 5)

	is.NoErr(g.SetBoardSize(9))
	is.Equal(g.Board().Size(), 9)
	is.True(g.Board().IsEmpty())
	is.Equal(len(g.History()), 0)
	is.Equal(g.keys.Len(), 0)
	is.NoErr(g.Play(move.Black, move.FromCoords(9, 9)))
}

func TestKomiAndFinalScore(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 5, 10)
	is.Equal(g.Komi(), 6.5)
	is.Equal(g.FinalScore(), -6.5)
	g.SetKomi(0.5)
	is.NoErr(g.Play(move.Black, move.FromCoords(3, 3)))
	// a lone stone encloses nothing.
	is.Equal(g.FinalScore(), -0.5)
	// a wall down the middle column splits the board into two black areas.
	for _, y := range []int{1, 2, 4, 5} {
		is.NoErr(g.Play(move.White, move.Pass))
		is.NoErr(g.Play(move.Black, move.FromCoords(3, y)))
	}
	is.Equal(g.FinalScore(), 20-0.5)
	// a white stone inside black's area is dead and scores as territory.
	is.NoErr(g.Play(move.White, move.FromCoords(1, 1)))
	is.Equal(g.FinalScore(), 20-0.5)
}

func TestGenMove(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 5, 50)
	m, err := g.GenMove(context.Background(), move.Black)
	is.NoErr(err)
	is.True(!m.IsPass())
	is.Equal(g.LastMove(), m)
	is.Equal(g.Board().At(m), move.Black)
	is.Equal(g.SearchStats().Move, m.String())

	_, err = g.GenMove(context.Background(), move.Border)
	is.True(errors.Is(err, ErrIllegalColor))
}

func TestSelfPlay(t *testing.T) {
	is := is.New(t)
	cfg := testConfig(5, 30)
	cfg.Set(config.ConfigMaxPlayoutMovesFactor, 2)
	g, err := NewGame(cfg)
	is.NoErr(err)
	defer g.Close()

	n, err := g.SelfPlay(context.Background(), move.Black)
	is.NoErr(err)
	is.Equal(len(g.History()), n)
	is.True(g.IsOver() || n == 2*5*5)
	is.NoErr(g.Board().Verify())
	// no position repeats.
	seen := map[uint64]bool{}
	for len(g.History()) > 0 {
		if !g.LastMove().IsPass() {
			k := g.Board().ZobristKey()
			is.True(!seen[k])
			seen[k] = true
		}
		is.NoErr(g.Undo())
	}
}

func TestSelfPlayCancelled(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 5, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := g.SelfPlay(ctx, move.White)
	is.True(errors.Is(err, context.Canceled))
	is.Equal(n, 0)
}

func TestSolve(t *testing.T) {
	is := is.New(t)
	g := newTestGame(t, 3, 10)
	is.NoErr(g.Play(move.Black, move.FromCoords(2, 2)))
	before := g.Board().ZobristKey()
	m, _, err := g.Solve(context.Background(), move.White)
	is.NoErr(err)
	is.True(m.IsPass() || g.Board().IsMoveValid(move.White, m))
	is.Equal(g.Board().ZobristKey(), before)
	is.Equal(len(g.History()), 1)
}

func TestSearchLogFile(t *testing.T) {
	is := is.New(t)
	fn := filepath.Join(t.TempDir(), "search.yaml")
	cfg := testConfig(5, 20)
	cfg.Set(config.ConfigSearchLog, fn)
	g, err := NewGame(cfg)
	is.NoErr(err)
	_, err = g.GenMove(context.Background(), move.Black)
	is.NoErr(err)
	is.NoErr(g.Close())

	bts, err := os.ReadFile(fn)
	is.NoErr(err)
	is.True(len(bts) > 0)
	is.Equal(string(bts[:4]), "---\n")
}
