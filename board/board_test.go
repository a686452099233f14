package board

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/goban/move"
)

func mv(x, y int) move.Move {
	return move.FromCoords(x, y)
}

func TestCenterStone(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.SetVerify(true)
	b.DoMove(move.Black, mv(5, 5))

	ci, ok := b.ChainAt(mv(5, 5))
	is.True(ok)
	is.Equal(ci.ID, 1)
	is.Equal(ci.Size, 1)
	is.Equal(ci.Liberties, 4)
	is.Equal(ci.Color, move.Black)
	is.Equal(b.CapturedStones(move.Black), 0)
	is.Equal(b.CapturedStones(move.White), 0)
	is.Equal(b.NumChains(), 1)
	is.True(b.ZobristKey() != 0)
}

func TestSurroundCapture(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.SetVerify(true)
	b.DoMove(move.Black, mv(5, 5))
	b.DoMove(move.White, mv(6, 5))
	b.DoMove(move.White, mv(4, 5))
	b.DoMove(move.White, mv(5, 6))
	is.Equal(b.Liberties(mv(5, 5)), 1)
	is.True(b.InAtari(mv(5, 5)))
	b.DoMove(move.White, mv(5, 4))

	is.Equal(b.At(mv(5, 5)), move.Empty)
	_, ok := b.ChainAt(mv(5, 5))
	is.True(!ok)
	is.Equal(b.CapturedStones(move.White), 1)
	is.Equal(b.CapturedStones(move.Black), 0)
	for _, w := range []move.Move{mv(6, 5), mv(4, 5), mv(5, 6), mv(5, 4)} {
		is.True(slices.Contains(b.ChainLiberties(w), mv(5, 5)))
		is.Equal(b.Liberties(w), 4)
	}
	// one stone captured by a single stone marks the ko point, even though
	// retaking here would be suicide.
	is.Equal(b.KoPoint(), mv(5, 5))
	is.True(!b.IsMoveValid(move.Black, mv(5, 5)))
	is.Equal(b.NumChains(), 4)
}

func TestSuicideRejected(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.DoMove(move.White, mv(2, 1))
	b.DoMove(move.White, mv(1, 2))
	is.True(!b.IsMoveValid(move.Black, mv(1, 1)))
	is.True(b.IsMoveValid(move.White, mv(1, 1)))
	is.True(b.IsMoveValid(move.Black, move.Pass))
	// occupied and off-board points are never valid
	is.True(!b.IsMoveValid(move.Black, mv(2, 1)))
	is.True(!b.IsMoveValid(move.Black, mv(10, 1)))
	is.True(!b.IsMoveValid(move.Black, mv(0, 3)))
}

func TestMultiStoneSuicideRejected(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.SetVerify(true)
	b.DoMove(move.Black, mv(1, 1))
	b.DoMove(move.Black, mv(2, 1))
	b.DoMove(move.White, mv(3, 1))
	b.DoMove(move.White, mv(1, 2))
	b.DoMove(move.White, mv(3, 2))
	b.DoMove(move.White, mv(2, 3))
	// 2-2 is the black pair's last liberty and captures nothing.
	is.Equal(b.Liberties(mv(1, 1)), 1)
	is.True(!b.IsMoveValid(move.Black, mv(2, 2)))
	is.True(b.IsMoveValid(move.White, mv(2, 2)))
	b.DoMove(move.White, mv(2, 2))
	is.Equal(b.At(mv(1, 1)), move.Empty)
	is.Equal(b.At(mv(2, 1)), move.Empty)
}

func TestSuicideThatCapturesIsValid(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.SetVerify(true)
	// white stone at 2-1 with black around it except 1-1
	b.DoMove(move.White, mv(2, 1))
	b.DoMove(move.White, mv(1, 2))
	b.DoMove(move.Black, mv(3, 1))
	b.DoMove(move.Black, mv(2, 2))
	b.DoMove(move.Black, mv(1, 3))
	// 1-1 is surrounded by white, but both white stones have only 1-1
	// left as a liberty.
	is.True(b.IsMoveValid(move.Black, mv(1, 1)))
	b.DoMove(move.Black, mv(1, 1))
	is.Equal(b.CapturedStones(move.Black), 2)
	is.Equal(b.At(mv(2, 1)), move.Empty)
	is.Equal(b.At(mv(1, 2)), move.Empty)
	is.Equal(b.Liberties(mv(1, 1)), 2)
	// two stones were captured, so no ko
	is.Equal(b.KoPoint(), move.Null)
}

func TestConnectingKeepsLiberty(t *testing.T) {
	is := is.New(t)
	b := NewBoard(5)
	b.DoMove(move.Black, mv(1, 2))
	b.DoMove(move.White, mv(1, 3))
	b.DoMove(move.White, mv(2, 2))
	b.DoMove(move.White, mv(2, 1))
	// black 1-2 has one liberty at 1-1; filling it is suicide.
	is.True(!b.IsMoveValid(move.Black, mv(1, 1)))

	b = NewBoard(5)
	b.DoMove(move.Black, mv(1, 2))
	b.DoMove(move.Black, mv(1, 3))
	b.DoMove(move.White, mv(2, 1))
	// 1-1 has no empty neighbor, but joins a chain with other liberties.
	is.True(b.IsMoveValid(move.Black, mv(1, 1)))
	is.True(b.IsMoveValid(move.White, mv(1, 1)))
}

func TestMergeKeepsFirstScannedID(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.SetVerify(true)
	b.DoMove(move.Black, mv(3, 3)) // id 1
	b.DoMove(move.Black, mv(5, 3)) // id 2
	b.DoMove(move.Black, mv(4, 4)) // id 3
	// 4-3 touches 5-3 (east), 3-3 (west) and 4-4 (north); east wins.
	b.DoMove(move.Black, mv(4, 3))

	ci, ok := b.ChainAt(mv(3, 3))
	is.True(ok)
	is.Equal(ci.ID, 2)
	is.Equal(ci.Size, 4)
	is.Equal(b.NumChains(), 1)
	// liberties: 2-3,3-2,3-4 ; 6-3,5-2,5-4 ; 4-5,3-4(dup),5-4(dup) ; 4-2
	is.Equal(ci.Liberties, 8)

	// freed ids are reused
	b.DoMove(move.White, mv(8, 8))
	wi, _ := b.ChainAt(mv(8, 8))
	is.True(wi.ID == 1 || wi.ID == 3)
}

func TestExtendSingleNeighbor(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.SetVerify(true)
	b.DoMove(move.White, mv(1, 1))
	b.DoMove(move.White, mv(2, 1))
	ci, _ := b.ChainAt(mv(1, 1))
	is.Equal(ci.ID, 1)
	is.Equal(ci.Size, 2)
	is.Equal(ci.Liberties, 3)
	is.Equal(b.ChainMembers(mv(2, 1)), []move.Move{mv(1, 1), mv(2, 1)})
}

// koSetup builds
//
//	6 . X O .
//	5 X O . O
//	4 . X O .
//	  3 4 5 6
func koSetup(b *Board) {
	b.DoMove(move.Black, mv(4, 6))
	b.DoMove(move.White, mv(5, 6))
	b.DoMove(move.Black, mv(3, 5))
	b.DoMove(move.White, mv(4, 5))
	b.DoMove(move.White, mv(6, 5))
	b.DoMove(move.Black, mv(4, 4))
	b.DoMove(move.White, mv(5, 4))
}

func TestKoPoint(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.SetVerify(true)
	koSetup(b)
	before := b.ZobristKey()

	is.True(b.IsMoveValid(move.Black, mv(5, 5)))
	b.DoMove(move.Black, mv(5, 5))
	is.Equal(b.CapturedStones(move.Black), 1)
	is.Equal(b.KoPoint(), mv(4, 5))

	// The board alone allows the recapture; the repetition is only visible
	// through the hash.
	is.True(b.IsMoveValid(move.White, mv(4, 5)))
	b.DoMove(move.White, mv(4, 5))
	is.Equal(b.ZobristKey(), before)
	is.Equal(b.KoPoint(), mv(5, 5))

	b.DoMove(move.Black, move.Pass)
	is.Equal(b.KoPoint(), move.Null)
}

func TestHashOrderIndependent(t *testing.T) {
	is := is.New(t)
	a := NewBoard(9)
	a.DoMove(move.Black, mv(3, 3))
	a.DoMove(move.White, mv(7, 7))
	a.DoMove(move.Black, mv(3, 7))

	b := NewBoard(9)
	b.DoMove(move.Black, mv(3, 7))
	b.DoMove(move.White, mv(7, 7))
	b.DoMove(move.Black, mv(3, 3))
	is.Equal(a.ZobristKey(), b.ZobristKey())

	c := NewBoard(9)
	c.DoMove(move.White, mv(3, 3))
	c.DoMove(move.Black, mv(7, 7))
	c.DoMove(move.Black, mv(3, 7))
	is.True(a.ZobristKey() != c.ZobristKey())
}

func TestResetReplay(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	rng := rand.New(rand.NewPCG(7, 11))
	played := playRandom(b, rng, 120)
	key := b.ZobristKey()
	caps := [2]int{b.CapturedStones(move.Black), b.CapturedStones(move.White)}

	b.Reset()
	is.Equal(b.ZobristKey(), uint64(0))
	is.True(b.IsEmpty())
	is.Equal(b.NumChains(), 0)
	for _, p := range played {
		b.DoMove(p.color, p.m)
	}
	is.Equal(b.ZobristKey(), key)
	is.Equal(b.CapturedStones(move.Black), caps[0])
	is.Equal(b.CapturedStones(move.White), caps[1])
	is.NoErr(b.Verify())
}

type played struct {
	color move.Color
	m     move.Move
}

// playRandom plays n random valid moves (or passes when nothing is valid),
// alternating colors, and returns what was played.
func playRandom(b *Board, rng *rand.Rand, n int) []played {
	var out []played
	c := move.Black
	for i := 0; i < n; i++ {
		moves := b.LegalMoves(c)
		rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
		pick := move.Pass
		for _, m := range moves {
			if m != move.Pass && b.IsMoveValid(c, m) && !b.IsEye(c, m) {
				pick = m
				break
			}
		}
		b.DoMove(c, pick)
		out = append(out, played{c, pick})
		c = c.Opponent()
	}
	return out
}

func TestRandomGamesKeepInvariants(t *testing.T) {
	is := is.New(t)
	for _, size := range []int{5, 9, 13} {
		b := NewBoard(size)
		rng := rand.New(rand.NewPCG(uint64(size), 3))
		c := move.Black
		for i := 0; i < size*size*2; i++ {
			moves := b.LegalMoves(c)
			rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })
			pick := move.Pass
			for _, m := range moves {
				if m != move.Pass && b.IsMoveValid(c, m) && !b.IsEye(c, m) {
					pick = m
					break
				}
			}
			b.DoMove(c, pick)
			is.NoErr(b.Verify())
			c = c.Opponent()
		}
	}
}

func TestLegalMoves(t *testing.T) {
	is := is.New(t)
	b := NewBoard(3)
	moves := b.LegalMoves(move.Black)
	is.Equal(len(moves), 10)
	is.Equal(moves[len(moves)-1], move.Pass)
	b.DoMove(move.Black, mv(2, 2))
	moves = b.LegalMoves(move.White)
	is.Equal(len(moves), 9)
	is.True(!slices.Contains(moves, mv(2, 2)))
}

func TestIsEye(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	for _, m := range []move.Move{mv(4, 5), mv(6, 5), mv(5, 4), mv(5, 6)} {
		b.DoMove(move.Black, m)
	}
	is.True(b.IsEye(move.Black, mv(5, 5)))
	is.True(!b.IsEye(move.White, mv(5, 5)))
	is.True(!b.IsEye(move.Black, mv(4, 4)))

	// the edge never counts
	b.DoMove(move.Black, mv(2, 1))
	b.DoMove(move.Black, mv(1, 2))
	is.True(!b.IsEye(move.Black, mv(1, 1)))
}

func TestCopyIsIndependent(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	koSetup(b)
	cp := b.Copy()
	is.Equal(cp.ZobristKey(), b.ZobristKey())

	cp.DoMove(move.Black, mv(5, 5))
	is.Equal(b.At(mv(4, 5)), move.White)
	is.Equal(cp.At(mv(4, 5)), move.Empty)
	is.True(cp.ZobristKey() != b.ZobristKey())
	is.Equal(b.CapturedStones(move.Black), 0)
	is.NoErr(b.Verify())
	is.NoErr(cp.Verify())

	// CopyFrom reuses buffers and fully overwrites.
	cp.CopyFrom(b)
	is.Equal(cp.ZobristKey(), b.ZobristKey())
	is.Equal(cp.At(mv(4, 5)), move.White)
	is.NoErr(cp.Verify())
	cp.DoMove(move.White, mv(9, 9))
	is.Equal(b.At(mv(9, 9)), move.Empty)
	is.NoErr(b.Verify())
}

func TestDoMoveOccupiedPanics(t *testing.T) {
	is := is.New(t)
	b := NewBoard(9)
	b.DoMove(move.Black, mv(3, 3))
	defer func() {
		is.True(recover() != nil)
	}()
	b.DoMove(move.White, mv(3, 3))
}

func TestDisplayRoundTrip(t *testing.T) {
	is := is.New(t)
	b := NewBoard(5)
	err := b.SetFromText([]string{
		". X . . .",
		"X O . . .",
		". X . . O",
		". . . . .",
		". . . O .",
	})
	is.NoErr(err)
	is.Equal(b.At(mv(2, 4)), move.White)
	is.Equal(b.At(mv(2, 5)), move.Black)
	is.Equal(b.At(mv(4, 1)), move.White)
	is.Equal(b.Liberties(mv(2, 4)), 1)
	txt := b.ToDisplayText()
	is.True(len(txt) > 0)

	err = b.SetFromText([]string{"...", "..."})
	is.True(err != nil)
}
