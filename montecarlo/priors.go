package montecarlo

import (
	"github.com/domino14/goban/board"
	"github.com/domino14/goban/move"
)

// PriorWeights are virtual playout results added to a root child before
// the search proper starts. Bonuses count as won visits, penalties as lost
// visits. Every child also starts with Visits neutral visits, half won, so
// one real playout does not decide its win rate.
type PriorWeights struct {
	AtariEscape  int
	AtariCapture int
	Opening      int
	EyeFill      int
	Visits       int
}

// prior is the virtual result for one candidate.
type prior struct {
	wins   int
	visits int
}

// rootPrior computes the prior for color playing m on before, where after
// is the position once m has been played.
func (w PriorWeights) rootPrior(before, after *board.Board, color move.Color,
	m, lastMove move.Move) prior {

	p := prior{wins: w.Visits / 2, visits: w.Visits}
	if m.IsPass() {
		return p
	}
	if escapesAtari(before, after, color, m) {
		p.wins += w.AtariEscape
		p.visits += w.AtariEscape
	}
	if after.CapturedStones(color) > before.CapturedStones(color) {
		// taking back the stone just played counts twice.
		bonus := w.AtariCapture
		if before.OnBoard(lastMove) && before.At(lastMove) == color.Opponent() &&
			after.At(lastMove) == move.Empty {
			bonus *= 2
		}
		p.wins += bonus
		p.visits += bonus
	}
	if isOpeningPoint(before, m) {
		p.wins += w.Opening
		p.visits += w.Opening
	}
	if fillsOwnEye(before, color, m) {
		p.visits += w.EyeFill
	}
	return p
}

// escapesAtari is true if m touches one of color's chains that was in
// atari and the chain now holding m has more than one liberty.
func escapesAtari(before, after *board.Board, color move.Color, m move.Move) bool {
	inAtari := false
	for _, n := range board.Neighbors(m) {
		if before.At(n) == color && before.InAtari(n) {
			inAtari = true
			break
		}
	}
	return inAtari && after.Liberties(m) > 1
}

// isOpeningPoint is true for points on the third or fourth line in both
// directions while the board is still nearly empty.
func isOpeningPoint(b *board.Board, m move.Move) bool {
	size := b.Size()
	if size < 7 {
		return false
	}
	if b.StoneCount(move.Black)+b.StoneCount(move.White) >= size/2 {
		return false
	}
	line := func(v int) int { return min(v, size+1-v) }
	lx, ly := line(m.X()), line(m.Y())
	return (lx == 3 || lx == 4) && (ly == 3 || ly == 4)
}

// fillsOwnEye is true if m is one of color's eyes and none of the chains
// around it is in atari. With a chain in atari the point may be its last
// liberty, which is a ko or capture race rather than a wasted move.
func fillsOwnEye(b *board.Board, color move.Color, m move.Move) bool {
	if !b.IsEye(color, m) {
		return false
	}
	for _, n := range board.Neighbors(m) {
		if b.InAtari(n) {
			return false
		}
	}
	return true
}
