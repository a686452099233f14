package montecarlo

import (
	"math/rand/v2"

	"github.com/domino14/goban/board"
	"github.com/domino14/goban/move"
)

// playout plays a game out to the end with uniformly random moves. It is
// reused across iterations to keep its buffer.
type playout struct {
	rng      *rand.Rand
	maxMoves int
	koLimit  int
	buf      []move.Move
}

// randomMove picks a uniformly random move for c among the empty points,
// skipping own-eye fills, invalid moves and, once koRun reaches the limit,
// another immediate ko recapture. It returns Pass when nothing is left.
func (p *playout) randomMove(b *board.Board, c move.Color, koRun int) move.Move {
	p.buf = b.EmptyPoints(p.buf[:0])
	ko := b.KoPoint()
	for len(p.buf) > 0 {
		i := p.rng.IntN(len(p.buf))
		m := p.buf[i]
		// swap-remove so each point is drawn at most once.
		p.buf[i] = p.buf[len(p.buf)-1]
		p.buf = p.buf[:len(p.buf)-1]

		if m == ko && koRun >= p.koLimit {
			continue
		}
		if b.IsEye(c, m) || !b.IsMoveValid(c, m) {
			continue
		}
		return m
	}
	return move.Pass
}

// run plays on b starting with toMove until both sides pass in a row or
// the move budget runs out, and returns the number of moves made.
func (p *playout) run(b *board.Board, toMove move.Color) int {
	passes := 0
	koRun := 0
	n := 0
	for ; n < p.maxMoves && passes < 2; n++ {
		ko := b.KoPoint()
		m := p.randomMove(b, toMove, koRun)
		if m.IsPass() {
			passes++
		} else {
			passes = 0
		}
		if !ko.IsNull() && m == ko {
			koRun++
		} else {
			koRun = 0
		}
		b.DoMove(toMove, m)
		toMove = toMove.Opponent()
	}
	return n
}
