package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/goban/move"
)

var (
	ErrHandicapNotEmpty  = errors.New("board is not empty")
	ErrHandicapCount     = errors.New("invalid number of handicap stones")
	ErrHandicapBoardSize = errors.New("board is too small for handicap stones")
)

const minHandicapBoardSize = 7

// HandicapPoints returns the fixed handicap placement for n stones on a
// size x size board, in the usual order: opposite corners first, then the
// other two corners, the side points, and the center when n is odd. Odd
// boards take up to 9 stones, even boards up to 4.
func HandicapPoints(size, n int) ([]move.Move, error) {
	if size < minHandicapBoardSize {
		return nil, fmt.Errorf("%w: %d", ErrHandicapBoardSize, size)
	}
	maxStones := 4
	if size%2 == 1 {
		maxStones = 9
	}
	if n < 2 || n > maxStones {
		return nil, fmt.Errorf("%w: %d (must be 2 to %d)", ErrHandicapCount, n, maxStones)
	}

	line := 3
	if size >= 13 {
		line = 4
	}
	low, mid, high := line, (size+1)/2, size+1-line

	pts := []move.Move{move.FromCoords(low, low), move.FromCoords(high, high)}
	if n >= 3 {
		pts = append(pts, move.FromCoords(low, high))
	}
	if n >= 4 {
		pts = append(pts, move.FromCoords(high, low))
	}
	if n >= 6 {
		pts = append(pts, move.FromCoords(low, mid), move.FromCoords(high, mid))
	}
	if n >= 8 {
		pts = append(pts, move.FromCoords(mid, low), move.FromCoords(mid, high))
	}
	if n >= 5 && n%2 == 1 {
		pts = append(pts, move.FromCoords(mid, mid))
	}
	return pts, nil
}

// FixedHandicap puts n black stones on the standard points of an empty
// board. They are not part of the move history; White moves next.
func (g *Game) FixedHandicap(n int) ([]move.Move, error) {
	if !g.board.IsEmpty() {
		return nil, ErrHandicapNotEmpty
	}
	pts, err := HandicapPoints(g.board.Size(), n)
	if err != nil {
		return nil, err
	}
	g.placeHandicap(pts)
	log.Debug().Int("stones", n).Msg("handicap-placed")
	return pts, nil
}

func (g *Game) placeHandicap(pts []move.Move) {
	for _, p := range pts {
		g.board.DoMove(move.Black, p)
	}
	g.handicap = pts
}
