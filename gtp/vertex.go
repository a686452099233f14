package gtp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/domino14/goban/board"
	"github.com/domino14/goban/move"
)

var (
	ErrBadCoordinate = errors.New("invalid coordinate")
	ErrBadColor      = errors.New("invalid color")
)

// ParseVertex reads a GTP vertex such as "D4", "t19" or "pass" for a board
// of the given size. The column letter I is not used.
func ParseVertex(s string, size int) (move.Move, error) {
	if strings.EqualFold(s, "pass") {
		return move.Pass, nil
	}
	if len(s) < 2 {
		return move.Null, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	x := strings.IndexByte(board.ColumnLetters, strings.ToUpper(s[:1])[0]) + 1
	y, err := strconv.Atoi(s[1:])
	if err != nil || x < 1 || x > size || y < 1 || y > size {
		return move.Null, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	return move.FromCoords(x, y), nil
}

// VertexString is the GTP form of m.
func VertexString(m move.Move) string {
	if m.IsPass() {
		return "pass"
	}
	return fmt.Sprintf("%c%d", board.ColumnLetters[m.X()-1], m.Y())
}

// ParseColor accepts "black", "b", "white" and "w" in any case.
func ParseColor(s string) (move.Color, error) {
	switch strings.ToLower(s) {
	case "black", "b":
		return move.Black, nil
	case "white", "w":
		return move.White, nil
	}
	return move.Empty, fmt.Errorf("%w: %q", ErrBadColor, s)
}

// ScoreString formats a score from Black's point of view the way
// final_score reports it: "B+3.5", "W+0.5" or "0".
func ScoreString(score float64) string {
	switch {
	case score > 0:
		return "B+" + strconv.FormatFloat(score, 'f', -1, 64)
	case score < 0:
		return "W+" + strconv.FormatFloat(-score, 'f', -1, 64)
	}
	return "0"
}
