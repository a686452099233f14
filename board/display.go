package board

import (
	"fmt"
	"strings"

	"github.com/domino14/goban/move"
)

// ColumnLetters are the board column labels. I is skipped, as is customary.
const ColumnLetters = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

func stoneChar(c move.Color) byte {
	switch c {
	case move.Black:
		return 'X'
	case move.White:
		return 'O'
	}
	return '.'
}

func (b *Board) columnHeader(sb *strings.Builder) {
	sb.WriteString("   ")
	for x := 0; x < b.size; x++ {
		sb.WriteByte(ColumnLetters[x])
		sb.WriteByte(' ')
	}
	sb.WriteString("\n")
}

// ToDisplayText renders the board with row 1 at the bottom, for debugging
// and the showboard command.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	b.columnHeader(&sb)
	for y := b.size; y >= 1; y-- {
		fmt.Fprintf(&sb, "%2d ", y)
		for x := 1; x <= b.size; x++ {
			sb.WriteByte(stoneChar(b.stones[b.index(move.FromCoords(x, y))]))
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", y)
		if y == b.size {
			fmt.Fprintf(&sb, "    captures X: %d O: %d",
				b.captures[move.Black.Index()], b.captures[move.White.Index()])
		}
		sb.WriteString("\n")
	}
	b.columnHeader(&sb)
	return sb.String()
}

// SetFromText loads stones from rows of 'X', 'O' and '.', top row first,
// the same orientation ToDisplayText prints. Stones are placed through
// DoMove, so they must form a legal position. Intended for tests.
func (b *Board) SetFromText(rows []string) error {
	if len(rows) != b.size {
		return fmt.Errorf("expected %d rows, got %d", b.size, len(rows))
	}
	b.Reset()
	for i, row := range rows {
		row = strings.ReplaceAll(row, " ", "")
		if len(row) != b.size {
			return fmt.Errorf("row %d has %d points, expected %d", i+1, len(row), b.size)
		}
		y := b.size - i
		for x := 1; x <= b.size; x++ {
			var c move.Color
			switch row[x-1] {
			case 'X', 'x':
				c = move.Black
			case 'O', 'o':
				c = move.White
			case '.', '+':
				continue
			default:
				return fmt.Errorf("bad point %q in row %d", row[x-1], i+1)
			}
			m := move.FromCoords(x, y)
			if !b.IsMoveValid(c, m) {
				return fmt.Errorf("stone at %v would have no liberties", m)
			}
			b.DoMove(c, m)
		}
	}
	if b.captures != [2]int{} {
		return fmt.Errorf("loading captured stones; reorder or fix the position")
	}
	b.koPoint = move.Null
	return nil
}
