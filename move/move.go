// Package move holds the compact move encoding shared by the board, the
// searchers and the protocol layer.
package move

import "fmt"

// Color is the contents of a point on the board. The same type is used to
// name the player on turn; only Black and White are valid players.
type Color uint8

const (
	Empty Color = iota
	Black
	White
	// Border marks the sentinel frame around the playable grid.
	Border
)

// Opponent returns the other player. It must only be called for Black or
// White.
func (c Color) Opponent() Color {
	return 3 - c
}

// IsPlayer is true for Black and White.
func (c Color) IsPlayer() bool {
	return c == Black || c == White
}

// Index maps Black and White to 0 and 1, for per-player arrays.
func (c Color) Index() int {
	return int(c) - 1
}

func (c Color) String() string {
	switch c {
	case Empty:
		return "empty"
	case Black:
		return "black"
	case White:
		return "white"
	case Border:
		return "border"
	}
	return "invalid"
}

// A Move packs a 1-indexed coordinate pair into 16 bits: the column (x)
// lives in the upper byte and the row (y) in the lower byte.
type Move uint16

const (
	// Null means "no move". It is used for ko and atari bookkeeping.
	Null Move = 0
	// Pass is the pass sentinel. No coordinate pair can produce it.
	Pass Move = 0x8000
)

// FromCoords builds a move from 1-indexed coordinates.
func FromCoords(x, y int) Move {
	return Move(x<<8 | y)
}

func (m Move) X() int {
	return int(m >> 8)
}

func (m Move) Y() int {
	return int(m & 0xFF)
}

func (m Move) IsPass() bool {
	return m == Pass
}

func (m Move) IsNull() bool {
	return m == Null
}

// String is for debugging only; the protocol layer owns the textual
// coordinate format.
func (m Move) String() string {
	switch m {
	case Pass:
		return "pass"
	case Null:
		return "null"
	}
	return fmt.Sprintf("(%d,%d)", m.X(), m.Y())
}
