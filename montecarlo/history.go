package montecarlo

import (
	"github.com/domino14/goban/move"
)

// History accumulates, per color and point, how much a move contributed
// to won playouts when it was played below the root. It survives between
// searches and is decayed rather than cleared, so recent games weigh more.
type History struct {
	size  int
	table [2][]float64
}

// NewHistory returns an empty table for boards of the given size.
func NewHistory(size int) *History {
	h := &History{size: size}
	n := (size + 2) * (size + 2)
	h.table[0] = make([]float64, n)
	h.table[1] = make([]float64, n)
	return h
}

func (h *History) Size() int {
	return h.size
}

func (h *History) index(m move.Move) (int, bool) {
	if m.IsPass() || m.IsNull() {
		return 0, false
	}
	x, y := m.X(), m.Y()
	if x < 1 || y < 1 || x > h.size || y > h.size {
		return 0, false
	}
	return x + y*(h.size+2), true
}

// Add adds delta to the entry for c at m. Pass and off-board moves are
// ignored.
func (h *History) Add(c move.Color, m move.Move, delta float64) {
	if idx, ok := h.index(m); ok {
		h.table[c.Index()][idx] += delta
	}
}

// Get returns the entry for c at m.
func (h *History) Get(c move.Color, m move.Move) float64 {
	if idx, ok := h.index(m); ok {
		return h.table[c.Index()][idx]
	}
	return 0
}

// Decay multiplies every entry by f.
func (h *History) Decay(f float64) {
	for c := range h.table {
		for i := range h.table[c] {
			h.table[c][i] *= f
		}
	}
}

// Reset zeroes the table.
func (h *History) Reset() {
	clear(h.table[0])
	clear(h.table[1])
}
