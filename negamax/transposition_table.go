package negamax

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/goban/move"
)

const (
	TTExact = 0x01
	TTLower = 0x02
	TTUpper = 0x03
)

const entrySize = 16

const depthMask = (1 << 6) - 1

// Table sizes are kept between 2^minPowerOf2 and 2^maxPowerOf2 entries.
const (
	minPowerOf2 = 12
	maxPowerOf2 = 26
)

// 16 bytes (entrySize)
type TableEntry struct {
	key          uint64
	score        float32
	flagAndDepth uint8
	play         move.Move
}

func (t TableEntry) flag() uint8 {
	return t.flagAndDepth >> 6
}

func (t TableEntry) depth() uint8 {
	return t.flagAndDepth & depthMask
}

func (t TableEntry) valid() bool {
	// a table flag is 1, 2, or 3.
	return t.flag() != 0
}

func (t TableEntry) move() move.Move {
	return t.play
}

// TranspositionTable caches search results by position and side to move.
// It is always-replace and single-threaded.
type TranspositionTable struct {
	table        []TableEntry
	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64
	// positions that landed in an occupied slot holding another key.
	collisions atomic.Uint64
}

func (t *TranspositionTable) lookup(key uint64) TableEntry {
	t.lookups.Add(1)
	idx := key & t.sizeMask
	if t.table[idx].key != key {
		if t.table[idx].valid() {
			t.collisions.Add(1)
		}
		return TableEntry{}
	}
	t.hits.Add(1)
	return t.table[idx]
}

func (t *TranspositionTable) store(key uint64, tentry TableEntry) {
	idx := key & t.sizeMask
	tentry.key = key
	// just overwrite whatever is there for now.
	t.table[idx] = tentry
	t.created.Add(1)
}

// Reset sizes the table to roughly fractionOfMemory of the system's
// memory, rounded down to a power of two, and empties it.
func (t *TranspositionTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	// find biggest power of 2 lower than desired.
	t.sizePowerOf2 = int(math.Log2(max(desiredNElems, 1)))
	t.sizePowerOf2 = min(max(t.sizePowerOf2, minPowerOf2), maxPowerOf2)

	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("transposition-table-size")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.collisions.Store(0)
}

// Size is the number of slots in the table.
func (t *TranspositionTable) Size() int {
	return len(t.table)
}
