package zobrist

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"lukechampine.com/frand"

	"github.com/domino14/goban/cache"
	"github.com/domino14/goban/move"
)

const bignum = 1<<63 - 2

// generate a zobrist hash for a Go position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
// Only stones are hashed. The key is toggled with StoneKey on every
// placement and every removal, so two boards holding the same stones hash
// the same no matter how they got there.
type Zobrist struct {
	// posTable[idx][0] is black, posTable[idx][1] is white.
	posTable  [][2]uint64
	arraySize int
}

var tableSeed atomic.Uint64

// SetTableSeed makes the tables ForSize builds from now on reproducible.
// 0 goes back to random tables. Boards already built keep their table.
func SetTableSeed(seed uint64) {
	tableSeed.Store(seed)
}

// Initialize builds a random table for a grid of arraySize x arraySize
// points, border included.
func (z *Zobrist) Initialize(arraySize int) {
	z.InitializeSeeded(arraySize, 0)
}

// InitializeSeeded is Initialize with the table drawn from seed. A zero
// seed draws it from frand.
func (z *Zobrist) InitializeSeeded(arraySize int, seed uint64) {
	next := func() uint64 { return frand.Uint64n(bignum) + 1 }
	if seed != 0 {
		rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
		next = func() uint64 { return rng.Uint64N(bignum) + 1 }
	}
	z.arraySize = arraySize
	z.posTable = make([][2]uint64, arraySize*arraySize)
	for i := range z.posTable {
		for j := 0; j < 2; j++ {
			z.posTable[i][j] = next()
		}
	}
}

func (z *Zobrist) ArraySize() int {
	return z.arraySize
}

// StoneKey is the value to xor in or out when a stone of color c appears
// on or disappears from grid index idx.
func (z *Zobrist) StoneKey(c move.Color, idx int) uint64 {
	return z.posTable[idx][c.Index()]
}

// Hash computes a key from scratch. stones is the full grid, border
// included.
func (z *Zobrist) Hash(stones []move.Color) uint64 {
	key := uint64(0)
	for idx, c := range stones {
		if c == move.Black || c == move.White {
			key ^= z.StoneKey(c, idx)
		}
	}
	return key
}

// ForSize returns the shared table for an N x N board, drawn from the
// seed given to SetTableSeed.
func ForSize(boardSize int) *Zobrist {
	seed := tableSeed.Load()
	obj, err := cache.Load(fmt.Sprintf("zobrist:%d:%d", boardSize, seed), func(string) (any, error) {
		z := &Zobrist{}
		z.InitializeSeeded(boardSize+2, seed)
		return z, nil
	})
	if err != nil {
		// the loader above cannot fail
		panic(err)
	}
	return obj.(*Zobrist)
}
