// Package board keeps the authoritative Go position: the stone grid, the
// chains and their liberties, capture counts and the position hash.
package board

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/domino14/goban/move"
	"github.com/domino14/goban/zobrist"
)

// Neighbor offsets in move space, in the fixed scan order east, west,
// north, south. x lives in the high byte of a Move, y in the low byte.
var directions = [4]int{0x100, -0x100, 1, -1}

func neighbors(m move.Move) [4]move.Move {
	return [4]move.Move{
		move.Move(int(m) + directions[0]),
		move.Move(int(m) + directions[1]),
		move.Move(int(m) + directions[2]),
		move.Move(int(m) + directions[3]),
	}
}

// Neighbors returns the four orthogonal neighbors of m in scan order. Some
// of them may be Border points.
func Neighbors(m move.Move) [4]move.Move {
	return neighbors(m)
}

// Board is an N x N Go board surrounded by a one-point Border frame, so
// neighbor scans never need an edge check.
type Board struct {
	size      int
	arraySize int

	stones  []move.Color
	chainID []int

	chains     []chain
	free       []int
	liveChains int

	// captures[c.Index()] is the number of stones captured BY color c.
	captures [2]int
	key      uint64
	koPoint  move.Move

	z      *zobrist.Zobrist
	verify bool
}

// NewBoard returns an empty board of the given size.
func NewBoard(size int) *Board {
	b := &Board{
		size:      size,
		arraySize: size + 2,
		z:         zobrist.ForSize(size),
	}
	b.stones = make([]move.Color, b.arraySize*b.arraySize)
	b.chainID = make([]int, b.arraySize*b.arraySize)
	b.Reset()
	return b
}

// Reset empties the board, zeroes the hash and the capture counters, and
// drops every chain.
func (b *Board) Reset() {
	for y := 0; y < b.arraySize; y++ {
		for x := 0; x < b.arraySize; x++ {
			idx := x + y*b.arraySize
			if x == 0 || y == 0 || x == b.arraySize-1 || y == b.arraySize-1 {
				b.stones[idx] = move.Border
			} else {
				b.stones[idx] = move.Empty
			}
			b.chainID[idx] = 0
		}
	}
	for i := range b.chains {
		b.chains[i].alive = false
		b.chains[i].members = b.chains[i].members[:0]
		b.chains[i].liberties = b.chains[i].liberties[:0]
	}
	// slot 0 is the "no chain" id and never handed out.
	b.chains = b.chains[:0]
	b.chains = append(b.chains, chain{})
	b.free = b.free[:0]
	b.liveChains = 0
	b.captures = [2]int{}
	b.key = 0
	b.koPoint = move.Null
}

// Copy returns a deep copy of the board. The zobrist table is shared.
func (b *Board) Copy() *Board {
	nb := &Board{}
	nb.CopyFrom(b)
	return nb
}

// CopyFrom makes b a deep copy of o, reusing b's buffers where it can.
// Searchers call this once per playout.
func (b *Board) CopyFrom(o *Board) {
	b.size = o.size
	b.arraySize = o.arraySize
	b.z = o.z
	b.verify = o.verify
	b.stones = append(b.stones[:0], o.stones...)
	b.chainID = append(b.chainID[:0], o.chainID...)
	if cap(b.chains) < len(o.chains) {
		grown := make([]chain, len(o.chains))
		copy(grown, b.chains[:cap(b.chains)])
		b.chains = grown
	}
	b.chains = b.chains[:len(o.chains)]
	for i := range o.chains {
		b.chains[i].copyFrom(&o.chains[i])
	}
	b.free = append(b.free[:0], o.free...)
	b.liveChains = o.liveChains
	b.captures = o.captures
	b.key = o.key
	b.koPoint = o.koPoint
}

// SetVerify turns on the consistency check after every DoMove. It is
// meant for debug runs and tests; it is slow.
func (b *Board) SetVerify(v bool) {
	b.verify = v
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) index(m move.Move) int {
	return m.X() + m.Y()*b.arraySize
}

func (b *Board) moveAt(idx int) move.Move {
	return move.FromCoords(idx%b.arraySize, idx/b.arraySize)
}

// OnBoard is true for coordinates inside the playable grid.
func (b *Board) OnBoard(m move.Move) bool {
	if m.IsPass() || m.IsNull() {
		return false
	}
	x, y := m.X(), m.Y()
	return x >= 1 && x <= b.size && y >= 1 && y <= b.size
}

// At returns what is on the point m.
func (b *Board) At(m move.Move) move.Color {
	return b.stones[b.index(m)]
}

// CapturedStones is the number of stones color c has captured.
func (b *Board) CapturedStones(c move.Color) int {
	return b.captures[c.Index()]
}

// ZobristKey is the hash of the current stone configuration.
func (b *Board) ZobristKey() uint64 {
	return b.key
}

// KoPoint is the point where a single stone was just captured by a single
// stone, or Null. Retaking there right away would be an immediate ko
// recapture.
func (b *Board) KoPoint() move.Move {
	return b.koPoint
}

// IsEmpty is true if there are no stones on the board.
func (b *Board) IsEmpty() bool {
	return b.liveChains == 0
}

// StoneCount returns the number of stones of color c on the board.
func (b *Board) StoneCount(c move.Color) int {
	n := 0
	for id := 1; id < len(b.chains); id++ {
		if b.chains[id].alive && b.chains[id].color == c {
			n += len(b.chains[id].members)
		}
	}
	return n
}

// DoMove plays color c at m. The move must be legal: the adapter or the
// searcher is expected to have called IsMoveValid. Passing only clears the
// ko point.
func (b *Board) DoMove(c move.Color, m move.Move) {
	if m.IsPass() {
		b.koPoint = move.Null
		return
	}
	idx := b.index(m)
	if b.stones[idx] != move.Empty {
		panic(fmt.Sprintf("DoMove: %v is not empty (%v)", m, b.stones[idx]))
	}
	b.stones[idx] = c
	b.key ^= b.z.StoneKey(c, idx)

	// distinct friendly and hostile chains touching m, in scan order.
	var friendly, hostile [4]int
	nf, nh := 0, 0
	opp := c.Opponent()
	for _, n := range neighbors(m) {
		nidx := b.index(n)
		switch b.stones[nidx] {
		case c:
			if id := b.chainID[nidx]; !slices.Contains(friendly[:nf], id) {
				friendly[nf] = id
				nf++
			}
		case opp:
			if id := b.chainID[nidx]; !slices.Contains(hostile[:nh], id) {
				hostile[nh] = id
				nh++
			}
		}
	}

	var own int
	switch nf {
	case 0:
		own = b.newChain(c)
		b.addStone(own, m)
	default:
		own = friendly[0]
		b.chains[own].removeLiberty(m)
		b.addStone(own, m)
		for _, other := range friendly[1:nf] {
			b.mergeChains(own, other, m)
		}
	}

	captured := 0
	lastCaptured := move.Null
	for _, id := range hostile[:nh] {
		ch := &b.chains[id]
		ch.removeLiberty(m)
		if len(ch.liberties) == 0 {
			if len(ch.members) == 1 {
				lastCaptured = ch.members[0]
			}
			captured += b.captureChain(id)
		}
	}

	b.koPoint = move.Null
	if len(b.chains[own].liberties) == 0 {
		// A suicide. IsMoveValid rejects every suicide, so this only runs
		// when DoMove is called on an unvalidated move.
		b.captureChain(own)
	} else if captured == 1 && len(b.chains[own].members) == 1 {
		b.koPoint = lastCaptured
	}

	if b.verify {
		if err := b.Verify(); err != nil {
			log.Error().Err(err).Str("move", m.String()).Msg("board-inconsistent")
			panic(err)
		}
	}
}

// IsMoveValid reports whether c may play at m ignoring repetition. A move
// is illegal if the point is taken or if it is a suicide that captures
// nothing. The board is not modified.
func (b *Board) IsMoveValid(c move.Color, m move.Move) bool {
	if m.IsPass() {
		return true
	}
	if !b.OnBoard(m) || b.stones[b.index(m)] != move.Empty {
		return false
	}
	opp := c.Opponent()
	for _, n := range neighbors(m) {
		nidx := b.index(n)
		switch b.stones[nidx] {
		case move.Empty:
			return true
		case c:
			// connecting keeps a liberty if the chain had one besides m.
			if len(b.chains[b.chainID[nidx]].liberties) > 1 {
				return true
			}
		case opp:
			// m is that chain's last liberty, so this captures it.
			if len(b.chains[b.chainID[nidx]].liberties) == 1 {
				return true
			}
		}
	}
	return false
}

// LegalMoves returns every empty point plus Pass. Ko and suicide are not
// filtered; callers check IsMoveValid and their key stack.
func (b *Board) LegalMoves(c move.Color) []move.Move {
	moves := b.EmptyPoints(make([]move.Move, 0, b.size*b.size+1))
	return append(moves, move.Pass)
}

// EmptyPoints appends every empty point to buf, row by row, and returns
// the extended slice. Playouts pass the same buffer on every move.
func (b *Board) EmptyPoints(buf []move.Move) []move.Move {
	for y := 1; y <= b.size; y++ {
		for x := 1; x <= b.size; x++ {
			idx := x + y*b.arraySize
			if b.stones[idx] == move.Empty {
				buf = append(buf, move.FromCoords(x, y))
			}
		}
	}
	return buf
}

// IsEye is true if all four orthogonal neighbors of m hold stones of
// color c. It is a purely local test; points on the edge are never eyes.
func (b *Board) IsEye(c move.Color, m move.Move) bool {
	for _, n := range neighbors(m) {
		if b.stones[b.index(n)] != c {
			return false
		}
	}
	return true
}

// Verify checks that the chain registry agrees with the grid. It returns
// the first disagreement it finds.
func (b *Board) Verify() error {
	seen := make([]bool, len(b.chains))
	for y := 1; y <= b.size; y++ {
		for x := 1; x <= b.size; x++ {
			m := move.FromCoords(x, y)
			idx := b.index(m)
			id := b.chainID[idx]
			if b.stones[idx] == move.Empty {
				if id != 0 {
					return fmt.Errorf("empty point %v has chain id %d", m, id)
				}
				continue
			}
			if id <= 0 || id >= len(b.chains) || !b.chains[id].alive {
				return fmt.Errorf("stone at %v has bad chain id %d", m, id)
			}
			ch := &b.chains[id]
			if ch.color != b.stones[idx] {
				return fmt.Errorf("stone at %v is %v but chain %d is %v", m, b.stones[idx], id, ch.color)
			}
			if !slices.Contains(ch.members, m) {
				return fmt.Errorf("stone at %v missing from chain %d", m, id)
			}
			seen[id] = true
		}
	}
	live := 0
	for id := 1; id < len(b.chains); id++ {
		ch := &b.chains[id]
		if !ch.alive {
			continue
		}
		live++
		if !seen[id] {
			return fmt.Errorf("chain %d has no stones on the grid", id)
		}
		if len(ch.liberties) == 0 {
			return fmt.Errorf("chain %d has no liberties", id)
		}
		for i, l := range ch.liberties {
			if b.stones[b.index(l)] != move.Empty {
				return fmt.Errorf("chain %d liberty %v is occupied", id, l)
			}
			if slices.Contains(ch.liberties[i+1:], l) {
				return fmt.Errorf("chain %d lists liberty %v twice", id, l)
			}
		}
		for _, s := range ch.members {
			if b.chainID[b.index(s)] != id {
				return fmt.Errorf("chain %d member %v points at chain %d", id, s, b.chainID[b.index(s)])
			}
		}
		if err := b.verifyMaximal(id); err != nil {
			return err
		}
	}
	if live != b.liveChains {
		return fmt.Errorf("live chain count %d, expected %d", b.liveChains, live)
	}
	if k := b.z.Hash(b.stones); k != b.key {
		return fmt.Errorf("incremental hash %x does not match %x", b.key, k)
	}
	return nil
}

// verifyMaximal flood-fills from the first member of chain id and checks
// that the fill is exactly the member list, and that the liberties are
// exactly the empty points touching it.
func (b *Board) verifyMaximal(id int) error {
	ch := &b.chains[id]
	visited := make(map[move.Move]bool, len(ch.members))
	libs := make(map[move.Move]bool)
	stack := []move.Move{ch.members[0]}
	visited[ch.members[0]] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range neighbors(cur) {
			switch b.stones[b.index(n)] {
			case ch.color:
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			case move.Empty:
				libs[n] = true
			}
		}
	}
	if len(visited) != len(ch.members) {
		return fmt.Errorf("chain %d has %d members but its region has %d stones", id, len(ch.members), len(visited))
	}
	if len(libs) != len(ch.liberties) {
		return fmt.Errorf("chain %d lists %d liberties but has %d", id, len(ch.liberties), len(libs))
	}
	return nil
}
