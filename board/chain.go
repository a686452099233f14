package board

import (
	"slices"

	"github.com/domino14/goban/move"
)

// A chain is a maximal 4-connected group of stones of one color. Chains
// live in an arena on the Board and are referred to by id; id 0 is never
// used so that a zero in the chain-id grid means "no chain".
type chain struct {
	color     move.Color
	members   []move.Move
	liberties []move.Move
	alive     bool
}

func (c *chain) hasLiberty(m move.Move) bool {
	return slices.Contains(c.liberties, m)
}

func (c *chain) addLiberty(m move.Move) {
	if !c.hasLiberty(m) {
		c.liberties = append(c.liberties, m)
	}
}

// removeLiberty swaps the last liberty into the removed slot; liberty order
// carries no meaning.
func (c *chain) removeLiberty(m move.Move) {
	for i, l := range c.liberties {
		if l == m {
			last := len(c.liberties) - 1
			c.liberties[i] = c.liberties[last]
			c.liberties = c.liberties[:last]
			return
		}
	}
}

func (c *chain) copyFrom(o *chain) {
	c.color = o.color
	c.alive = o.alive
	c.members = append(c.members[:0], o.members...)
	c.liberties = append(c.liberties[:0], o.liberties...)
}

// ChainInfo is a read-only view of a chain.
type ChainInfo struct {
	ID        int
	Color     move.Color
	Size      int
	Liberties int
}

// newChain takes an id off the free list, or grows the arena.
func (b *Board) newChain(c move.Color) int {
	var id int
	if n := len(b.free); n > 0 {
		id = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		b.chains = append(b.chains, chain{})
		id = len(b.chains) - 1
	}
	ch := &b.chains[id]
	if ch.alive {
		panic("chain id double-booked")
	}
	ch.color = c
	ch.alive = true
	ch.members = ch.members[:0]
	ch.liberties = ch.liberties[:0]
	b.liveChains++
	return id
}

func (b *Board) freeChain(id int) {
	ch := &b.chains[id]
	ch.alive = false
	ch.members = ch.members[:0]
	ch.liberties = ch.liberties[:0]
	b.free = append(b.free, id)
	b.liveChains--
}

// addStone records m as a member of chain id and adds its empty neighbors
// as liberties. m itself must already be off every liberty list.
func (b *Board) addStone(id int, m move.Move) {
	ch := &b.chains[id]
	ch.members = append(ch.members, m)
	b.chainID[b.index(m)] = id
	for _, n := range neighbors(m) {
		if b.stones[b.index(n)] == move.Empty {
			ch.addLiberty(n)
		}
	}
}

// mergeChains absorbs chain other into chain into. The placed point m is
// dropped from the absorbed liberty list before the union.
func (b *Board) mergeChains(into, other int, m move.Move) {
	dst := &b.chains[into]
	src := &b.chains[other]
	for _, s := range src.members {
		b.chainID[b.index(s)] = into
	}
	dst.members = append(dst.members, src.members...)
	for _, l := range src.liberties {
		if l != m {
			dst.addLiberty(l)
		}
	}
	b.freeChain(other)
}

// captureChain removes every stone of chain id and credits the capture to
// the other color. Freed points become liberties of whatever chains touch
// them. It returns the number of stones removed.
func (b *Board) captureChain(id int) int {
	ch := &b.chains[id]
	victim := ch.color
	n := len(ch.members)
	for _, s := range ch.members {
		idx := b.index(s)
		b.stones[idx] = move.Empty
		b.chainID[idx] = 0
		b.key ^= b.z.StoneKey(victim, idx)
	}
	for _, s := range ch.members {
		for _, nb := range neighbors(s) {
			cid := b.chainID[b.index(nb)]
			if cid != 0 {
				b.chains[cid].addLiberty(s)
			}
		}
	}
	b.captures[victim.Opponent().Index()] += n
	b.freeChain(id)
	return n
}

// ChainAt describes the chain occupying m. ok is false for empty points.
func (b *Board) ChainAt(m move.Move) (ChainInfo, bool) {
	if !b.OnBoard(m) {
		return ChainInfo{}, false
	}
	id := b.chainID[b.index(m)]
	if id == 0 {
		return ChainInfo{}, false
	}
	ch := &b.chains[id]
	return ChainInfo{
		ID:        id,
		Color:     ch.color,
		Size:      len(ch.members),
		Liberties: len(ch.liberties),
	}, true
}

// ChainMembers returns a copy of the stones in the chain at m.
func (b *Board) ChainMembers(m move.Move) []move.Move {
	id := b.chainID[b.index(m)]
	if id == 0 {
		return nil
	}
	return slices.Clone(b.chains[id].members)
}

// ChainLiberties returns a copy of the liberties of the chain at m.
func (b *Board) ChainLiberties(m move.Move) []move.Move {
	id := b.chainID[b.index(m)]
	if id == 0 {
		return nil
	}
	return slices.Clone(b.chains[id].liberties)
}

// Liberties is the liberty count of the chain at m, 0 for empty points.
func (b *Board) Liberties(m move.Move) int {
	id := b.chainID[b.index(m)]
	if id == 0 {
		return 0
	}
	return len(b.chains[id].liberties)
}

// InAtari is true if the chain at m has exactly one liberty.
func (b *Board) InAtari(m move.Move) bool {
	return b.Liberties(m) == 1
}

// NumChains is the number of live chains.
func (b *Board) NumChains() int {
	return b.liveChains
}
