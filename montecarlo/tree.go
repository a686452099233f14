package montecarlo

import (
	"math"
	"math/rand/v2"

	"github.com/domino14/goban/move"
)

// node is one position in the search tree. Its statistics are kept from
// the point of view of the player who made mv.
type node struct {
	mv       move.Move
	mover    move.Color
	parent   int
	children []int
	visits   int
	wins     int
	score    float64
}

// Tree is an MCTS tree stored as an arena of nodes. Node 0 is the root,
// which stands for the position before the search's first move.
type Tree struct {
	nodes []node
}

// NewTree returns a tree holding only a root. toMove is the color the
// search is choosing a move for.
func NewTree(toMove move.Color) *Tree {
	t := &Tree{}
	t.Reset(toMove)
	return t
}

// Reset drops every node but a fresh root, keeping the arena's storage.
func (t *Tree) Reset(toMove move.Color) {
	for i := range t.nodes {
		t.nodes[i].children = t.nodes[i].children[:0]
	}
	t.nodes = t.nodes[:0]
	// the root's "mover" is whoever moved into the searched position.
	t.nodes = append(t.nodes, node{mv: move.Null, mover: toMove.Opponent(), parent: -1})
}

// Root is the index of the root node.
func (t *Tree) Root() int {
	return 0
}

// Size is the number of nodes in the tree.
func (t *Tree) Size() int {
	return len(t.nodes)
}

// AddChild appends a child of parent for move m by mover and returns
// its index.
func (t *Tree) AddChild(parent int, m move.Move, mover move.Color) int {
	idx := len(t.nodes)
	if idx < cap(t.nodes) {
		// reuse the children slice left over from a previous search.
		t.nodes = t.nodes[:idx+1]
		ch := t.nodes[idx].children[:0]
		t.nodes[idx] = node{mv: m, mover: mover, parent: parent, children: ch}
	} else {
		t.nodes = append(t.nodes, node{mv: m, mover: mover, parent: parent})
	}
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx
}

// AddPrior credits a node with virtual results. The parent's visit count
// grows by the same amount so the exploration term stays consistent.
func (t *Tree) AddPrior(n int, wins, visits int, score float64) {
	t.nodes[n].wins += wins
	t.nodes[n].visits += visits
	t.nodes[n].score += score
	if p := t.nodes[n].parent; p >= 0 {
		t.nodes[p].visits += visits
	}
}

func (t *Tree) Move(n int) move.Move { return t.nodes[n].mv }
func (t *Tree) Mover(n int) move.Color { return t.nodes[n].mover }
func (t *Tree) Parent(n int) int { return t.nodes[n].parent }
func (t *Tree) Children(n int) []int { return t.nodes[n].children }
func (t *Tree) Visits(n int) int { return t.nodes[n].visits }
func (t *Tree) Wins(n int) int { return t.nodes[n].wins }
func (t *Tree) ScoreSum(n int) float64 { return t.nodes[n].score }
func (t *Tree) IsLeaf(n int) bool { return len(t.nodes[n].children) == 0 }

// HasChild is true if n already has a child for move m.
func (t *Tree) HasChild(n int, m move.Move) bool {
	for _, c := range t.nodes[n].children {
		if t.nodes[c].mv == m {
			return true
		}
	}
	return false
}

// WinRate is wins over visits, or 0 for an unvisited node.
func (t *Tree) WinRate(n int) float64 {
	nd := &t.nodes[n]
	if nd.visits == 0 {
		return 0
	}
	return float64(nd.wins) / float64(nd.visits)
}

// Depth is the number of moves between the root and n.
func (t *Tree) Depth(n int) int {
	d := 0
	for p := t.nodes[n].parent; p >= 0; p = t.nodes[p].parent {
		d++
	}
	return d
}

// Path returns the nodes from the root's child down to n, in play order.
func (t *Tree) Path(n int, buf []int) []int {
	buf = buf[:0]
	for ; n > 0; n = t.nodes[n].parent {
		buf = append(buf, n)
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// ucb is the UCB1 value of child c; lnParent is ln(parent visits).
func (t *Tree) ucb(c int, lnParent float64) float64 {
	nd := &t.nodes[c]
	if nd.visits == 0 {
		return math.Inf(1)
	}
	return float64(nd.wins)/float64(nd.visits) + math.Sqrt(lnParent/float64(nd.visits))
}

// FindLeaf walks down from the root. Below the root, each interior node
// stops the walk with probability expandProb so the caller grows the tree
// there; otherwise the child with the highest UCB1 value is followed.
// The root's children are all seeded up front, so the walk never stops
// at the root itself.
func (t *Tree) FindLeaf(rng *rand.Rand, expandProb float64) int {
	n := 0
	for {
		nd := &t.nodes[n]
		if len(nd.children) == 0 {
			return n
		}
		if n != 0 && rng.Float64() < expandProb {
			return n
		}
		lnParent := math.Log(float64(max(nd.visits, 1)))
		best := nd.children[0]
		bestVal := t.ucb(best, lnParent)
		for _, c := range nd.children[1:] {
			if v := t.ucb(c, lnParent); v > bestVal {
				best, bestVal = c, v
			}
		}
		n = best
	}
}

// BackPropagate records a playout result at leaf and every ancestor. won
// and score are from the point of view of the leaf's mover; each level
// up the tree flips both.
func (t *Tree) BackPropagate(leaf int, won bool, score float64) {
	for n := leaf; n >= 0; n = t.nodes[n].parent {
		nd := &t.nodes[n]
		nd.visits++
		if won {
			nd.wins++
		}
		nd.score += score
		won = !won
		score = -score
	}
}

// DefaultExpandProbability is used when no expand probability is
// configured. It shrinks as the board grows.
func DefaultExpandProbability(boardSize int) float64 {
	if boardSize <= 0 {
		return 0
	}
	return 1 / float64(boardSize)
}
