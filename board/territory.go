package board

import (
	"github.com/domino14/goban/move"
)

// region is the result of one flood fill: the points reached and the
// distinct blocking stones met along the way.
type region struct {
	points   []int
	boundary int
}

// fillRegion flood-fills from seed through every point that is not a
// blocker stone and not Border. Blocker stones touching the fill are
// counted once each as the boundary. visited is indexed by grid index;
// mark is the value written into it for this fill.
func (b *Board) fillRegion(blocker move.Color, seed int, visited []int, mark int,
	stack []int) (region, []int) {

	r := region{}
	stack = append(stack[:0], seed)
	visited[seed] = mark
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r.points = append(r.points, cur)
		for _, d := range b.gridDirections() {
			n := cur + d
			if visited[n] == mark {
				continue
			}
			switch b.stones[n] {
			case move.Border:
				continue
			case blocker:
				visited[n] = mark
				r.boundary++
			default:
				visited[n] = mark
				stack = append(stack, n)
			}
		}
	}
	return r, stack
}

// gridDirections are the neighbor offsets in grid-index space, in the same
// east, west, north, south order as the move-space directions.
func (b *Board) gridDirections() [4]int {
	return [4]int{1, -1, b.arraySize, -b.arraySize}
}

// CountTerritory estimates the territory of each player. For each color,
// every region of empty points and that color's stones is flood-filled,
// stopping at the other color's stones. If the fill plus its boundary
// covers less than the whole board, the region is enclosed and is counted
// for the enclosing color, unless the stones inside it still surround an
// empty area of their own, in which case life and death is unclear and
// nothing is counted. This is an approximation, not a life-and-death
// solver.
func (b *Board) CountTerritory() (whiteTerritory, blackTerritory int) {
	area := b.size * b.size
	visited := make([]int, len(b.stones))
	var stack []int
	var terr [2]int
	mark := 0
	for _, invader := range [2]move.Color{move.Black, move.White} {
		owner := invader.Opponent()
		for y := 1; y <= b.size; y++ {
			for x := 1; x <= b.size; x++ {
				idx := x + y*b.arraySize
				if b.stones[idx] != move.Empty || visited[idx] < 0 {
					continue
				}
				mark++
				var r region
				r, stack = b.fillRegion(owner, idx, visited, mark, stack)
				// Keep the empty points of this fill from seeding another
				// fill for the same invader color.
				for _, p := range r.points {
					if b.stones[p] == move.Empty {
						visited[p] = -mark
					}
				}
				if r.boundary == 0 || len(r.points)+r.boundary >= area {
					continue
				}
				if b.invadersHaveRoom(invader, r.points) {
					continue
				}
				terr[owner.Index()] += len(r.points)
			}
		}
		// reset for the next color.
		clear(visited)
	}
	return terr[move.White.Index()], terr[move.Black.Index()]
}

// invadersHaveRoom treats the enclosed region as a board of its own and
// asks whether the invading stones in it surround any empty area that the
// enclosing color's stones do not touch. Such an area is an eye candidate,
// so the region cannot be scored.
func (b *Board) invadersHaveRoom(invader move.Color, points []int) bool {
	hasInvader := false
	inRegion := make(map[int]bool, len(points))
	for _, p := range points {
		inRegion[p] = true
		if b.stones[p] == invader {
			hasInvader = true
		}
	}
	if !hasInvader {
		return false
	}
	seen := make(map[int]bool, len(points))
	var stack []int
	for _, p := range points {
		if b.stones[p] != move.Empty || seen[p] {
			continue
		}
		// fill this pocket of empty points inside the region.
		touchesOwner := false
		stack = append(stack[:0], p)
		seen[p] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, d := range b.gridDirections() {
				n := cur + d
				if !inRegion[n] {
					// outside the sub-board: border or an enclosing stone.
					if b.stones[n] == invader.Opponent() {
						touchesOwner = true
					}
					continue
				}
				if b.stones[n] == move.Empty && !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
		if !touchesOwner {
			return true
		}
	}
	return false
}

// Score is the playout score from Black's point of view: captures plus
// estimated territory for each side, with komi added to White.
func (b *Board) Score(komi float64) float64 {
	white, black := b.CountTerritory()
	bs := float64(b.captures[move.Black.Index()] + black)
	ws := float64(b.captures[move.White.Index()]+white) + komi
	return bs - ws
}
