// Package negamax is a depth-bounded alpha-beta search over Go positions.
// It is a standalone fallback for checking tactics; the MCTS searcher never
// calls it.
package negamax

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/goban/board"
	"github.com/domino14/goban/move"
	"github.com/domino14/goban/zobrist"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

const HugeNumber = float32(1e9)

// MaxDepth is the deepest search the table's depth field can describe.
const MaxDepth = depthMask

// whiteToMove is mixed into the position key so the same stones with a
// different side to move are cached separately.
const whiteToMove = 0x9e3779b97f4a7c15

var (
	ErrNoSolution   = errors.New("no move found")
	ErrInvalidDepth = errors.New("invalid search depth")
)

// PVLine is a principal variation: the best line found from a node.
type PVLine struct {
	Moves []move.Move
	score float32
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = pvLine.Moves[:0]
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(m move.Move, newPVLine PVLine, score float32) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, m)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

func (pvLine PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %.1f;", pvLine.score)
	for i, m := range pvLine.Moves {
		fmt.Fprintf(&sb, " %d: %v", i+1, m)
	}
	return sb.String()
}

// Solver searches a position to a fixed depth. The leaf value is the
// board score from the point of view of the side to move there.
type Solver struct {
	komi            float64
	depth           int
	ttFraction      float64
	ttable          *TranspositionTable
	transpositionOn bool

	// boards[ply] is the position at that ply; boards[0] is the root copy.
	boards []*board.Board
	keys   *zobrist.KeyStack

	nodes              atomic.Uint64
	principalVariation PVLine
	bestPVValue        float32
}

// Init sets the komi and search depth and turns on a transposition table.
func (s *Solver) Init(komi float64, depth int) error {
	if depth < 1 || depth > MaxDepth {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	s.komi = komi
	s.depth = depth
	if s.ttFraction == 0 {
		s.ttFraction = 0.001
	}
	if s.ttable == nil {
		s.ttable = &TranspositionTable{}
	}
	s.transpositionOn = true
	s.keys = zobrist.NewKeyStack()
	return nil
}

func (s *Solver) SetKomi(komi float64) {
	s.komi = komi
}

// SetTranspositionTableFraction sets the fraction of system memory the
// table may use.
func (s *Solver) SetTranspositionTableFraction(f float64) {
	s.ttFraction = f
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionOn = tt
}

// Nodes is the number of positions visited by the last Solve.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// PrincipalVariation is the best line found by the last Solve.
func (s *Solver) PrincipalVariation() PVLine {
	return s.principalVariation
}

func (s *Solver) ensureBoards(b *board.Board) {
	n := s.depth + 1
	if len(s.boards) != n || s.boards[0].Size() != b.Size() {
		s.boards = make([]*board.Board, n)
		for i := range s.boards {
			s.boards[i] = board.NewBoard(b.Size())
		}
	}
	s.boards[0].CopyFrom(b)
}

func positionKey(b *board.Board, color move.Color) uint64 {
	if color == move.White {
		return b.ZobristKey() ^ whiteToMove
	}
	return b.ZobristKey()
}

// evaluate scores b for the side to move.
func (s *Solver) evaluate(b *board.Board, toMove move.Color) float32 {
	score := b.Score(s.komi)
	if toMove == move.White {
		score = -score
	}
	return float32(score)
}

// children lists the candidates for color at the given ply: the hash
// move first, then every valid point, then Pass. Repetitions are
// filtered by the caller.
func (s *Solver) children(ply int, color move.Color, ttMove move.Move) []move.Move {
	b := s.boards[ply]
	moves := make([]move.Move, 0, b.Size()*b.Size()+1)
	if b.OnBoard(ttMove) && b.IsMoveValid(color, ttMove) {
		moves = append(moves, ttMove)
	}
	for _, m := range b.EmptyPoints(nil) {
		if m == ttMove || !b.IsMoveValid(color, m) {
			continue
		}
		moves = append(moves, m)
	}
	if ttMove != move.Pass {
		moves = append(moves, move.Pass)
	} else {
		moves = append([]move.Move{move.Pass}, moves...)
	}
	return moves
}

func (s *Solver) negamax(ctx context.Context, ply, depth int, color move.Color, passes int,
	α, β float32, pv *PVLine) (float32, error) {

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	b := s.boards[ply]
	if depth == 0 || passes >= 2 {
		return s.evaluate(b, color), nil
	}

	alphaOrig := α
	nodeKey := positionKey(b, color)
	ttMove := move.Null
	if s.transpositionOn {
		ttEntry := s.ttable.lookup(nodeKey)
		if ttEntry.valid() && ttEntry.depth() >= uint8(depth) && ply > 0 {
			score := ttEntry.score
			switch ttEntry.flag() {
			case TTExact:
				return score, nil
			case TTLower:
				α = max(α, score)
			case TTUpper:
				β = min(β, score)
			}
			if α >= β {
				return score, nil
			}
		}
		if ttEntry.valid() {
			// search hash move first.
			ttMove = ttEntry.move()
		}
	}

	childPV := PVLine{}
	bestValue := -HugeNumber
	bestMove := move.Null
	next := s.boards[ply+1]
	base := s.keys.Len()
	for _, child := range s.children(ply, color, ttMove) {
		next.CopyFrom(b)
		next.DoMove(color, child)
		if !child.IsPass() && s.keys.Contains(next.ZobristKey()) {
			// repeats an earlier position.
			continue
		}
		s.nodes.Add(1)
		s.keys.Push(b.ZobristKey())
		childPasses := 0
		if child.IsPass() {
			childPasses = passes + 1
		}
		value, err := s.negamax(ctx, ply+1, depth-1, color.Opponent(), childPasses, -β, -α, &childPV)
		s.keys.Truncate(base)
		if err != nil {
			return value, err
		}
		if -value > bestValue {
			bestValue = -value
			bestMove = child
			pv.Update(child, childPV, bestValue)
		}
		α = max(α, bestValue)
		if bestValue >= β {
			break // beta cut-off
		}
		childPV.Clear()
	}
	if bestMove.IsNull() {
		return s.evaluate(b, color), nil
	}
	if s.transpositionOn {
		var flag uint8
		if bestValue <= alphaOrig {
			flag = TTUpper
		} else if bestValue >= β {
			flag = TTLower
		} else {
			flag = TTExact
		}
		s.ttable.store(nodeKey, TableEntry{
			score:        bestValue,
			flagAndDepth: flag<<6 + uint8(depth),
			play:         bestMove,
		})
	}
	return bestValue, nil
}

// iterativelyDeepen searches to depth 1, 2, ... up to the configured
// depth. Each pass seeds the table with hash moves for the next.
func (s *Solver) iterativelyDeepen(ctx context.Context, color move.Color) error {
	for d := 1; d <= s.depth; d++ {
		pv := PVLine{}
		val, err := s.negamax(ctx, 0, d, color, 0, -HugeNumber, HugeNumber, &pv)
		if err != nil {
			return err
		}
		s.principalVariation = pv
		s.bestPVValue = val
		log.Debug().Int("depth", d).Float32("value", val).
			Str("pv", pv.String()).Msg("negamax-depth-done")
	}
	return nil
}

// Solve finds the best move for color on b, looking s.depth plies ahead.
// keys holds the hashes of earlier positions, as for the MCTS searcher;
// neither b nor keys is modified. The value is the score expected for
// color at the end of the principal variation.
func (s *Solver) Solve(ctx context.Context, b *board.Board, keys *zobrist.KeyStack,
	color move.Color) (move.Move, float64, error) {

	if s.depth == 0 {
		return move.Null, 0, ErrInvalidDepth
	}
	tstart := time.Now()
	s.ensureBoards(b)
	s.keys.CopyFrom(keys)
	s.nodes.Store(0)
	s.principalVariation = PVLine{}
	if s.transpositionOn {
		s.ttable.Reset(s.ttFraction)
	}

	err := s.iterativelyDeepen(ctx, color)

	log.Debug().
		Uint64("nodes", s.nodes.Load()).
		Uint64("ttable-created", s.ttable.created.Load()).
		Uint64("ttable-lookups", s.ttable.lookups.Load()).
		Uint64("ttable-hits", s.ttable.hits.Load()).
		Uint64("ttable-collisions", s.ttable.collisions.Load()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")

	if err != nil {
		return move.Null, 0, err
	}
	if len(s.principalVariation.Moves) == 0 {
		return move.Null, 0, ErrNoSolution
	}
	return s.principalVariation.Moves[0], float64(s.bestPVValue), nil
}
