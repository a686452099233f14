// Package montecarlo implements the Monte-Carlo tree search that picks the
// engine's moves: a UCB1 tree over real moves, random playouts from the
// leaves, and a per-point history table kept between searches.
package montecarlo

import (
	"cmp"
	"context"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/goban/board"
	"github.com/domino14/goban/config"
	"github.com/domino14/goban/move"
	"github.com/domino14/goban/stats"
	"github.com/domino14/goban/zobrist"
)

// Params are the searcher's tunables.
type Params struct {
	// Playouts is the number of tree iterations per GenerateMove, not
	// counting the one playout each root move gets when it is seeded.
	Playouts int
	// Seed for the searcher's random source. 0 picks a random seed.
	Seed uint64
	Komi float64
	// A playout stops after MaxPlayoutMovesFactor*N*N moves.
	MaxPlayoutMovesFactor int
	KoRecaptureLimit      int
	Priors                PriorWeights
	// HistoryDecay multiplies the history table at the start of every
	// search.
	HistoryDecay float64
	// HistoryDepthWeight scales history credit by depth. Replies to the
	// root's children get full credit, and every ply deeper multiplies it
	// by HistoryDepthWeight.
	HistoryDepthWeight float64
	// ExpandProbability is the chance of growing the tree at an interior
	// node instead of descending further. 0 derives it from the board size.
	ExpandProbability float64
	// Stop ends a search early once one root move is clearly best.
	Stop StoppingCondition
}

// ParamsFromConfig reads the search parameters from cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Playouts:              cfg.GetInt(config.ConfigPlayouts),
		Seed:                  cfg.GetUint64(config.ConfigSeed),
		Komi:                  cfg.GetFloat64(config.ConfigKomi),
		MaxPlayoutMovesFactor: cfg.GetInt(config.ConfigMaxPlayoutMovesFactor),
		KoRecaptureLimit:      cfg.GetInt(config.ConfigKoRecaptureLimit),
		Priors: PriorWeights{
			AtariEscape:  cfg.GetInt(config.ConfigPriorAtariEscape),
			AtariCapture: cfg.GetInt(config.ConfigPriorAtariCapture),
			Opening:      cfg.GetInt(config.ConfigPriorOpening),
			EyeFill:      cfg.GetInt(config.ConfigPriorEyeFill),
			Visits:       cfg.GetInt(config.ConfigPriorVisits),
		},
		HistoryDecay:       cfg.GetFloat64(config.ConfigHistoryDecay),
		HistoryDepthWeight: cfg.GetFloat64(config.ConfigHistoryDepthWeight),
		ExpandProbability:  cfg.GetFloat64(config.ConfigExpandProbability),
		Stop:               StoppingConditionFor(cfg.GetInt(config.ConfigStopConfidence)),
	}
}

// LogCandidate is one root move in the search log.
type LogCandidate struct {
	Move    string  `yaml:"move"`
	Visits  int     `yaml:"visits"`
	Wins    int     `yaml:"wins"`
	WinRate float64 `yaml:"win_rate"`
	Score   float64 `yaml:"score"`
}

// SearchStats summarizes one GenerateMove call. It is also what gets
// written to the log stream, one YAML document per search.
type SearchStats struct {
	Color             string         `yaml:"color"`
	Move              string         `yaml:"move"`
	PassedEarly       bool           `yaml:"passed_early,omitempty"`
	StoppedEarly      bool           `yaml:"stopped_early,omitempty"`
	Playouts          int            `yaml:"playouts"`
	TreeSize          int            `yaml:"tree_size"`
	ElapsedSecs       float64        `yaml:"elapsed_secs"`
	MeanPlayoutLength float64        `yaml:"mean_playout_length"`
	MeanScore         float64        `yaml:"mean_score"`
	ScoreStdev        float64        `yaml:"score_stdev"`
	Candidates        []LogCandidate `yaml:"candidates,omitempty"`
}

// maxLoggedCandidates bounds the candidate list in SearchStats.
const maxLoggedCandidates = 10

// Searcher generates moves. It is not safe for concurrent use; run one
// searcher per goroutine.
type Searcher struct {
	params Params
	rng    *rand.Rand

	tree    *Tree
	history *History
	playout playout

	// scratch holds the position being simulated, trial is used to test
	// a move before committing it to scratch.
	scratch *board.Board
	trial   *board.Board
	keys    *zobrist.KeyStack
	pathBuf []int

	playoutLengths stats.Statistic
	scores         stats.Statistic

	stoppedEarly bool
	logStream    io.Writer
	lastStats    SearchStats
}

// NewSearcher creates a searcher with its own random source.
func NewSearcher(params Params) *Searcher {
	seed := params.Seed
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Searcher{
		params:  params,
		rng:     rng,
		tree:    NewTree(move.Black),
		playout: playout{rng: rng, koLimit: params.KoRecaptureLimit},
		keys:    zobrist.NewKeyStack(),
	}
}

// SetKomi changes the komi used to score playouts.
func (s *Searcher) SetKomi(komi float64) {
	s.params.Komi = komi
}

func (s *Searcher) Params() Params {
	return s.params
}

// SetLogStream makes every search write its SearchStats as a YAML
// document to l. Pass nil to turn logging off.
func (s *Searcher) SetLogStream(l io.Writer) {
	s.logStream = l
}

// Stats returns the summary of the last search.
func (s *Searcher) Stats() SearchStats {
	return s.lastStats
}

// ResetState forgets everything learned from previous searches. Call it
// when a new game starts.
func (s *Searcher) ResetState() {
	if s.history != nil {
		s.history.Reset()
	}
	s.tree.Reset(move.Black)
}

func (s *Searcher) ensureBuffers(size int) {
	if s.history == nil || s.history.Size() != size {
		s.history = NewHistory(size)
	}
	if s.scratch == nil || s.scratch.Size() != size {
		s.scratch = board.NewBoard(size)
		s.trial = board.NewBoard(size)
	}
	s.playout.maxMoves = s.params.MaxPlayoutMovesFactor * size * size
}

// GenerateMove searches the position b for color and returns the chosen
// move. keys holds the hashes of every earlier position of the game; it
// is only read. lastMove is the opponent's previous move, or Null. The
// search stops early if ctx is done, but never in the middle of a playout.
// If no move is worth playing the result is Pass.
func (s *Searcher) GenerateMove(ctx context.Context, b *board.Board, keys *zobrist.KeyStack,
	color move.Color, lastMove move.Move) move.Move {

	logger := zerolog.Ctx(ctx)
	tstart := time.Now()
	s.ensureBuffers(b.Size())
	s.history.Decay(s.params.HistoryDecay)
	s.tree.Reset(color)
	s.playoutLengths = stats.Statistic{}
	s.scores = stats.Statistic{}
	s.stoppedEarly = false

	if !s.hasUsefulMove(b, color) {
		logger.Debug().Str("color", color.String()).Msg("no-useful-moves-passing")
		s.finish(color, move.Pass, true, 0, tstart)
		return move.Pass
	}

	s.keys.CopyFrom(keys)
	s.seedRoot(b, color, lastMove)
	if len(s.tree.Children(s.tree.Root())) == 0 {
		// every useful move repeats a position.
		s.finish(color, move.Pass, false, 0, tstart)
		return move.Pass
	}
	iterations := s.search(ctx, b)

	bestNode := lo.MaxBy(s.tree.Children(s.tree.Root()), func(a, c int) bool {
		return s.better(a, c, color)
	})
	best := s.tree.Move(bestNode)
	st := s.finish(color, best, false, iterations, tstart)
	logger.Debug().
		Str("move", best.String()).
		Int("playouts", iterations).
		Int("tree-size", st.TreeSize).
		Float64("elapsed", st.ElapsedSecs).
		Msg("search-ended")
	return best
}

// hasUsefulMove is false when every empty point is an own-eye fill, a
// suicide or a self-atari, in which case the search passes right away.
func (s *Searcher) hasUsefulMove(b *board.Board, color move.Color) bool {
	for _, m := range b.EmptyPoints(nil) {
		if b.IsEye(color, m) || !b.IsMoveValid(color, m) {
			continue
		}
		if !s.selfAtari(b, color, m) {
			return true
		}
	}
	return false
}

// selfAtari plays m on scratch and reports whether it leaves the new
// chain with a single liberty without capturing anything. scratch holds
// the resulting position afterwards.
func (s *Searcher) selfAtari(b *board.Board, color move.Color, m move.Move) bool {
	s.scratch.CopyFrom(b)
	s.scratch.DoMove(color, m)
	captured := s.scratch.CapturedStones(color) > b.CapturedStones(color)
	return !captured && s.scratch.InAtari(m)
}

// seedRoot adds one root child per candidate move, each with the result
// of a single playout plus its prior.
func (s *Searcher) seedRoot(b *board.Board, color move.Color, lastMove move.Move) {
	root := s.tree.Root()
	for _, m := range b.EmptyPoints(nil) {
		if !b.IsMoveValid(color, m) {
			continue
		}
		if s.selfAtari(b, color, m) {
			continue
		}
		if s.keys.Contains(s.scratch.ZobristKey()) {
			// repeats an earlier position.
			continue
		}
		p := s.params.Priors.rootPrior(b, s.scratch, color, m, lastMove)
		s.playoutLengths.Push(float64(s.playout.run(s.scratch, color.Opponent())))
		won, score := s.result(s.scratch, color)
		s.scores.Push(score)

		child := s.tree.AddChild(root, m, color)
		wins := p.wins
		if won {
			wins++
		}
		s.tree.AddPrior(child, wins, p.visits+1, score)
	}
}

// search runs the tree iterations and returns how many were run.
func (s *Searcher) search(ctx context.Context, b *board.Board) int {
	expandProb := s.params.ExpandProbability
	if expandProb <= 0 {
		expandProb = DefaultExpandProbability(b.Size())
	}
	rootColor := s.tree.Mover(s.tree.Root()).Opponent()
	base := s.keys.Len()
	i := 0
	for ; i < s.params.Playouts; i++ {
		if ctx.Err() != nil {
			break
		}
		if s.params.Stop != StopNone && i >= minStopIterations && i%stopCheckInterval == 0 &&
			s.shouldStop(s.params.Stop) {
			s.stoppedEarly = true
			break
		}
		leaf := s.tree.FindLeaf(s.rng, expandProb)

		s.keys.Truncate(base)
		s.scratch.CopyFrom(b)
		s.pathBuf = s.tree.Path(leaf, s.pathBuf)
		for _, n := range s.pathBuf {
			s.keys.Push(s.scratch.ZobristKey())
			s.scratch.DoMove(s.tree.Mover(n), s.tree.Move(n))
		}
		if child, ok := s.expand(leaf); ok {
			leaf = child
		}

		mover := s.tree.Mover(leaf)
		s.playoutLengths.Push(float64(s.playout.run(s.scratch, mover.Opponent())))
		won, score := s.result(s.scratch, mover)
		if mover == rootColor {
			s.scores.Push(score)
		} else {
			s.scores.Push(-score)
		}
		s.tree.BackPropagate(leaf, won, score)
		s.recordHistory(leaf, won)
	}
	return i
}

// expand adds one untried child to leaf, chosen in a random order among
// the valid moves of the side to move, and plays it on scratch. It
// reports false when every move has been tried or none is valid.
func (s *Searcher) expand(leaf int) (int, bool) {
	toMove := s.tree.Mover(leaf).Opponent()
	moves := s.scratch.LegalMoves(toMove)
	for _, i := range s.rng.Perm(len(moves)) {
		m := moves[i]
		if s.tree.HasChild(leaf, m) {
			continue
		}
		if !m.IsPass() {
			if s.scratch.IsEye(toMove, m) || !s.scratch.IsMoveValid(toMove, m) {
				continue
			}
			s.trial.CopyFrom(s.scratch)
			s.trial.DoMove(toMove, m)
			if s.keys.Contains(s.trial.ZobristKey()) {
				continue
			}
			s.keys.Push(s.scratch.ZobristKey())
			s.scratch, s.trial = s.trial, s.scratch
		} else {
			s.keys.Push(s.scratch.ZobristKey())
			s.scratch.DoMove(toMove, m)
		}
		return s.tree.AddChild(leaf, m, toMove), true
	}
	return leaf, false
}

// result scores a finished playout for mover: a win if the score from
// mover's point of view is positive.
func (s *Searcher) result(b *board.Board, mover move.Color) (bool, float64) {
	score := b.Score(s.params.Komi)
	if mover == move.White {
		score = -score
	}
	return score > 0, score
}

// recordHistory credits every move below the root's children on the path
// to leaf: positive for the side that won the playout, negative for the
// side that lost. Moves deeper in the tree get less credit.
func (s *Searcher) recordHistory(leaf int, won bool) {
	leafMover := s.tree.Mover(leaf)
	for n, d := leaf, s.tree.Depth(leaf); d > 1; n, d = s.tree.Parent(n), d-1 {
		mover := s.tree.Mover(n)
		delta := s.historyWeight(d)
		if (mover == leafMover) != won {
			delta = -delta
		}
		s.history.Add(mover, s.tree.Move(n), delta)
	}
}

// historyWeight is the magnitude of the history credit at tree depth d,
// 1 for the replies to the root's children.
func (s *Searcher) historyWeight(d int) float64 {
	return math.Pow(s.params.HistoryDepthWeight, float64(d-2))
}

// better orders root children: higher win rate, then higher total score,
// then higher history value.
func (s *Searcher) better(a, c int, color move.Color) bool {
	wa, wc := s.tree.WinRate(a), s.tree.WinRate(c)
	if wa != wc {
		return wa > wc
	}
	sa, sc := s.tree.ScoreSum(a), s.tree.ScoreSum(c)
	if sa != sc {
		return sa > sc
	}
	return s.history.Get(color, s.tree.Move(a)) > s.history.Get(color, s.tree.Move(c))
}

func (s *Searcher) finish(color move.Color, best move.Move, passedEarly bool,
	iterations int, tstart time.Time) SearchStats {

	elapsed := time.Since(tstart)
	st := SearchStats{
		Color:             color.String(),
		Move:              best.String(),
		PassedEarly:       passedEarly,
		StoppedEarly:      s.stoppedEarly,
		Playouts:          iterations,
		TreeSize:          s.tree.Size(),
		ElapsedSecs:       elapsed.Seconds(),
		MeanPlayoutLength: s.playoutLengths.Mean(),
		MeanScore:         s.scores.Mean(),
		ScoreStdev:        s.scores.Stdev(),
	}
	children := slices.Clone(s.tree.Children(s.tree.Root()))
	// most visited first.
	slices.SortStableFunc(children, func(a, c int) int {
		return cmp.Compare(s.tree.Visits(c), s.tree.Visits(a))
	})
	if len(children) > maxLoggedCandidates {
		children = children[:maxLoggedCandidates]
	}
	st.Candidates = lo.Map(children, func(n int, _ int) LogCandidate {
		return LogCandidate{
			Move:    s.tree.Move(n).String(),
			Visits:  s.tree.Visits(n),
			Wins:    s.tree.Wins(n),
			WinRate: s.tree.WinRate(n),
			Score:   s.tree.ScoreSum(n),
		}
	})
	s.lastStats = st

	if iterations > 0 && elapsed > 0 {
		log.Debug().Float64("playouts-per-second", float64(iterations)/elapsed.Seconds()).
			Msg("search-speed")
	}
	if s.logStream != nil {
		out, err := yaml.Marshal(st)
		if err != nil {
			log.Error().Err(err).Msg("marshalling search log")
			return st
		}
		if _, err := s.logStream.Write(append([]byte("---\n"), out...)); err != nil {
			log.Error().Err(err).Msg("writing search log")
		}
	}
	return st
}
