package montecarlo

import (
	"github.com/samber/lo"

	"github.com/domino14/goban/stats"
)

// StoppingCondition lets a search end before its playout budget once the
// best root move is ahead of every other at the given confidence.
type StoppingCondition int

const (
	StopNone StoppingCondition = iota
	Stop95
	Stop98
	Stop99
)

const (
	// the stopping condition is checked every stopCheckInterval
	// iterations once minStopIterations have run.
	stopCheckInterval = 50
	minStopIterations = 200
)

// StoppingConditionFor maps a confidence percentage (95, 98 or 99) to a
// stopping condition. Anything else turns early stopping off.
func StoppingConditionFor(confidence int) StoppingCondition {
	switch confidence {
	case 95:
		return Stop95
	case 98:
		return Stop98
	case 99:
		return Stop99
	}
	return StopNone
}

func (sc StoppingCondition) confidence() float64 {
	switch sc {
	case Stop95:
		return 95
	case Stop98:
		return 98
	case Stop99:
		return 99
	}
	return 0
}

// shouldStop is true when the root move with the best win rate is
// separated from every other root move: the low end of its interval
// lies above the high end of theirs.
func (s *Searcher) shouldStop(sc StoppingCondition) bool {
	children := s.tree.Children(s.tree.Root())
	if len(children) < 2 {
		return true
	}
	ci := sc.confidence()
	best := lo.MaxBy(children, func(a, c int) bool {
		return s.tree.WinRate(a) > s.tree.WinRate(c)
	})
	bestLow, _ := stats.ProportionInterval(s.tree.Wins(best), s.tree.Visits(best), ci)
	for _, c := range children {
		if c == best {
			continue
		}
		_, high := stats.ProportionInterval(s.tree.Wins(c), s.tree.Visits(c), ci)
		if !passTest(bestLow, high) {
			return false
		}
	}
	return true
}

// passTest: X > Y if the lower bound of X is above the upper bound of Y.
func passTest(xLow, yHigh float64) bool {
	return xLow > yHigh
}
