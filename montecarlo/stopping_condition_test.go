package montecarlo

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/goban/move"
)

func TestStoppingConditionFor(t *testing.T) {
	is := is.New(t)
	is.Equal(StoppingConditionFor(95), Stop95)
	is.Equal(StoppingConditionFor(99), Stop99)
	is.Equal(StoppingConditionFor(0), StopNone)
	is.Equal(StoppingConditionFor(97), StopNone)
	is.Equal(Stop98.confidence(), 98.0)
}

func TestPassTest(t *testing.T) {
	is := is.New(t)
	is.True(passTest(0.6, 0.5))
	is.True(!passTest(0.5, 0.5))
	is.True(!passTest(0.4, 0.5))
}

func TestShouldStop(t *testing.T) {
	is := is.New(t)
	s := NewSearcher(testParams(1, 0))
	s.tree.Reset(move.Black)
	root := s.tree.Root()

	a := s.tree.AddChild(root, move.FromCoords(1, 1), move.Black)
	s.tree.AddPrior(a, 90, 100, 0)
	// a lone candidate needs no more search.
	is.True(s.shouldStop(Stop95))

	b := s.tree.AddChild(root, move.FromCoords(2, 2), move.Black)
	s.tree.AddPrior(b, 10, 100, 0)
	is.True(s.shouldStop(Stop99))

	c := s.tree.AddChild(root, move.FromCoords(3, 3), move.Black)
	s.tree.AddPrior(c, 85, 100, 0)
	is.True(!s.shouldStop(Stop95))
}
