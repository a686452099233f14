package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/goban/move"
)

func TestTableValues(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(11)
	is.Equal(z.ArraySize(), 11)
	for idx := 0; idx < 11*11; idx++ {
		is.True(z.StoneKey(move.Black, idx) != 0)
		is.True(z.StoneKey(move.White, idx) != 0)
	}
}

func TestHashMatchesIncremental(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(5)
	stones := make([]move.Color, 25)
	stones[6] = move.Black
	stones[12] = move.White
	stones[18] = move.Black

	key := uint64(0)
	// order does not matter
	key ^= z.StoneKey(move.Black, 18)
	key ^= z.StoneKey(move.White, 12)
	key ^= z.StoneKey(move.Black, 6)
	is.Equal(z.Hash(stones), key)

	// removing a stone toggles it back out
	key ^= z.StoneKey(move.White, 12)
	stones[12] = move.Empty
	is.Equal(z.Hash(stones), key)
}

func TestForSizeShared(t *testing.T) {
	is := is.New(t)
	a := ForSize(9)
	b := ForSize(9)
	c := ForSize(13)
	is.True(a == b)
	is.True(a != c)
	is.Equal(a.ArraySize(), 11)
	is.Equal(c.ArraySize(), 15)
}

func TestSeededTables(t *testing.T) {
	is := is.New(t)
	a, b, c := &Zobrist{}, &Zobrist{}, &Zobrist{}
	a.InitializeSeeded(7, 42)
	b.InitializeSeeded(7, 42)
	c.InitializeSeeded(7, 43)
	is.Equal(a.posTable, b.posTable)
	differ := false
	for idx := 0; idx < 7*7; idx++ {
		is.True(a.StoneKey(move.Black, idx) != 0)
		is.True(a.StoneKey(move.White, idx) != 0)
		if a.StoneKey(move.Black, idx) != c.StoneKey(move.Black, idx) {
			differ = true
		}
	}
	is.True(differ)
}

func TestForSizeUsesTableSeed(t *testing.T) {
	is := is.New(t)
	t.Cleanup(func() { SetTableSeed(0) })

	SetTableSeed(99)
	seeded := ForSize(7)
	is.True(seeded == ForSize(7))
	want := &Zobrist{}
	want.InitializeSeeded(9, 99)
	is.Equal(seeded.posTable, want.posTable)

	SetTableSeed(0)
	is.True(ForSize(7) != seeded)
}

func TestKeyStack(t *testing.T) {
	is := is.New(t)
	s := NewKeyStack()
	is.Equal(s.Top(), uint64(0))
	s.Push(10)
	s.Push(20)
	s.Push(30)
	is.True(s.Contains(20))
	is.True(!s.Contains(40))
	is.Equal(s.Top(), uint64(30))

	cp := s.Copy()
	cp.Push(40)
	is.True(cp.Contains(40))
	is.True(!s.Contains(40))

	into := NewKeyStack()
	into.Push(99)
	into.CopyFrom(s)
	is.Equal(into.Len(), 3)
	is.True(!into.Contains(99))
	into.CopyFrom(nil)
	is.Equal(into.Len(), 0)

	s.Truncate(1)
	is.Equal(s.Len(), 1)
	is.True(!s.Contains(20))
	s.Clear()
	is.Equal(s.Len(), 0)
}
