package zobrist

// KeyStack is the history of position hashes used to detect repetition.
// Whoever commits moves owns it and pushes the key of the position *before*
// every committed move; a candidate move is a ko violation when the
// position it produces is already on the stack.
type KeyStack struct {
	keys []uint64
}

func NewKeyStack() *KeyStack {
	return &KeyStack{keys: make([]uint64, 0, 512)}
}

func (s *KeyStack) Push(key uint64) {
	s.keys = append(s.keys, key)
}

// Contains scans from the most recent key, where repeats almost always are.
func (s *KeyStack) Contains(key uint64) bool {
	for i := len(s.keys) - 1; i >= 0; i-- {
		if s.keys[i] == key {
			return true
		}
	}
	return false
}

func (s *KeyStack) Len() int {
	return len(s.keys)
}

// Top returns the most recently pushed key, or 0 if the stack is empty.
func (s *KeyStack) Top() uint64 {
	if len(s.keys) == 0 {
		return 0
	}
	return s.keys[len(s.keys)-1]
}

// Truncate drops everything above the first n keys.
func (s *KeyStack) Truncate(n int) {
	if n < len(s.keys) {
		s.keys = s.keys[:n]
	}
}

func (s *KeyStack) Clear() {
	s.keys = s.keys[:0]
}

// Copy returns an independent stack. Searchers push onto copies so the
// caller's history is never touched.
func (s *KeyStack) Copy() *KeyStack {
	keys := make([]uint64, len(s.keys), len(s.keys)+64)
	copy(keys, s.keys)
	return &KeyStack{keys: keys}
}

// CopyFrom replaces the contents of s with those of o, reusing s's
// storage. A nil o empties s.
func (s *KeyStack) CopyFrom(o *KeyStack) {
	if o == nil {
		s.keys = s.keys[:0]
		return
	}
	s.keys = append(s.keys[:0], o.keys...)
}
