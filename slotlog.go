package flatmap

import "github.com/outofforest/flatmap/blocks"

// slotLog records keys in the order they were inserted. It drives iteration without scanning all the slots.
type slotLog[K Key] struct {
	keys blocks.Grid[K]
	n    int
}

func newSlotLog[K Key](shape blocks.Shape) slotLog[K] {
	return slotLog[K]{
		keys: blocks.NewGrid[K](shape),
	}
}

func (l *slotLog[K]) append(k K) {
	*l.keys.At(l.n) = k
	l.n++
}

func (l *slotLog[K]) at(p int) K {
	return *l.keys.At(p)
}

// swapRemove overwrites entry at position p with the last one and shrinks the log.
func (l *slotLog[K]) swapRemove(p int) {
	l.n--
	*l.keys.At(p) = *l.keys.At(l.n)
}

// reset empties the log. Keys stored so far are left as unreachable residue.
func (l *slotLog[K]) reset() {
	l.n = 0
}
