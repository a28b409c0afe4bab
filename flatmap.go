package flatmap

import (
	"golang.org/x/exp/constraints"

	"github.com/outofforest/flatmap/blocks"
)

// Key defines the constraint for key types.
type Key interface {
	constraints.Integer
}

// Policy is the enum representing the addressing policy of the map.
type Policy uint8

// Addressing policies.
const (
	// DirectIndex uses the key as the index of the slot.
	DirectIndex Policy = iota + 1

	// OpenAddressing probes slots linearly, starting from key mod capacity.
	OpenAddressing
)

// Config fixes the memory shape of the map.
type Config struct {
	Width  int
	Height int
}

// Shape returns the shape of the storage block.
func (c Config) Shape() blocks.Shape {
	return blocks.Shape{Width: c.Width, Height: c.Height}
}

// Capacity returns the number of slots.
func (c Config) Capacity() int {
	return c.Shape().Capacity()
}

// Map is the surface shared by all the addressing policies.
type Map[K Key, V any] interface {
	Insert(k K, v V) error
	Get(k K) (V, bool, error)
	Remove(k K) (V, bool, error)
	Clear()
	Len() int
	LogLen() int
	IsEmpty() bool
	IsFull() bool
	Capacity() int
	Iter() Iterator[K, V]
	IterMut() Cursor[K, V]
	Compact() int
	Layout() Layout[K, V]
}

var (
	_ Map[uint8, int] = &DirectMap[uint8, int]{}
	_ Map[uint8, int] = &ProbeMap[uint8, int]{}
)

// resolver is implemented by addressing policies to let cursors walking the slot log reach values.
type resolver[K Key, V any] interface {
	// resolve returns the live value stored under key, or nil if the log entry is stale.
	resolve(k K) *V

	// release frees the slot referenced by the stale log entry.
	release(k K)
}

// base contains the state shared by addressing policies.
type base[K Key, V any] struct {
	shape blocks.Shape
	count int
	log   slotLog[K]
	r     resolver[K, V]
}

func newBase[K Key, V any](shape blocks.Shape, r resolver[K, V]) base[K, V] {
	return base[K, V]{
		shape: shape,
		log:   newSlotLog[K](shape),
		r:     r,
	}
}

// Len returns the number of live entries.
func (b *base[K, V]) Len() int {
	return b.count
}

// LogLen returns the number of slot log entries, including the stale ones not reclaimed yet.
func (b *base[K, V]) LogLen() int {
	return b.log.n
}

// IsEmpty returns true if there are no live entries.
func (b *base[K, V]) IsEmpty() bool {
	return b.count == 0
}

// IsFull returns true if all the slots are used by live entries.
func (b *base[K, V]) IsFull() bool {
	return b.count == b.shape.Capacity()
}

// Capacity returns the number of slots.
func (b *base[K, V]) Capacity() int {
	return b.shape.Capacity()
}

// Iter returns read-only iterator.
func (b *base[K, V]) Iter() Iterator[K, V] {
	return Iterator[K, V]{
		log: &b.log,
		r:   b.r,
	}
}

// IterMut returns cursor allowing values to be modified. Stale log entries are reclaimed on the way.
func (b *base[K, V]) IterMut() Cursor[K, V] {
	return Cursor[K, V]{
		log: &b.log,
		r:   b.r,
	}
}

// Compact reclaims all the stale log entries and returns their number.
func (b *base[K, V]) Compact() int {
	n := b.log.n
	c := b.IterMut()
	for c.Next() {
	}
	return n - b.log.n
}

func (b *base[K, V]) reset() {
	b.count = 0
	b.log.reset()
}
