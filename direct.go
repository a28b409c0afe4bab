package flatmap

import (
	"github.com/pkg/errors"

	"github.com/outofforest/flatmap/blocks"
)

type cell[V any] struct {
	Value V
	State blocks.SlotState
}

// DirectMap is the map using key as the index of the slot storing the value.
// Keys must be in range [0, capacity).
type DirectMap[K Key, V any] struct {
	base[K, V]
	values blocks.Grid[cell[V]]
}

// NewDirect returns new empty direct-index map.
func NewDirect[K Key, V any](config Config) (*DirectMap[K, V], error) {
	shape := config.Shape()
	if err := validateDirectShape[K](shape); err != nil {
		return nil, err
	}

	m := &DirectMap[K, V]{
		values: blocks.NewGrid[cell[V]](shape),
	}
	m.base = newBase[K, V](shape, m)
	return m, nil
}

func validateDirectShape[K Key](shape blocks.Shape) error {
	if err := shape.Validate(); err != nil {
		return err
	}

	maxKey := K(shape.Capacity() - 1)
	if maxKey < 0 || uint64(maxKey) != uint64(shape.Capacity()-1) {
		return errors.Wrapf(ErrInvalidShape, "key type can't represent all the slots, capacity: %d", shape.Capacity())
	}
	return nil
}

// Insert stores the value under key. If key exists, its value is replaced.
func (m *DirectMap[K, V]) Insert(k K, v V) error {
	if m.IsFull() {
		return ErrCapacityExceeded
	}

	index, ok := m.index(k)
	if !ok {
		return ErrKeyOutOfRange
	}

	c := m.values.At(index)
	switch c.State {
	case blocks.LiveSlotState:
		c.Value = v
		return nil
	case blocks.PendingSlotState:
		// Log entry still exists, so it is reused.
	default:
		m.log.append(k)
	}

	c.Value = v
	c.State = blocks.LiveSlotState
	m.count++
	return nil
}

// Get returns value stored under key.
func (m *DirectMap[K, V]) Get(k K) (V, bool, error) {
	var v V

	index, ok := m.index(k)
	if !ok {
		return v, false, ErrKeyOutOfRange
	}

	c := m.values.At(index)
	if c.State != blocks.LiveSlotState {
		return v, false, nil
	}
	return c.Value, true, nil
}

// Remove removes key and returns its value.
// Slot log is not touched, the stale entry is reclaimed by the mutable cursor.
func (m *DirectMap[K, V]) Remove(k K) (V, bool, error) {
	var v V
	if m.IsEmpty() {
		return v, false, nil
	}

	index, ok := m.index(k)
	if !ok {
		return v, false, ErrKeyOutOfRange
	}

	c := m.values.At(index)
	if c.State != blocks.LiveSlotState {
		return v, false, nil
	}

	v = c.Value
	var zero V
	c.Value = zero
	c.State = blocks.PendingSlotState
	m.count--
	return v, true, nil
}

// Replace removes the key and inserts it again with new value. Previous value is returned.
// Operation is not atomic: if insert fails, the previous value is already removed.
func (m *DirectMap[K, V]) Replace(k K, v V) (V, bool, error) {
	old, exists, err := m.Remove(k)
	if err != nil {
		return old, false, err
	}
	if err := m.Insert(k, v); err != nil {
		return old, exists, err
	}
	return old, exists, nil
}

// Clear removes all the entries.
func (m *DirectMap[K, V]) Clear() {
	m.reset()
	m.values.Reset()
}

func (m *DirectMap[K, V]) index(k K) (int, bool) {
	if k < 0 || uint64(k) >= uint64(m.values.Len()) {
		return 0, false
	}
	return int(k), true
}

func (m *DirectMap[K, V]) resolve(k K) *V {
	c := m.values.At(int(k))
	if c.State != blocks.LiveSlotState {
		return nil
	}
	return &c.Value
}

func (m *DirectMap[K, V]) release(k K) {
	c := m.values.At(int(k))
	if c.State == blocks.PendingSlotState {
		c.State = blocks.FreeSlotState
	}
}
