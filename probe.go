package flatmap

import (
	"github.com/outofforest/flatmap/blocks"
)

type slot[K Key, V any] struct {
	Key   K
	Value V
	State blocks.SlotState
}

// ProbeMap is the map resolving keys by linear probing with wraparound, starting from key mod capacity.
// It accepts keys from the domain larger than its capacity.
type ProbeMap[K Key, V any] struct {
	base[K, V]
	slots blocks.Grid[slot[K, V]]
}

// NewProbe returns new empty open-addressing map.
func NewProbe[K Key, V any](config Config) (*ProbeMap[K, V], error) {
	shape := config.Shape()
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	m := &ProbeMap[K, V]{
		slots: blocks.NewGrid[slot[K, V]](shape),
	}
	m.base = newBase[K, V](shape, m)
	return m, nil
}

// Insert stores the value under key. If key exists, its value is replaced.
func (m *ProbeMap[K, V]) Insert(k K, v V) error {
	if m.IsFull() {
		return ErrCapacityExceeded
	}

	index, exists := m.seek(k)
	if index < 0 {
		// All the slots are live or referenced by stale log entries, so the log must be compacted
		// to turn some of them into tombstones.
		m.Compact()
		if index, exists = m.seek(k); index < 0 {
			return ErrCapacityExceeded
		}
	}

	s := m.slots.At(index)
	if exists {
		if s.State == blocks.LiveSlotState {
			s.Value = v
			return nil
		}

		// Pending slot is revived, its log entry is reused.
		s.Value = v
		s.State = blocks.LiveSlotState
		m.count++
		return nil
	}

	s.Key = k
	s.Value = v
	s.State = blocks.LiveSlotState
	m.log.append(k)
	m.count++
	return nil
}

// Get returns value stored under key.
// Error is always nil, it is returned to satisfy the Map interface.
func (m *ProbeMap[K, V]) Get(k K) (V, bool, error) {
	var v V

	index := m.lookup(k)
	if index < 0 {
		return v, false, nil
	}

	s := m.slots.At(index)
	if s.State != blocks.LiveSlotState {
		return v, false, nil
	}
	return s.Value, true, nil
}

// Remove removes key and returns its value.
// Slot log is not touched, the stale entry is reclaimed by the mutable cursor.
func (m *ProbeMap[K, V]) Remove(k K) (V, bool, error) {
	var v V
	if m.IsEmpty() {
		return v, false, nil
	}

	index := m.lookup(k)
	if index < 0 {
		return v, false, nil
	}

	s := m.slots.At(index)
	if s.State != blocks.LiveSlotState {
		return v, false, nil
	}

	v = s.Value
	var zero V
	s.Value = zero
	s.State = blocks.PendingSlotState
	m.count--
	return v, true, nil
}

// Clear removes all the entries.
func (m *ProbeMap[K, V]) Clear() {
	m.reset()
	m.slots.Reset()
}

func (m *ProbeMap[K, V]) start(k K) int {
	return int(uint64(k) % uint64(m.slots.Len()))
}

func (m *ProbeMap[K, V]) next(index int) int {
	index++
	if index == m.slots.Len() {
		return 0
	}
	return index
}

// lookup returns index of the live or pending slot holding the key, or -1 if there is none.
func (m *ProbeMap[K, V]) lookup(k K) int {
	for i, index := 0, m.start(k); i < m.slots.Len(); i, index = i+1, m.next(index) {
		s := m.slots.At(index)
		switch s.State {
		case blocks.FreeSlotState:
			return -1
		case blocks.LiveSlotState, blocks.PendingSlotState:
			if s.Key == k {
				return index
			}
		}
	}
	return -1
}

// seek returns index of the live or pending slot holding the key. If there is no such slot, index of the slot
// where key should be stored is returned: the first tombstone on the probe path or the free slot ending it.
// If none of those exists, -1 is returned.
func (m *ProbeMap[K, V]) seek(k K) (int, bool) {
	tombstone := -1
	for i, index := 0, m.start(k); i < m.slots.Len(); i, index = i+1, m.next(index) {
		s := m.slots.At(index)
		switch s.State {
		case blocks.FreeSlotState:
			if tombstone >= 0 {
				return tombstone, false
			}
			return index, false
		case blocks.TombstoneSlotState:
			if tombstone < 0 {
				tombstone = index
			}
		case blocks.LiveSlotState, blocks.PendingSlotState:
			if s.Key == k {
				return index, true
			}
		}
	}
	return tombstone, false
}

func (m *ProbeMap[K, V]) resolve(k K) *V {
	index := m.lookup(k)
	if index < 0 {
		return nil
	}

	s := m.slots.At(index)
	if s.State != blocks.LiveSlotState {
		return nil
	}
	return &s.Value
}

func (m *ProbeMap[K, V]) release(k K) {
	index := m.lookup(k)
	if index < 0 || m.slots.At(index).State != blocks.PendingSlotState {
		return
	}

	*m.slots.At(index) = slot[K, V]{State: blocks.TombstoneSlotState}

	// Tombstones followed by the free slot don't extend any probe path, so they are freed.
	if m.slots.At(m.next(index)).State != blocks.FreeSlotState {
		return
	}
	for i := 0; i < m.slots.Len(); i++ {
		s := m.slots.At(index)
		if s.State != blocks.TombstoneSlotState {
			return
		}
		s.State = blocks.FreeSlotState
		if index == 0 {
			index = m.slots.Len()
		}
		index--
	}
}
