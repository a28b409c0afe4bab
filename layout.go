package flatmap

import (
	"github.com/pkg/errors"

	"github.com/outofforest/flatmap/blocks"
)

// Layout is the persisted shape of the map: counters, slot log and slots, stored as flat arrays.
//
// States and Values contain one item per slot. Keys contains one item per slot for open-addressing map
// and is nil for direct-index map, where the key is the slot index. Log contains LogLen() items.
type Layout[K Key, V any] struct {
	Policy Policy
	Width  int
	Height int
	Count  int
	Log    []K
	States []blocks.SlotState
	Keys   []K
	Values []V
}

// Shape returns the shape of the storage block.
func (l Layout[K, V]) Shape() blocks.Shape {
	return blocks.Shape{Width: l.Width, Height: l.Height}
}

// Layout returns copy of the map state.
func (m *DirectMap[K, V]) Layout() Layout[K, V] {
	l := newLayout[K, V](DirectIndex, &m.base)
	for i, c := range m.values.Cells() {
		l.States[i] = c.State
		l.Values[i] = c.Value
	}
	return l
}

// Layout returns copy of the map state.
func (m *ProbeMap[K, V]) Layout() Layout[K, V] {
	l := newLayout[K, V](OpenAddressing, &m.base)
	l.Keys = make([]K, m.slots.Len())
	for i, s := range m.slots.Cells() {
		l.States[i] = s.State
		l.Keys[i] = s.Key
		l.Values[i] = s.Value
	}
	return l
}

func newLayout[K Key, V any](policy Policy, b *base[K, V]) Layout[K, V] {
	capacity := b.shape.Capacity()
	l := Layout[K, V]{
		Policy: policy,
		Width:  b.shape.Width,
		Height: b.shape.Height,
		Count:  b.count,
		Log:    make([]K, b.log.n),
		States: make([]blocks.SlotState, capacity),
		Values: make([]V, capacity),
	}
	copy(l.Log, b.log.keys.Cells()[:b.log.n])
	return l
}

// Restore builds map of the policy stored in layout.
func Restore[K Key, V any](l Layout[K, V]) (Map[K, V], error) {
	switch l.Policy {
	case DirectIndex:
		m, err := RestoreDirect(l)
		if err != nil {
			return nil, err
		}
		return m, nil
	case OpenAddressing:
		m, err := RestoreProbe(l)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Wrapf(ErrCorruptedLayout, "unknown policy %d", l.Policy)
	}
}

// RestoreDirect builds direct-index map from layout.
func RestoreDirect[K Key, V any](l Layout[K, V]) (*DirectMap[K, V], error) {
	if l.Policy != DirectIndex {
		return nil, errors.Wrapf(ErrCorruptedLayout, "unexpected policy %d", l.Policy)
	}
	if l.Keys != nil {
		return nil, errors.Wrap(ErrCorruptedLayout, "direct-index layout must not contain slot keys")
	}

	m, err := NewDirect[K, V](Config{Width: l.Width, Height: l.Height})
	if err != nil {
		return nil, err
	}
	if err := validateLayoutSizes(l); err != nil {
		return nil, err
	}

	for i := range l.States {
		c := m.values.At(i)
		c.State = l.States[i]
		switch c.State {
		case blocks.LiveSlotState:
			c.Value = l.Values[i]
		case blocks.FreeSlotState, blocks.PendingSlotState:
		default:
			return nil, errors.Wrapf(ErrCorruptedLayout, "invalid state %d of slot %d", c.State, i)
		}
	}

	referenced := make([]bool, m.values.Len())
	for p, k := range l.Log {
		index, ok := m.index(k)
		if !ok {
			return nil, errors.Wrapf(ErrCorruptedLayout, "log entry %d: key %d out of range", p, k)
		}
		if err := reference(referenced, index, m.values.At(index).State, p); err != nil {
			return nil, err
		}
		m.log.append(k)
	}

	if err := validateCounters(l); err != nil {
		return nil, err
	}
	m.count = l.Count
	return m, nil
}

// RestoreProbe builds open-addressing map from layout.
func RestoreProbe[K Key, V any](l Layout[K, V]) (*ProbeMap[K, V], error) {
	if l.Policy != OpenAddressing {
		return nil, errors.Wrapf(ErrCorruptedLayout, "unexpected policy %d", l.Policy)
	}

	m, err := NewProbe[K, V](Config{Width: l.Width, Height: l.Height})
	if err != nil {
		return nil, err
	}
	if err := validateLayoutSizes(l); err != nil {
		return nil, err
	}
	if len(l.Keys) != m.slots.Len() {
		return nil, errors.Wrapf(ErrCorruptedLayout, "invalid number of slot keys, expected: %d, actual: %d",
			m.slots.Len(), len(l.Keys))
	}

	for i := range l.States {
		s := m.slots.At(i)
		s.State = l.States[i]
		switch s.State {
		case blocks.LiveSlotState:
			s.Key = l.Keys[i]
			s.Value = l.Values[i]
		case blocks.PendingSlotState:
			s.Key = l.Keys[i]
		case blocks.FreeSlotState, blocks.TombstoneSlotState:
		default:
			return nil, errors.Wrapf(ErrCorruptedLayout, "invalid state %d of slot %d", s.State, i)
		}
	}

	referenced := make([]bool, m.slots.Len())
	for p, k := range l.Log {
		index := m.lookup(k)
		if index < 0 {
			return nil, errors.Wrapf(ErrCorruptedLayout, "log entry %d: key %d is unreachable", p, k)
		}
		if err := reference(referenced, index, m.slots.At(index).State, p); err != nil {
			return nil, err
		}
		m.log.append(k)
	}

	if err := validateCounters(l); err != nil {
		return nil, err
	}
	m.count = l.Count
	return m, nil
}

func validateLayoutSizes[K Key, V any](l Layout[K, V]) error {
	capacity := l.Shape().Capacity()
	if len(l.States) != capacity || len(l.Values) != capacity {
		return errors.Wrapf(ErrCorruptedLayout, "invalid number of slots, expected: %d, states: %d, values: %d",
			capacity, len(l.States), len(l.Values))
	}
	if len(l.Log) > capacity {
		return errors.Wrapf(ErrCorruptedLayout, "log is too long, capacity: %d, log: %d", capacity, len(l.Log))
	}
	return nil
}

func reference(referenced []bool, index int, state blocks.SlotState, p int) error {
	if state != blocks.LiveSlotState && state != blocks.PendingSlotState {
		return errors.Wrapf(ErrCorruptedLayout, "log entry %d refers to slot %d in state %d", p, index, state)
	}
	if referenced[index] {
		return errors.Wrapf(ErrCorruptedLayout, "log entry %d refers to slot %d referenced before", p, index)
	}
	referenced[index] = true
	return nil
}

func validateCounters[K Key, V any](l Layout[K, V]) error {
	var nLive, nPending int
	for _, s := range l.States {
		switch s {
		case blocks.LiveSlotState:
			nLive++
		case blocks.PendingSlotState:
			nPending++
		}
	}

	if l.Count != nLive {
		return errors.Wrapf(ErrCorruptedLayout, "count mismatch, stored: %d, live slots: %d", l.Count, nLive)
	}
	if len(l.Log) != nLive+nPending {
		return errors.Wrapf(ErrCorruptedLayout, "log length mismatch, log: %d, referenced slots: %d",
			len(l.Log), nLive+nPending)
	}
	return nil
}
