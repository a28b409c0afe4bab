package flatmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/flatmap/blocks"
)

func newDirect(t *testing.T) *DirectMap[uint8, int32] {
	m, err := NewDirect[uint8, int32](Config{Width: 8, Height: 8})
	require.NoError(t, err)
	return m
}

func TestDirectConstructor(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)
	requireT.True(m.IsEmpty())
	requireT.False(m.IsFull())
	requireT.Equal(0, m.Len())
	requireT.Equal(0, m.LogLen())
	requireT.Equal(64, m.Capacity())
}

func TestDirectInvalidConfig(t *testing.T) {
	requireT := require.New(t)

	_, err := NewDirect[uint8, int32](Config{Width: 0, Height: 8})
	requireT.ErrorIs(err, ErrInvalidShape)

	// 256 slots use keys 0..255, all fitting into uint8.
	_, err = NewDirect[uint8, int32](Config{Width: 16, Height: 16})
	requireT.NoError(err)

	_, err = NewDirect[uint8, int32](Config{Width: 16, Height: 17})
	requireT.ErrorIs(err, ErrInvalidShape)

	_, err = NewDirect[int8, int32](Config{Width: 16, Height: 16})
	requireT.ErrorIs(err, ErrInvalidShape)

	_, err = NewDirect[int8, int32](Config{Width: 8, Height: 16})
	requireT.NoError(err)
}

func TestDirectInsertRemove(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)

	requireT.NoError(m.Insert(5, 32))
	requireT.False(m.IsEmpty())
	requireT.Equal(1, m.Len())

	v, exists, err := m.Get(5)
	requireT.NoError(err)
	requireT.True(exists)
	requireT.EqualValues(32, v)

	v, exists, err = m.Remove(5)
	requireT.NoError(err)
	requireT.True(exists)
	requireT.EqualValues(32, v)
	requireT.True(m.IsEmpty())

	_, exists, err = m.Get(5)
	requireT.NoError(err)
	requireT.False(exists)
}

func TestDirectRemoveAbsent(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)

	// Empty map doesn't validate the key.
	_, exists, err := m.Remove(200)
	requireT.NoError(err)
	requireT.False(exists)

	requireT.NoError(m.Insert(1, 1))

	_, exists, err = m.Remove(2)
	requireT.NoError(err)
	requireT.False(exists)
	requireT.Equal(1, m.Len())

	_, exists, err = m.Remove(64)
	requireT.ErrorIs(err, ErrKeyOutOfRange)
	requireT.False(exists)
	requireT.Equal(1, m.Len())
}

func TestDirectKeyOutOfRange(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)

	requireT.ErrorIs(m.Insert(64, 0), ErrKeyOutOfRange)
	requireT.ErrorIs(m.Insert(255, 0), ErrKeyOutOfRange)
	requireT.True(m.IsEmpty())

	_, _, err := m.Get(64)
	requireT.ErrorIs(err, ErrKeyOutOfRange)

	requireT.NoError(m.Insert(63, 0))
}

func TestDirectNegativeKey(t *testing.T) {
	requireT := require.New(t)

	m, err := NewDirect[int16, int32](Config{Width: 4, Height: 4})
	requireT.NoError(err)

	requireT.ErrorIs(m.Insert(-1, 0), ErrKeyOutOfRange)
	_, _, err = m.Get(-1)
	requireT.ErrorIs(err, ErrKeyOutOfRange)
}

func TestDirectCapacityExceeded(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)
	for i := range m.Capacity() {
		requireT.NoError(m.Insert(uint8(i), 0))
	}
	requireT.True(m.IsFull())
	requireT.Equal(m.Capacity(), m.Len())

	requireT.ErrorIs(m.Insert(60, 1), ErrCapacityExceeded)
	requireT.ErrorIs(m.Insert(64, 1), ErrCapacityExceeded)

	_, exists, err := m.Remove(10)
	requireT.NoError(err)
	requireT.True(exists)
	requireT.False(m.IsFull())

	requireT.NoError(m.Insert(10, 7))
	requireT.True(m.IsFull())
	requireT.Equal(m.Capacity(), m.LogLen())

	v, _, err := m.Get(10)
	requireT.NoError(err)
	requireT.EqualValues(7, v)
}

func TestDirectUpsert(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)

	requireT.NoError(m.Insert(3, 1))
	requireT.NoError(m.Insert(3, 2))
	requireT.Equal(1, m.Len())
	requireT.Equal(1, m.LogLen())

	v, exists, err := m.Get(3)
	requireT.NoError(err)
	requireT.True(exists)
	requireT.EqualValues(2, v)
}

func TestDirectReviveReusesLogEntry(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)

	requireT.NoError(m.Insert(3, 1))
	requireT.NoError(m.Insert(4, 1))
	_, _, err := m.Remove(3)
	requireT.NoError(err)
	requireT.Equal(1, m.Len())
	requireT.Equal(2, m.LogLen())

	requireT.NoError(m.Insert(3, 5))
	requireT.Equal(2, m.Len())
	requireT.Equal(2, m.LogLen())

	requireT.Equal(map[uint8]int32{3: 5, 4: 1}, collect[uint8, int32](t, m))
}

func TestDirectReplace(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)

	requireT.NoError(m.Insert(10, 3))

	old, exists, err := m.Replace(10, 1000)
	requireT.NoError(err)
	requireT.True(exists)
	requireT.EqualValues(3, old)

	v, _, err := m.Get(10)
	requireT.NoError(err)
	requireT.EqualValues(1000, v)
	requireT.Equal(1, m.Len())

	old, exists, err = m.Replace(11, 4)
	requireT.NoError(err)
	requireT.False(exists)
	requireT.Zero(old)
	requireT.Equal(2, m.Len())

	_, _, err = m.Replace(64, 4)
	requireT.ErrorIs(err, ErrKeyOutOfRange)
}

func TestDirectReplaceOnFullMap(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)
	for i := range m.Capacity() {
		requireT.NoError(m.Insert(uint8(i), int32(i)))
	}

	old, exists, err := m.Replace(20, -1)
	requireT.NoError(err)
	requireT.True(exists)
	requireT.EqualValues(20, old)
	requireT.True(m.IsFull())

	v, _, err := m.Get(20)
	requireT.NoError(err)
	requireT.EqualValues(-1, v)
}

func TestDirectClear(t *testing.T) {
	requireT := require.New(t)

	m := newDirect(t)
	for i := range 10 {
		requireT.NoError(m.Insert(uint8(i), int32(i)))
	}
	_, _, err := m.Remove(3)
	requireT.NoError(err)

	m.Clear()
	requireT.True(m.IsEmpty())
	requireT.Equal(0, m.LogLen())
	for i := range m.Capacity() {
		requireT.Equal(blocks.FreeSlotState, m.values.At(i).State)
	}

	it := m.Iter()
	requireT.False(it.Next())

	requireT.NoError(m.Insert(3, 3))
	requireT.Equal(map[uint8]int32{3: 3}, collect[uint8, int32](t, m))
}
