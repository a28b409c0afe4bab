package snapshot

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/flatmap"
	"github.com/outofforest/flatmap/blocks"
)

// Encode serializes layout of the map.
//
// Keys and values are copied as raw memory, so V must not contain pointers and snapshot may be decoded
// only on the platform with the same endianness.
func Encode[K flatmap.Key, V comparable](l flatmap.Layout[K, V], c Compression) ([]byte, error) {
	withKeys, err := validateLayout(l)
	if err != nil {
		return nil, err
	}

	key := photon.NewFromValue(new(K))
	value := photon.NewFromValue(new(V))

	live := roaring.New()
	pending := roaring.New()
	tombstones := roaring.New()
	for i, s := range l.States {
		switch s {
		case blocks.LiveSlotState:
			live.Add(uint32(i))
		case blocks.PendingSlotState:
			pending.Add(uint32(i))
		case blocks.TombstoneSlotState:
			tombstones.Add(uint32(i))
		}
	}

	payload := make([]byte, 0, len(l.Log)*len(key.B)+int(live.GetCardinality())*(len(key.B)+len(value.B)))
	for _, k := range l.Log {
		*key.V = k
		payload = append(payload, key.B...)
	}
	for _, bm := range []*roaring.Bitmap{live, pending, tombstones} {
		bmBytes, err := bm.ToBytes()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		payload = binary.LittleEndian.AppendUint64(payload, uint64(len(bmBytes)))
		payload = append(payload, bmBytes...)
	}
	for i, s := range l.States {
		if s == blocks.FreeSlotState || s == blocks.TombstoneSlotState {
			continue
		}
		if withKeys {
			*key.V = l.Keys[i]
			payload = append(payload, key.B...)
		}
		if s == blocks.LiveSlotState {
			*value.V = l.Values[i]
			payload = append(payload, value.B...)
		}
	}

	stored, c, err := compress(payload, c)
	if err != nil {
		return nil, err
	}

	h := photon.NewFromValue(&header{
		Subject:     snapshotSubject,
		Policy:      uint64(l.Policy),
		Compression: uint64(c),
		Width:       uint64(l.Width),
		Height:      uint64(l.Height),
		KeySize:     uint64(len(key.B)),
		ValueSize:   uint64(len(value.B)),
		Count:       uint64(l.Count),
		LogLen:      uint64(len(l.Log)),
		RawSize:     uint64(len(payload)),
		StoredSize:  uint64(len(stored)),
	})
	h.V.Checksum = blocks.Checksum(h.B, stored)

	b := make([]byte, 0, len(h.B)+len(stored))
	b = append(b, h.B...)
	return append(b, stored...), nil
}

// Decode deserializes layout of the map.
// Returned layout is not validated against invariants of the map, this is done when map is restored.
func Decode[K flatmap.Key, V comparable](b []byte) (flatmap.Layout[K, V], error) {
	h := photon.NewFromValue(&header{})
	if len(b) < len(h.B) {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader, "snapshot is too short: %d bytes", len(b))
	}
	copy(h.B, b)
	if h.V.Subject != snapshotSubject {
		return flatmap.Layout[K, V]{}, errors.WithStack(ErrBadMagic)
	}

	stored := b[len(h.B):]
	if uint64(len(stored)) != h.V.StoredSize {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader, "payload size mismatch, expected: %d, actual: %d",
			h.V.StoredSize, len(stored))
	}

	checksum := h.V.Checksum
	h.V.Checksum = 0
	if err := blocks.VerifyChecksum("snapshot", checksum, h.B, stored); err != nil {
		return flatmap.Layout[K, V]{}, err
	}

	key := photon.NewFromValue(new(K))
	value := photon.NewFromValue(new(V))
	if h.V.KeySize != uint64(len(key.B)) || h.V.ValueSize != uint64(len(value.B)) {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader,
			"type size mismatch, stored key: %d, stored value: %d, expected key: %d, expected value: %d",
			h.V.KeySize, h.V.ValueSize, len(key.B), len(value.B))
	}

	policy := flatmap.Policy(h.V.Policy)
	if uint64(policy) != h.V.Policy || (policy != flatmap.DirectIndex && policy != flatmap.OpenAddressing) {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader, "unknown policy %d", h.V.Policy)
	}
	if h.V.Width > math.MaxInt32 || h.V.Height > math.MaxInt32 {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader, "invalid shape %dx%d", h.V.Width, h.V.Height)
	}
	shape := blocks.Shape{Width: int(h.V.Width), Height: int(h.V.Height)}
	if err := shape.Validate(); err != nil {
		return flatmap.Layout[K, V]{}, err
	}
	capacity := shape.Capacity()
	if h.V.LogLen > uint64(capacity) || h.V.Count > uint64(capacity) {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader, "counters exceed capacity, count: %d, log: %d",
			h.V.Count, h.V.LogLen)
	}
	maxSize, ok := maxPayloadSize(uint64(capacity), h.V.KeySize, h.V.ValueSize)
	if !ok || h.V.RawSize > maxSize || h.V.RawSize > uint64(math.MaxInt) {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader, "invalid payload size %d", h.V.RawSize)
	}

	payload, err := decompress(stored, Compression(h.V.Compression), int(h.V.RawSize))
	if err != nil {
		return flatmap.Layout[K, V]{}, err
	}

	l := flatmap.Layout[K, V]{
		Policy: policy,
		Width:  shape.Width,
		Height: shape.Height,
		Count:  int(h.V.Count),
		Log:    make([]K, h.V.LogLen),
		States: make([]blocks.SlotState, capacity),
		Values: make([]V, capacity),
	}
	withKeys := policy == flatmap.OpenAddressing
	if withKeys {
		l.Keys = make([]K, capacity)
	}

	r := &reader{b: payload}
	for i := range l.Log {
		p, err := r.next(len(key.B))
		if err != nil {
			return flatmap.Layout[K, V]{}, err
		}
		copy(key.B, p)
		l.Log[i] = *key.V
	}

	for _, s := range []blocks.SlotState{blocks.LiveSlotState, blocks.PendingSlotState, blocks.TombstoneSlotState} {
		if err := r.readStates(l.States, s, withKeys); err != nil {
			return flatmap.Layout[K, V]{}, err
		}
	}

	for i, s := range l.States {
		if s == blocks.FreeSlotState || s == blocks.TombstoneSlotState {
			continue
		}
		if withKeys {
			p, err := r.next(len(key.B))
			if err != nil {
				return flatmap.Layout[K, V]{}, err
			}
			copy(key.B, p)
			l.Keys[i] = *key.V
		}
		if s == blocks.LiveSlotState {
			p, err := r.next(len(value.B))
			if err != nil {
				return flatmap.Layout[K, V]{}, err
			}
			copy(value.B, p)
			l.Values[i] = *value.V
		}
	}

	if len(r.b) != 0 {
		return flatmap.Layout[K, V]{}, errors.Wrapf(ErrBadHeader, "%d unexpected bytes after payload", len(r.b))
	}
	return l, nil
}

// maxContainerSize is the largest serialized roaring container: 4096 uint16 values of the array
// container or 1024 uint64 words of the bitmap container.
const maxContainerSize = 8192

// maxPayloadSize returns the size of the largest payload encoded for the map of given capacity and types:
// the full log, every slot live and each state bitmap made of the largest containers.
func maxPayloadSize(capacity, keySize, valueSize uint64) (uint64, bool) {
	containers := (capacity + 1<<16 - 1) >> 16
	bitmapSize := 8 + containers*(8+maxContainerSize) + (containers+7)/8

	hi, size := bits.Mul64(capacity, 2*keySize+valueSize)
	if hi != 0 {
		return 0, false
	}
	size, carry := bits.Add64(size, 3*(8+bitmapSize), 0)
	return size, carry == 0
}

func validateLayout[K flatmap.Key, V any](l flatmap.Layout[K, V]) (bool, error) {
	shape := l.Shape()
	if err := shape.Validate(); err != nil {
		return false, err
	}
	capacity := shape.Capacity()
	if len(l.States) != capacity || len(l.Values) != capacity || len(l.Log) > capacity {
		return false, errors.Wrapf(flatmap.ErrCorruptedLayout,
			"invalid number of items, capacity: %d, states: %d, values: %d, log: %d",
			capacity, len(l.States), len(l.Values), len(l.Log))
	}
	if l.Count < 0 || l.Count > capacity {
		return false, errors.Wrapf(flatmap.ErrCorruptedLayout, "invalid count %d", l.Count)
	}

	var withKeys bool
	switch l.Policy {
	case flatmap.DirectIndex:
		if l.Keys != nil {
			return false, errors.Wrap(flatmap.ErrCorruptedLayout, "direct-index layout must not contain slot keys")
		}
	case flatmap.OpenAddressing:
		if len(l.Keys) != capacity {
			return false, errors.Wrapf(flatmap.ErrCorruptedLayout, "invalid number of slot keys: %d", len(l.Keys))
		}
		withKeys = true
	default:
		return false, errors.Wrapf(flatmap.ErrCorruptedLayout, "unknown policy %d", l.Policy)
	}

	for i, s := range l.States {
		switch s {
		case blocks.FreeSlotState, blocks.LiveSlotState, blocks.PendingSlotState:
		case blocks.TombstoneSlotState:
			if !withKeys {
				return false, errors.Wrapf(flatmap.ErrCorruptedLayout, "tombstone in slot %d of direct-index layout", i)
			}
		default:
			return false, errors.Wrapf(flatmap.ErrCorruptedLayout, "invalid state %d of slot %d", s, i)
		}
	}
	return withKeys, nil
}

type reader struct {
	b []byte
}

func (r *reader) next(n int) ([]byte, error) {
	if n > len(r.b) {
		return nil, errors.Wrapf(ErrBadHeader, "payload is truncated, expected: %d bytes, available: %d",
			n, len(r.b))
	}
	p := r.b[:n]
	r.b = r.b[n:]
	return p, nil
}

// readStates reads bitmap of slots being in the state s.
func (r *reader) readStates(states []blocks.SlotState, s blocks.SlotState, withKeys bool) error {
	sizeBytes, err := r.next(8)
	if err != nil {
		return err
	}
	size := binary.LittleEndian.Uint64(sizeBytes)
	if size > uint64(len(r.b)) {
		return errors.Wrapf(ErrBadHeader, "bitmap is truncated, expected: %d bytes, available: %d", size, len(r.b))
	}
	bmBytes, err := r.next(int(size))
	if err != nil {
		return err
	}

	bm := roaring.New()
	if err := bm.UnmarshalBinary(bmBytes); err != nil {
		return errors.Wrap(ErrBadHeader, err.Error())
	}
	if !bm.IsEmpty() && uint64(bm.Maximum()) >= uint64(len(states)) {
		return errors.Wrapf(ErrBadHeader, "slot %d out of range", bm.Maximum())
	}
	if s == blocks.TombstoneSlotState && !withKeys && !bm.IsEmpty() {
		return errors.Wrap(ErrBadHeader, "tombstones in direct-index snapshot")
	}

	it := bm.Iterator()
	for it.HasNext() {
		i := it.Next()
		if states[i] != blocks.FreeSlotState {
			return errors.Wrapf(ErrBadHeader, "slot %d has more than one state", i)
		}
		states[i] = s
	}
	return nil
}
