package blocks

import (
	"math"

	"github.com/pkg/errors"
)

// BlockSize is the size of the data unit used by the persistent store.
const BlockSize int64 = 4 * 1024 // 4 KiB

// MaxCapacity is the maximum number of slots in the storage block.
// Slot ids are stored as uint32 in snapshots.
const MaxCapacity = math.MaxUint32 + 1

// ErrInvalidShape is returned if shape can't be used to build the storage block.
var ErrInvalidShape = errors.New("invalid shape")

// Hash represents checksum.
type Hash uint64

// BlockAddress is the address (index or offset) of the block.
type BlockAddress uint64

// SlotState is the enum representing the state of the slot.
type SlotState byte

// Slot states.
const (
	// FreeSlotState means slot has never been used since the last clear or it has been reclaimed.
	FreeSlotState SlotState = iota

	// LiveSlotState means slot holds a value.
	LiveSlotState

	// PendingSlotState means value has been removed but the slot log still refers to the slot.
	PendingSlotState

	// TombstoneSlotState means value has been removed and reclaimed, but slot must not stop probing.
	TombstoneSlotState
)

// Shape defines the dimensions of the storage block.
type Shape struct {
	Width  int
	Height int
}

// Capacity returns the number of slots in the storage block.
func (s Shape) Capacity() int {
	return s.Width * s.Height
}

// Validate verifies that shape describes a storage block which might be allocated.
func (s Shape) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.Wrapf(ErrInvalidShape, "dimensions must be positive, width: %d, height: %d", s.Width, s.Height)
	}
	if s.Width > math.MaxInt/s.Height {
		return errors.Wrapf(ErrInvalidShape, "capacity overflows, width: %d, height: %d", s.Width, s.Height)
	}
	if uint64(s.Capacity()) > MaxCapacity {
		return errors.Wrapf(ErrInvalidShape, "maximum capacity exceeded, maximum: %d, actual: %d",
			uint64(MaxCapacity), s.Capacity())
	}
	return nil
}
