package flatmap

import (
	"github.com/pkg/errors"

	"github.com/outofforest/flatmap/blocks"
)

// Operations on the map return these errors unwrapped, so reporting them never allocates.
var (
	// ErrCapacityExceeded is returned when inserting into the full map.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrKeyOutOfRange is returned when key can't be used as the slot index by the direct-index map.
	ErrKeyOutOfRange = errors.New("key out of range")

	// ErrCorruptedLayout is returned when layout breaks invariants of the map.
	ErrCorruptedLayout = errors.New("corrupted layout")

	// ErrInvalidShape is returned when configuration can't be used to build the map.
	ErrInvalidShape = blocks.ErrInvalidShape
)
