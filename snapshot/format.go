package snapshot

import (
	"github.com/pkg/errors"

	"github.com/outofforest/flatmap/blocks"
)

// snapshotSubject identifies bytes produced by Encode.
const snapshotSubject = 0b0100011001001100010000010101010001010011010011100100000100000001

// Compression is the enum representing the algorithm used to compress the payload.
type Compression uint8

// Compression algorithms.
const (
	// CompressionNone stores payload as is.
	CompressionNone Compression = iota

	// CompressionLZ4 compresses payload with LZ4 block format.
	CompressionLZ4

	// CompressionZSTD compresses payload with ZSTD.
	CompressionZSTD
)

var (
	// ErrBadMagic is returned when decoded bytes don't start with the snapshot header.
	ErrBadMagic = errors.New("bytes do not contain the snapshot")

	// ErrBadHeader is returned when header doesn't match the decoded types or the payload.
	ErrBadHeader = errors.New("invalid snapshot header")
)

// header starts every snapshot. Checksum covers the header, with zeroed checksum, and the stored payload.
type header struct {
	Subject     uint64
	Policy      uint64
	Compression uint64
	Width       uint64
	Height      uint64
	KeySize     uint64
	ValueSize   uint64
	Count       uint64
	LogLen      uint64
	RawSize     uint64
	StoredSize  uint64
	Checksum    blocks.Hash
}
