//go:build !test

package persistence

const (
	// MinNBlocks specifies the minimum amount of blocks which must fit into device.
	MinNBlocks = 32
)
