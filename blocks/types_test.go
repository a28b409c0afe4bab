package blocks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeValidate(t *testing.T) {
	assertT := assert.New(t)

	assertT.NoError(Shape{Width: 8, Height: 8}.Validate())
	assertT.NoError(Shape{Width: 1, Height: 1}.Validate())

	assertT.ErrorIs(Shape{Width: 0, Height: 8}.Validate(), ErrInvalidShape)
	assertT.ErrorIs(Shape{Width: 8, Height: -1}.Validate(), ErrInvalidShape)
	assertT.ErrorIs(Shape{Width: math.MaxInt, Height: 2}.Validate(), ErrInvalidShape)
	assertT.ErrorIs(Shape{Width: 1 << 16, Height: 1<<16 + 1}.Validate(), ErrInvalidShape)
}

func TestGrid(t *testing.T) {
	requireT := require.New(t)

	g := NewGrid[uint16](Shape{Width: 4, Height: 3})
	requireT.Equal(12, g.Len())

	requireT.Equal(Shape{Width: 4, Height: 3}.Capacity(), g.Len())
	requireT.Len(g.Cells(), 12)

	*g.At(11) = 5
	requireT.EqualValues(5, g.Cells()[11])

	g.Reset()
	for _, c := range g.Cells() {
		requireT.Zero(c)
	}
}

func TestChecksum(t *testing.T) {
	requireT := require.New(t)

	p := []byte("flatmap")
	checksum := Checksum(p)
	requireT.NoError(VerifyChecksum("payload", checksum, p))

	p2 := []byte("flatmaq")
	requireT.NotEqual(checksum, Checksum(p2))
	requireT.Error(VerifyChecksum("payload", checksum, p2))

	// Parts are hashed like the concatenated bytes.
	requireT.Equal(checksum, Checksum([]byte("flat"), []byte("map")))
	requireT.Equal(checksum, Checksum([]byte("flat"), nil, []byte("map")))
	requireT.NoError(VerifyChecksum("payload", checksum, []byte("fl"), []byte("atmap")))
}
