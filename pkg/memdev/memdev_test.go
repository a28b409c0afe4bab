package memdev

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeek(t *testing.T) {
	assertT := assert.New(t)

	dev := newDev()

	for _, s := range []struct {
		offset   int64
		whence   int
		expected int64
		valid    bool
	}{
		{offset: -1, whence: io.SeekStart},
		{offset: 10, whence: io.SeekStart, expected: 10, valid: true},
		{offset: 11, whence: io.SeekStart},
		{offset: -5, whence: io.SeekCurrent, expected: 5, valid: true},
		{offset: 6, whence: io.SeekCurrent},
		{offset: -6, whence: io.SeekCurrent},
		{offset: 2, whence: io.SeekCurrent, expected: 7, valid: true},
		{offset: 1, whence: io.SeekEnd},
		{offset: -10, whence: io.SeekEnd, expected: 0, valid: true},
		{offset: -11, whence: io.SeekEnd},
		{offset: 0, whence: 3},
	} {
		o, err := dev.Seek(s.offset, s.whence)
		if s.valid {
			assertT.NoError(err)
			assertT.Equal(s.expected, o)
		} else {
			assertT.Error(err)
			assertT.Zero(o)
		}
	}
}

func TestReadAtTheEnd(t *testing.T) {
	requireT := require.New(t)

	dev := newDev()

	n, err := dev.Read(nil)
	requireT.NoError(err)
	requireT.Zero(n)

	_, err = dev.Seek(-1, io.SeekEnd)
	requireT.NoError(err)

	buf := make([]byte, 3)
	n, err = dev.Read(buf)
	requireT.NoError(err)
	requireT.Equal(1, n)
	requireT.Equal(byte(0x09), buf[0])

	n, err = dev.Read(buf)
	requireT.ErrorIs(err, io.EOF)
	requireT.Zero(n)

	_, err = dev.Seek(8, io.SeekStart)
	requireT.NoError(err)
	_, err = io.ReadFull(dev, buf)
	requireT.ErrorIs(err, io.ErrUnexpectedEOF)
}

func TestShortWrite(t *testing.T) {
	requireT := require.New(t)

	dev := newDev()
	buf := []byte{0x10, 0x11, 0x12}

	_, err := dev.Seek(1, io.SeekStart)
	requireT.NoError(err)
	n, err := dev.Write(buf)
	requireT.NoError(err)
	requireT.Equal(3, n)

	_, err = dev.Seek(-1, io.SeekEnd)
	requireT.NoError(err)
	n, err = dev.Write(buf)
	requireT.ErrorIs(err, io.ErrShortWrite)
	requireT.Equal(1, n)

	n, err = dev.Write(buf)
	requireT.ErrorIs(err, io.ErrShortWrite)
	requireT.Zero(n)

	requireT.Equal([]byte{0x00, 0x10, 0x11, 0x12, 0x04, 0x05, 0x06, 0x07, 0x08, 0x10}, dev.Bytes())
	requireT.NoError(dev.Sync())
	requireT.EqualValues(10, dev.Size())
}

func newDev() *MemDev {
	const size = 10

	dev := New(size)
	for i := range size {
		dev.data[i] = byte(i)
	}

	return dev
}
