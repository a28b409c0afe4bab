package snapshot

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return enc, nil
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return dec, nil
}

// compress returns compressed data and the algorithm really used.
// Data which don't get smaller are returned as is with CompressionNone.
func compress(data []byte, c Compression) ([]byte, Compression, error) {
	var compressed []byte
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		compressed = make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, 0, errors.WithStack(err)
		}
		compressed = compressed[:n]
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, err
		}
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, errors.Errorf("unknown compression %d", c)
	}

	// Zero length means lz4 found data incompressible.
	if len(compressed) == 0 || len(compressed) >= len(data) {
		return data, CompressionNone, nil
	}
	return compressed, c, nil
}

func decompress(data []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != rawSize {
			return nil, errors.Wrapf(ErrBadHeader, "payload size mismatch, expected: %d, actual: %d",
				rawSize, len(data))
		}
		return data, nil
	case CompressionLZ4:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, raw)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if n != rawSize {
			return nil, errors.Wrapf(ErrBadHeader, "decompressed size mismatch, expected: %d, actual: %d",
				rawSize, n)
		}
		return raw, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)

		raw, err := dec.DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if len(raw) != rawSize {
			return nil, errors.Wrapf(ErrBadHeader, "decompressed size mismatch, expected: %d, actual: %d",
				rawSize, len(raw))
		}
		return raw, nil
	default:
		return nil, errors.Wrapf(ErrBadHeader, "unknown compression %d", c)
	}
}
