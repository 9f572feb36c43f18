package store

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec applied to record blobs.
type Compression uint8

const (
	// CompressionNone stores records as encoded.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd at the default level.
	CompressionZSTD Compression = 2
)

// String returns the flag name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "compression(" + strconv.Itoa(int(c)) + ")"
	}
}

// ParseCompression parses "none", "lz4" or "zstd". The empty string is none.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, &ErrUnknownCompression{Name: s}
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxRecordSize))
	return dec
}

// Frame layout: [tag uint8][uncompressed size uint32][payload].
const frameHeaderSize = 5

// MaxRecordSize bounds the decoded size of a single record.
const MaxRecordSize = 256 << 20

// maxLZ4Ratio is the best ratio an LZ4 block can reach.
const maxLZ4Ratio = 255

// frame compresses data with c. Data that does not shrink is stored raw.
func frame(data []byte, c Compression) ([]byte, error) {
	if len(data) > MaxRecordSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	var payload []byte

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		payload = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, &ErrUnknownCompression{Name: c.String()}
	}

	if len(payload) == 0 || len(payload) >= len(data) {
		c, payload = CompressionNone, data
	}

	out := make([]byte, frameHeaderSize+len(payload))
	out[0] = byte(c)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	copy(out[frameHeaderSize:], payload)
	return out, nil
}

// unframe reverses frame.
func unframe(data []byte) ([]byte, error) {
	if len(data) < frameHeaderSize {
		return nil, fmt.Errorf("%w: frame of %d bytes", ErrCorrupt, len(data))
	}

	c := Compression(data[0])
	size := binary.LittleEndian.Uint32(data[1:])
	payload := data[frameHeaderSize:]

	if size > MaxRecordSize {
		return nil, fmt.Errorf("%w: header claims %d bytes", ErrCorrupt, size)
	}

	switch c {
	case CompressionNone:
		if uint32(len(payload)) != size {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorrupt)
		}
		return payload, nil
	case CompressionLZ4:
		if uint64(size) > uint64(len(payload))*maxLZ4Ratio {
			return nil, fmt.Errorf("%w: header claims %d bytes from %d", ErrCorrupt, size, len(payload))
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorrupt)
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(out)) != size {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorrupt)
		}
		return out, nil
	default:
		return nil, &ErrUnknownCompression{Name: c.String()}
	}
}
