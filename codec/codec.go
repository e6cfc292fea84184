// Package codec frames the numeric vectors exchanged by the collectives.
//
// Frame layout: [Kind uint8][RawSize uint32][StoredSize uint32][Data...].
// Elements are 8 bytes, little endian. A frame whose compression did not
// shrink the payload is stored raw with Kind set to None, so a decoder never
// needs to know how the sender was configured.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names the algorithm applied to frame payloads.
type Compression string

const (
	None Compression = "none"
	LZ4  Compression = "lz4"
	Zstd Compression = "zstd"
)

const (
	kindNone uint8 = 0
	kindLZ4  uint8 = 1
	kindZstd uint8 = 2
)

const headerSize = 9

// ElementSize is the encoded size of one vector element.
const ElementSize = 8

var (
	ErrShortFrame   = errors.New("codec: frame too small")
	ErrSizeMismatch = errors.New("codec: decoded size mismatch")
	ErrUnknownKind  = errors.New("codec: unknown frame kind")
)

// ParseCompression validates a configured compression name. The empty string
// means None.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case "", None:
		return None, nil
	case LZ4:
		return LZ4, nil
	case Zstd:
		return Zstd, nil
	}
	return "", fmt.Errorf("codec: unknown compression %q", s)
}

// The zstd encoder and decoder are shared. EncodeAll and DecodeAll are safe
// for concurrent use.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Codec encodes and decodes vectors. It is safe for concurrent use.
type Codec struct {
	compression Compression
}

// New returns a Codec compressing with c.
func New(c Compression) (*Codec, error) {
	c, err := ParseCompression(string(c))
	if err != nil {
		return nil, err
	}
	if c == Zstd {
		if _, err := zstdEncoder(); err != nil {
			return nil, fmt.Errorf("codec: zstd encoder: %w", err)
		}
	}
	return &Codec{compression: c}, nil
}

// EncodeUint64s frames vals.
func (c *Codec) EncodeUint64s(vals []uint64) ([]byte, error) {
	raw := make([]byte, len(vals)*ElementSize)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(raw[i*ElementSize:], v)
	}
	return c.frame(raw)
}

// DecodeUint64s reverses EncodeUint64s.
func (c *Codec) DecodeUint64s(frame []byte) ([]uint64, error) {
	raw, err := unframe(frame)
	if err != nil {
		return nil, err
	}
	if len(raw)%ElementSize != 0 {
		return nil, fmt.Errorf("codec: payload of %d bytes is not a whole number of elements", len(raw))
	}
	vals := make([]uint64, len(raw)/ElementSize)
	for i := range vals {
		vals[i] = binary.LittleEndian.Uint64(raw[i*ElementSize:])
	}
	return vals, nil
}

// EncodeFloat64s frames vals.
func (c *Codec) EncodeFloat64s(vals []float64) ([]byte, error) {
	raw := make([]byte, len(vals)*ElementSize)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(raw[i*ElementSize:], math.Float64bits(v))
	}
	return c.frame(raw)
}

// DecodeFloat64s reverses EncodeFloat64s.
func (c *Codec) DecodeFloat64s(frame []byte) ([]float64, error) {
	bits, err := c.DecodeUint64s(frame)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(bits))
	for i, b := range bits {
		vals[i] = math.Float64frombits(b)
	}
	return vals, nil
}

func (c *Codec) frame(raw []byte) ([]byte, error) {
	kind := kindNone
	data := raw
	if len(raw) > 0 {
		var compressed []byte
		var err error
		switch c.compression {
		case LZ4:
			compressed, err = compressLZ4(raw)
			kind = kindLZ4
		case Zstd:
			compressed, err = compressZstd(raw)
			kind = kindZstd
		}
		if err != nil {
			return nil, err
		}
		if len(compressed) == 0 || len(compressed) >= len(raw) {
			kind = kindNone
		} else {
			data = compressed
		}
	}
	frame := make([]byte, headerSize+len(data))
	frame[0] = kind
	binary.LittleEndian.PutUint32(frame[1:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(frame[5:], uint32(len(data)))
	copy(frame[headerSize:], data)
	return frame, nil
}

func unframe(frame []byte) ([]byte, error) {
	if len(frame) < headerSize {
		return nil, ErrShortFrame
	}
	kind := frame[0]
	rawSize := binary.LittleEndian.Uint32(frame[1:])
	storedSize := binary.LittleEndian.Uint32(frame[5:])
	if uint64(len(frame)) < headerSize+uint64(storedSize) {
		return nil, ErrShortFrame
	}
	data := frame[headerSize : headerSize+storedSize]
	switch kind {
	case kindNone:
		if storedSize != rawSize {
			return nil, ErrSizeMismatch
		}
		return data, nil
	case kindLZ4:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, raw)
		if err != nil {
			return nil, err
		}
		if uint32(n) != rawSize {
			return nil, ErrSizeMismatch
		}
		return raw, nil
	case kindZstd:
		dec, err := zstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("codec: zstd decoder: %w", err)
		}
		raw, err := dec.DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, err
		}
		if uint32(len(raw)) != rawSize {
			return nil, ErrSizeMismatch
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w %d", ErrUnknownKind, kind)
}

func compressLZ4(raw []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil {
		return nil, err
	}
	// incompressible
	if n == 0 {
		return nil, nil
	}
	return compressed[:n], nil
}

func compressZstd(raw []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(raw, nil), nil
}
