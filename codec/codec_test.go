package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"", "none", "lz4", "zstd"} {
		_, err := ParseCompression(name)
		require.NoError(t, err, name)
	}
	_, err := ParseCompression("gzip")
	require.Error(t, err)
}

func TestRoundTripEveryCompression(t *testing.T) {
	// edge endpoints below the vertex count compress well
	vals := make([]uint64, 10_000)
	for i := range vals {
		vals[i] = uint64(i % 97)
	}
	floats := []float64{1.0, -2.5, math.Inf(1), 0, 3e300}

	for _, c := range []Compression{None, LZ4, Zstd} {
		t.Run(string(c), func(t *testing.T) {
			cd, err := New(c)
			require.NoError(t, err)

			frame, err := cd.EncodeUint64s(vals)
			require.NoError(t, err)
			got, err := cd.DecodeUint64s(frame)
			require.NoError(t, err)
			require.Equal(t, vals, got)

			if c != None {
				require.Less(t, len(frame), len(vals)*ElementSize)
			}

			frame, err = cd.EncodeFloat64s(floats)
			require.NoError(t, err)
			gotFloats, err := cd.DecodeFloat64s(frame)
			require.NoError(t, err)
			require.Equal(t, floats, gotFloats)
		})
	}
}

func TestEmptyVector(t *testing.T) {
	cd, err := New(Zstd)
	require.NoError(t, err)
	frame, err := cd.EncodeFloat64s(nil)
	require.NoError(t, err)
	require.Len(t, frame, headerSize)
	got, err := cd.DecodeFloat64s(frame)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIncompressiblePayloadIsStoredRaw(t *testing.T) {
	cd, err := New(LZ4)
	require.NoError(t, err)
	frame, err := cd.EncodeUint64s([]uint64{0x0123456789abcdef})
	require.NoError(t, err)
	require.Equal(t, kindNone, frame[0])
}

func TestDecoderDetectsKindFromFrame(t *testing.T) {
	enc, err := New(Zstd)
	require.NoError(t, err)
	dec, err := New(None)
	require.NoError(t, err)
	vals := make([]uint64, 1000)
	frame, err := enc.EncodeUint64s(vals)
	require.NoError(t, err)
	got, err := dec.DecodeUint64s(frame)
	require.NoError(t, err)
	require.Equal(t, vals, got)
}

func TestMalformedFrames(t *testing.T) {
	cd, err := New(None)
	require.NoError(t, err)

	_, err = cd.DecodeUint64s([]byte{0, 1})
	require.ErrorIs(t, err, ErrShortFrame)

	frame := make([]byte, headerSize+3)
	binary.LittleEndian.PutUint32(frame[1:], 3)
	binary.LittleEndian.PutUint32(frame[5:], 3)
	_, err = cd.DecodeUint64s(frame)
	require.Error(t, err)

	frame = make([]byte, headerSize)
	frame[0] = 9
	_, err = cd.DecodeUint64s(frame)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestZstdSharedAcrossGoroutines(t *testing.T) {
	cd, err := New(Zstd)
	require.NoError(t, err)
	var eg errgroup.Group
	for g := 0; g < 8; g++ {
		eg.Go(func() error {
			vals := make([]uint64, 5000)
			for i := range vals {
				vals[i] = uint64((i + g) % 31)
			}
			for round := 0; round < 20; round++ {
				frame, err := cd.EncodeUint64s(vals)
				if err != nil {
					return err
				}
				if frame[0] != kindZstd {
					return fmt.Errorf("goroutine %d: frame stored with kind %d", g, frame[0])
				}
				got, err := cd.DecodeUint64s(frame)
				if err != nil {
					return err
				}
				if !slices.Equal(vals, got) {
					return fmt.Errorf("goroutine %d: round %d corrupted", g, round)
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())
}
