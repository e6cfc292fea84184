package graph

import (
	"encoding/binary"
	"errors"
	"io"
	"math/rand/v2"

	"go.dedis.ch/kyber/v4"
)

// ErrNoVertices is returned when edges are requested over an empty vertex set.
var ErrNoVertices = errors.New("graph: cannot draw endpoints from zero vertices")

// xofSource adapts a kyber XOF to math/rand's Source.
type xofSource struct {
	xof kyber.XOF
	buf [8]byte
}

func (s *xofSource) Uint64() uint64 {
	if _, err := io.ReadFull(s.xof, s.buf[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(s.buf[:])
}

// NewRand returns a random source for Generate. A non-zero seed makes the
// stream, and therefore the generated graph, reproducible. Zero seeds it from
// the system's randomness.
func NewRand(seed uint64) *rand.Rand {
	var key []byte
	if seed != 0 {
		key = binary.LittleEndian.AppendUint64(nil, seed)
	} else {
		key = make([]byte, 32)
		suite.RandomStream().XORKeyStream(key, key)
	}
	return rand.New(&xofSource{xof: suite.XOF(key)})
}

// Generate draws edgeCount edges whose endpoints are independently uniform in
// [0, vertexCount), with replacement.
func Generate(edgeCount, vertexCount uint64, rng *rand.Rand) (Graph, error) {
	if edgeCount > 0 && vertexCount == 0 {
		return Graph{}, ErrNoVertices
	}
	edges := make([]Edge, edgeCount)
	for i := range edges {
		edges[i] = Edge{U: rng.Uint64N(vertexCount), V: rng.Uint64N(vertexCount)}
	}
	return Graph{Edges: edges, VertexCount: vertexCount}, nil
}
