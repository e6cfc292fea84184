// Package graph holds the benchmark's graph model: an ordered edge list over
// integer vertex identifiers, its random generator and the flat encoding
// used to replicate it across the group.
package graph

import (
	"encoding/binary"
	"slices"

	"go.dedis.ch/kyber/v4/suites"
)

var suite suites.Suite = suites.MustFind("Ed25519")

// Edge connects vertex U to vertex V.
type Edge struct {
	U uint64
	V uint64
}

// Graph is an ordered sequence of edges plus the number of vertices the
// identifiers are drawn from. Self-loops and duplicate edges are allowed.
type Graph struct {
	Edges       []Edge
	VertexCount uint64
}

func (g Graph) EdgeCount() uint64 {
	return uint64(len(g.Edges))
}

// Equal reports whether g and o hold the same vertex count and the same
// edges in the same order.
func (g Graph) Equal(o Graph) bool {
	return g.VertexCount == o.VertexCount && slices.Equal(g.Edges, o.Edges)
}

// Flatten lays the edges out as u0, v0, u1, v1, ...
func (g Graph) Flatten() []uint64 {
	flat := make([]uint64, 2*len(g.Edges))
	for i, e := range g.Edges {
		flat[2*i] = e.U
		flat[2*i+1] = e.V
	}
	return flat
}

// Unflatten rebuilds exactly edgeCount edges from a flat sequence. The
// sequence is truncated or zero padded to 2*edgeCount elements first.
func Unflatten(flat []uint64, edgeCount uint64) []Edge {
	n := int(2 * edgeCount)
	if len(flat) != n {
		resized := make([]uint64, n)
		copy(resized, flat)
		flat = resized
	}
	edges := make([]Edge, edgeCount)
	for i := range edges {
		edges[i] = Edge{U: flat[2*i], V: flat[2*i+1]}
	}
	return edges
}

// Digest hashes the vertex count and the ordered edges. Equal graphs have
// equal digests.
func (g Graph) Digest() []byte {
	h := suite.Hash()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], g.VertexCount)
	binary.LittleEndian.PutUint64(buf[8:], g.EdgeCount())
	h.Write(buf[:])
	for _, e := range g.Edges {
		binary.LittleEndian.PutUint64(buf[:8], e.U)
		binary.LittleEndian.PutUint64(buf[8:], e.V)
		h.Write(buf[:])
	}
	return h.Sum(nil)
}
