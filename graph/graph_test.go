package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRespectsCounts(t *testing.T) {
	for _, tc := range []struct{ edges, vertices uint64 }{
		{0, 0}, {1, 1}, {10, 10}, {1000, 7}, {5000, 200_000},
	} {
		g, err := Generate(tc.edges, tc.vertices, NewRand(42))
		require.NoError(t, err)
		require.Len(t, g.Edges, int(tc.edges))
		require.Equal(t, tc.vertices, g.VertexCount)
		for _, e := range g.Edges {
			require.Less(t, e.U, tc.vertices)
			require.Less(t, e.V, tc.vertices)
		}
	}
}

func TestGenerateSingleVertexOnlySelfLoops(t *testing.T) {
	g, err := Generate(20, 1, NewRand(0))
	require.NoError(t, err)
	for _, e := range g.Edges {
		require.Equal(t, Edge{}, e)
	}
}

func TestGenerateWithoutVertices(t *testing.T) {
	_, err := Generate(3, 0, NewRand(1))
	require.ErrorIs(t, err, ErrNoVertices)
}

func TestSeedMakesGenerationReproducible(t *testing.T) {
	a, err := Generate(500, 1000, NewRand(7))
	require.NoError(t, err)
	b, err := Generate(500, 1000, NewRand(7))
	require.NoError(t, err)
	c, err := Generate(500, 1000, NewRand(8))
	require.NoError(t, err)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.Equal(t, a.Digest(), b.Digest())
	require.NotEqual(t, a.Digest(), c.Digest())
}

func TestFlattenUnflatten(t *testing.T) {
	g := Graph{Edges: []Edge{{0, 1}, {2, 3}, {4, 4}}, VertexCount: 5}
	flat := g.Flatten()
	require.Equal(t, []uint64{0, 1, 2, 3, 4, 4}, flat)
	require.Equal(t, g.Edges, Unflatten(flat, 3))
}

func TestUnflattenResizesDefensively(t *testing.T) {
	// truncated: extra trailing elements are dropped
	require.Equal(t, []Edge{{1, 2}}, Unflatten([]uint64{1, 2, 3, 4, 5}, 1))
	// padded: missing elements become vertex 0
	require.Equal(t, []Edge{{1, 2}, {3, 0}}, Unflatten([]uint64{1, 2, 3}, 2))
	require.Empty(t, Unflatten(nil, 0))
}

func TestEqualComparesOrder(t *testing.T) {
	a := Graph{Edges: []Edge{{0, 1}, {1, 2}}, VertexCount: 3}
	b := Graph{Edges: []Edge{{1, 2}, {0, 1}}, VertexCount: 3}
	require.False(t, a.Equal(b))
	require.False(t, a.Equal(Graph{Edges: a.Edges, VertexCount: 4}))
}
