package replication

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/graph-bench/codec"
	"github.com/luca-patrignani/graph-bench/collective"
	"github.com/luca-patrignani/graph-bench/graph"
	"github.com/luca-patrignani/graph-bench/network"
)

func replicateOn(t *testing.T, n, origin int, compression codec.Compression, original graph.Graph) {
	t.Helper()
	cd, err := codec.New(compression)
	require.NoError(t, err)
	err = network.RunLocal(n, func(g *network.Group) error {
		c := collective.New(g, cd)
		local := graph.Graph{}
		if c.Rank() == origin {
			local = original
		}
		replica, err := Replicate(c, local, origin, WithVerification(true))
		if err != nil {
			return err
		}
		if !replica.Equal(original) {
			return fmt.Errorf("rank %d: replica differs from original", c.Rank())
		}
		return nil
	})
	require.NoError(t, err)
}

func TestReplicationEquality(t *testing.T) {
	original, err := graph.Generate(2000, 300, graph.NewRand(99))
	require.NoError(t, err)
	for _, n := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("P=%d", n), func(t *testing.T) {
			replicateOn(t, n, 0, codec.None, original)
		})
	}
}

func TestReplicationFromNonZeroOriginCompressed(t *testing.T) {
	original, err := graph.Generate(5000, 1000, graph.NewRand(3))
	require.NoError(t, err)
	replicateOn(t, 3, 2, codec.Zstd, original)
	replicateOn(t, 2, 1, codec.LZ4, original)
}

func TestReplicationOfEmptyGraph(t *testing.T) {
	replicateOn(t, 3, 0, codec.None, graph.Graph{VertexCount: 10})
}

type fakeCollective struct {
	rank    int
	digests [][]byte
}

func (f fakeCollective) Rank() int                          { return f.rank }
func (f fakeCollective) BroadcastUint64(*uint64, int) error { return nil }
func (f fakeCollective) BroadcastUint64s(buf []uint64, _ int) ([]uint64, error) {
	return buf, nil
}
func (f fakeCollective) AllGatherBytes([]byte) ([][]byte, error) { return f.digests, nil }

func TestVerifyDetectsDivergentReplica(t *testing.T) {
	good := graph.Graph{Edges: []graph.Edge{{U: 0, V: 1}}, VertexCount: 2}
	bad := graph.Graph{Edges: []graph.Edge{{U: 1, V: 0}}, VertexCount: 2}
	f := fakeCollective{digests: [][]byte{good.Digest(), good.Digest(), bad.Digest()}}

	err := Verify(f, good, 0)
	require.ErrorIs(t, err, ErrDivergentReplica)
	require.Contains(t, err.Error(), "rank 2")

	f.digests = [][]byte{good.Digest(), good.Digest()}
	require.NoError(t, Verify(f, good, 0))
}

func TestReplicateSurfacesBroadcastFailure(t *testing.T) {
	boom := errors.New("peer crashed")
	_, err := Replicate(failingCollective{err: boom}, graph.Graph{}, 0)
	require.ErrorIs(t, err, boom)
}

type failingCollective struct {
	fakeCollective
	err error
}

func (f failingCollective) BroadcastUint64(*uint64, int) error { return f.err }
