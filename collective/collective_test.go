package collective

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/graph-bench/codec"
	"github.com/luca-patrignani/graph-bench/network"
)

func runComms(t *testing.T, n int, compression codec.Compression, fn func(c *Comm) error) {
	t.Helper()
	cd, err := codec.New(compression)
	require.NoError(t, err)
	err = network.RunLocal(n, func(g *network.Group) error {
		return fn(New(g, cd))
	})
	require.NoError(t, err)
}

func TestBroadcastUint64InPlace(t *testing.T) {
	runComms(t, 3, codec.None, func(c *Comm) error {
		v := uint64(0)
		if c.Rank() == 1 {
			v = 200_000
		}
		if err := c.BroadcastUint64(&v, 1); err != nil {
			return err
		}
		if v != 200_000 {
			return fmt.Errorf("rank %d: expected 200000, actual %d", c.Rank(), v)
		}
		return nil
	})
}

func TestBroadcastUint64s(t *testing.T) {
	want := []uint64{4, 8, 15, 16, 23, 42}
	runComms(t, 4, codec.Zstd, func(c *Comm) error {
		var buf []uint64
		if c.Rank() == 0 {
			buf = want
		}
		got, err := c.BroadcastUint64s(buf, 0)
		if err != nil {
			return err
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return fmt.Errorf("rank %d: expected %v, actual %v", c.Rank(), want, got)
		}
		return nil
	})
}

func TestAllGatherIsRankOrderedConcatenation(t *testing.T) {
	const n, l = 3, 4
	runComms(t, n, codec.LZ4, func(c *Comm) error {
		local := make([]float64, l)
		for i := range local {
			local[i] = float64(c.Rank()*10 + i)
		}
		got, err := c.AllGather(local)
		if err != nil {
			return err
		}
		if len(got) != n*l {
			return fmt.Errorf("rank %d: expected length %d, actual %d", c.Rank(), n*l, len(got))
		}
		for r := 0; r < n; r++ {
			for i := 0; i < l; i++ {
				if got[r*l+i] != float64(r*10+i) {
					return fmt.Errorf("rank %d: wrong element at %d: %v", c.Rank(), r*l+i, got)
				}
			}
		}
		return nil
	})
}

func TestAllGatherUnevenContributions(t *testing.T) {
	runComms(t, 3, codec.None, func(c *Comm) error {
		local := make([]float64, c.Rank())
		for i := range local {
			local[i] = float64(c.Rank())
		}
		got, err := c.AllGather(local)
		if err != nil {
			return err
		}
		if fmt.Sprint(got) != fmt.Sprint([]float64{1, 2, 2}) {
			return fmt.Errorf("rank %d: unexpected %v", c.Rank(), got)
		}
		return nil
	})
}

func TestAllReduceSum(t *testing.T) {
	const n = 4
	runComms(t, n, codec.None, func(c *Comm) error {
		local := []float64{1, float64(c.Rank()), 0.5}
		got, err := c.AllReduceSum(local)
		if err != nil {
			return err
		}
		want := []float64{n, 0 + 1 + 2 + 3, 2}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return fmt.Errorf("rank %d: expected %v, actual %v", c.Rank(), want, got)
		}
		return nil
	})
}

func TestAllReduceSumPadsShortContributions(t *testing.T) {
	runComms(t, 3, codec.None, func(c *Comm) error {
		local := []float64{1, 1, 1}
		if c.Rank() == 2 {
			local = local[:1]
		}
		got, err := c.AllReduceSum(local)
		if err != nil {
			return err
		}
		if fmt.Sprint(got) != fmt.Sprint([]float64{3, 2, 2}) {
			return fmt.Errorf("rank %d: unexpected %v", c.Rank(), got)
		}
		return nil
	})
}

func TestAllGatherBytes(t *testing.T) {
	runComms(t, 2, codec.None, func(c *Comm) error {
		parts, err := c.AllGatherBytes([]byte{byte(c.Rank() + 1)})
		if err != nil {
			return err
		}
		if len(parts) != 2 || parts[0][0] != 1 || parts[1][0] != 2 {
			return fmt.Errorf("rank %d: unexpected %v", c.Rank(), parts)
		}
		return nil
	})
}

type brokenTransport struct{}

func (brokenTransport) Broadcast([]byte, int) ([]byte, error) { return nil, errors.New("peer crashed") }
func (brokenTransport) AllToAll([]byte) ([][]byte, error)     { return [][]byte{{1, 2}}, nil }
func (brokenTransport) Rank() int                             { return 0 }
func (brokenTransport) Size() int                             { return 1 }

func TestFailuresAreCollectiveErrors(t *testing.T) {
	cd, err := codec.New(codec.None)
	require.NoError(t, err)
	c := New(brokenTransport{}, cd)

	var collErr *CollectiveError
	v := uint64(1)
	err = c.BroadcastUint64(&v, 0)
	require.ErrorAs(t, err, &collErr)
	require.Equal(t, "broadcast", collErr.Op)

	_, err = c.AllReduceSum([]float64{1})
	require.ErrorAs(t, err, &collErr)
	require.Equal(t, "allreduce", collErr.Op)
}
