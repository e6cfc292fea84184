package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/graph-bench/bench"
	"github.com/luca-patrignani/graph-bench/partition"
)

func TestPrint(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	r := bench.Report{
		Rank:            1,
		Size:            2,
		EdgeCount:       10,
		Partition:       partition.Range{Start: 5, End: 10},
		VerticesTouched: 7,
		Compute:         1500 * time.Microsecond,
		Gather:          time.Millisecond,
		GatherLen:       10,
		GatherHead:      []float64{1, 1, 1, 1, 1},
		Reduce:          2 * time.Second,
		Metrics:         bench.Estimate(2*time.Second, 2, 10),
	}
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, r))
	out := buf.String()
	require.Contains(t, out, "P1 of 2")
	require.Contains(t, out, "5 of 10")
	require.Contains(t, out, "[5, 10)")
	require.Contains(t, out, "0.001500 s")
	require.Contains(t, out, "10 [1, 1, 1, 1, 1]")
	require.Contains(t, out, "1.000000 s")
	require.Contains(t, out, "0.00 MB/s")
}

func TestHeadIsTruncated(t *testing.T) {
	require.Equal(t, "[]", head(nil))
	require.Equal(t, "[1, 2]", head([]float64{1, 2}))
	long := make([]float64, 20)
	require.Equal(t, "[0, 0, 0, 0, 0, 0, 0, 0, ...]", head(long))
}
