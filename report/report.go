// Package report prints the per-rank summary of a benchmark run.
// Ranks print independently, so output from different ranks may interleave.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/graph-bench/bench"
)

// headLimit caps how many gathered values are shown.
const headLimit = 8

// Render formats r as a titled table.
func Render(r bench.Report) (string, error) {
	data := pterm.TableData{
		{"Measure", "Value"},
		{"Edges processed", fmt.Sprintf("%d of %d", r.EdgesProcessed(), r.EdgeCount)},
		{"Partition", fmt.Sprintf("[%d, %d)", r.Partition.Start, r.Partition.End)},
		{"Vertices touched", fmt.Sprint(r.VerticesTouched)},
		{"Local compute time", seconds(r.Compute.Seconds())},
		{"Gather time (allgather)", seconds(r.Gather.Seconds())},
		{"Gathered results", fmt.Sprintf("%d %s", r.GatherLen, head(r.GatherHead))},
		{"Reduce time (allreduce)", seconds(r.Reduce.Seconds())},
		{"Estimated latency", seconds(r.Metrics.Latency)},
		{"Bandwidth", fmt.Sprintf("%.2f MB/s", r.Metrics.Bandwidth)},
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", err
	}
	title := pterm.LightCyan(fmt.Sprintf("|P%d of %d|", r.Rank, r.Size))
	return pterm.DefaultBox.WithTitle(title).WithTitleTopCenter().Sprint(table), nil
}

// Print writes the rendered report of r to w.
func Print(w io.Writer, r bench.Report) error {
	s, err := Render(r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

func seconds(s float64) string {
	return fmt.Sprintf("%.6f s", s)
}

func head(values []float64) string {
	n := min(len(values), headLimit)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprint(values[i])
	}
	if len(values) > n {
		parts = append(parts, "...")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
