package bench

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/luca-patrignani/graph-bench/graph"
	"github.com/luca-patrignani/graph-bench/partition"
	"github.com/luca-patrignani/graph-bench/replication"
)

// Comm is every group operation a run performs.
type Comm interface {
	replication.Collective
	Collective
}

// Options must be identical on every rank.
type Options struct {
	// Origin is the rank holding the generated graph.
	Origin int
	// VerifyReplica exchanges graph digests after replication.
	VerifyReplica bool
	Logger        *slog.Logger
}

// Report is what one rank measured.
type Report struct {
	Rank            int
	Size            int
	EdgeCount       uint64
	VertexCount     uint64
	Partition       partition.Range
	VerticesTouched uint64
	Compute         time.Duration
	Gather          time.Duration
	GatherLen       int
	// GatherHead is the start of the gathered vector, as long as the local
	// partition.
	GatherHead []float64
	Reduce     time.Duration
	// ReduceValues is the meaningful part of the reduce result.
	ReduceValues []float64
	Metrics      Metrics
}

// EdgesProcessed is the size of the local partition.
func (r Report) EdgesProcessed() int {
	return r.Partition.Len()
}

// Run replicates g from the origin, partitions it, computes the local results
// and measures both collective exchanges. The g passed by ranks other than
// the origin is ignored.
func Run(c Comm, g graph.Graph, opts Options) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("rank", c.Rank())

	replica, err := replication.Replicate(c, g, opts.Origin,
		replication.WithVerification(opts.VerifyReplica),
		replication.WithLogger(logger),
	)
	if err != nil {
		return Report{}, err
	}
	logger.Debug("graph replicated", "edges", replica.EdgeCount(), "vertices", replica.VertexCount)

	edges, r, err := partition.Slice(replica.Edges, c.Rank(), c.Size())
	if err != nil {
		return Report{}, fmt.Errorf("partitioning edges: %w", err)
	}
	local := Compute(edges)
	logger.Debug("local compute done", "start", r.Start, "end", r.End, "elapsed", local.Elapsed)

	gathered, err := Gather(c, local.Values)
	if err != nil {
		return Report{}, err
	}
	logger.Debug("gather done", "elements", len(gathered.Values), "elapsed", gathered.Elapsed)

	reduced, err := Reduce(c, local.Values)
	if err != nil {
		return Report{}, err
	}
	logger.Debug("reduce done", "elements", reduced.Meaningful, "buffer", len(reduced.Buffer), "elapsed", reduced.Elapsed)

	return Report{
		Rank:            c.Rank(),
		Size:            c.Size(),
		EdgeCount:       replica.EdgeCount(),
		VertexCount:     replica.VertexCount,
		Partition:       r,
		VerticesTouched: local.VerticesTouched,
		Compute:         local.Elapsed,
		Gather:          gathered.Elapsed,
		GatherLen:       len(gathered.Values),
		GatherHead:      gathered.Values[:min(len(gathered.Values), r.Len())],
		Reduce:          reduced.Elapsed,
		ReduceValues:    reduced.Values(),
		Metrics:         Estimate(reduced.Elapsed, c.Size(), replica.EdgeCount()),
	}, nil
}
