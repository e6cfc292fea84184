// Package replication makes the graph generated on the origin rank available,
// value-identical, on every rank of the group.
//
// The protocol is three broadcast rounds from the origin: the vertex count,
// the edge count, and the edges flattened to u0, v0, u1, v1, ... Any failed
// round is fatal for the group.
package replication

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/luca-patrignani/graph-bench/graph"
)

// ErrDivergentReplica is returned by verification when a rank holds a graph
// different from the origin's.
var ErrDivergentReplica = errors.New("replica differs from origin")

// Collective is the subset of group operations the protocol needs.
type Collective interface {
	Rank() int
	BroadcastUint64(v *uint64, root int) error
	BroadcastUint64s(buf []uint64, root int) ([]uint64, error)
	AllGatherBytes(data []byte) ([][]byte, error)
}

type config struct {
	verify bool
	logger *slog.Logger
}

type option func(config) config

// WithVerification exchanges graph digests after replication and fails on
// every rank if any replica differs.
func WithVerification(verify bool) option {
	return func(c config) config {
		c.verify = verify
		return c
	}
}

func WithLogger(logger *slog.Logger) option {
	return func(c config) config {
		if logger != nil {
			c.logger = logger
		}
		return c
	}
}

// Replicate returns, on every rank, the graph g held by origin. The g passed
// by other ranks is ignored; an empty Graph is the usual placeholder.
func Replicate(c Collective, g graph.Graph, origin int, opts ...option) (graph.Graph, error) {
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	isOrigin := c.Rank() == origin

	vertexCount := g.VertexCount
	if err := c.BroadcastUint64(&vertexCount, origin); err != nil {
		return graph.Graph{}, fmt.Errorf("replicating vertex count: %w", err)
	}
	edgeCount := g.EdgeCount()
	if err := c.BroadcastUint64(&edgeCount, origin); err != nil {
		return graph.Graph{}, fmt.Errorf("replicating edge count: %w", err)
	}
	cfg.logger.Debug("graph size replicated", "rank", c.Rank(), "vertices", vertexCount, "edges", edgeCount)

	var flat []uint64
	if isOrigin {
		flat = g.Flatten()
	}
	flat, err := c.BroadcastUint64s(flat, origin)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("replicating edges: %w", err)
	}

	replica := g
	if !isOrigin {
		replica = graph.Graph{
			Edges:       graph.Unflatten(flat, edgeCount),
			VertexCount: vertexCount,
		}
	}
	if cfg.verify {
		if err := Verify(c, replica, origin); err != nil {
			return graph.Graph{}, err
		}
	}
	return replica, nil
}

// Verify compares the digest of every rank's graph with the origin's. All
// ranks return the same verdict.
func Verify(c Collective, g graph.Graph, origin int) error {
	digests, err := c.AllGatherBytes(g.Digest())
	if err != nil {
		return fmt.Errorf("exchanging graph digests: %w", err)
	}
	if origin < 0 || origin >= len(digests) {
		return fmt.Errorf("origin %d outside group of %d", origin, len(digests))
	}
	var divergent []error
	for rank, digest := range digests {
		if !bytes.Equal(digest, digests[origin]) {
			divergent = append(divergent, fmt.Errorf("%w: rank %d", ErrDivergentReplica, rank))
		}
	}
	return errors.Join(divergent...)
}
