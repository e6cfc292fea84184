// Package collective layers typed group-wide operations on top of a byte
// transport: broadcast of integers, gather-concatenate and sum-reduce of
// float vectors.
//
// Every operation is a blocking synchronization point that all members must
// call in the same order. Failures are reported as *CollectiveError and are
// meant to be fatal for the whole group.
package collective

import (
	"fmt"
	"log/slog"

	"github.com/luca-patrignani/graph-bench/codec"
)

// Transport is the process-group substrate the collectives run on.
type Transport interface {
	// Broadcast returns, on every member, the data passed by root.
	Broadcast(data []byte, root int) ([]byte, error)

	// AllToAll returns, on every member, the data passed by each member in
	// rank order.
	AllToAll(data []byte) ([][]byte, error)

	Rank() int

	Size() int
}

// Comm runs typed collectives over a Transport.
type Comm struct {
	transport Transport
	codec     *codec.Codec
	logger    *slog.Logger
}

type option func(*Comm)

// WithLogger logs every collective at debug level.
func WithLogger(logger *slog.Logger) option {
	return func(c *Comm) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Comm encoding payloads with cd.
func New(t Transport, cd *codec.Codec, opts ...option) *Comm {
	c := &Comm{
		transport: t,
		codec:     cd,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Comm) Rank() int {
	return c.transport.Rank()
}

func (c *Comm) Size() int {
	return c.transport.Size()
}

// BroadcastUint64 replaces *v with root's value, in place.
func (c *Comm) BroadcastUint64(v *uint64, root int) error {
	recv, err := c.BroadcastUint64s([]uint64{*v}, root)
	if err != nil {
		return err
	}
	if len(recv) != 1 {
		return c.fail("broadcast", fmt.Errorf("expected a single value, %d received", len(recv)))
	}
	*v = recv[0]
	return nil
}

// BroadcastUint64s returns root's buf on every member. The buf passed by
// other members is ignored.
func (c *Comm) BroadcastUint64s(buf []uint64, root int) ([]uint64, error) {
	var send []byte
	if c.Rank() == root {
		var err error
		send, err = c.codec.EncodeUint64s(buf)
		if err != nil {
			return nil, c.fail("broadcast", err)
		}
	}
	recv, err := c.transport.Broadcast(send, root)
	if err != nil {
		return nil, c.fail("broadcast", err)
	}
	vals, err := c.codec.DecodeUint64s(recv)
	if err != nil {
		return nil, c.fail("broadcast", err)
	}
	c.logger.Debug("broadcast completed", "rank", c.Rank(), "root", root, "elements", len(vals), "bytes", len(recv))
	return vals, nil
}

// AllGather returns the rank-ordered concatenation of every member's local
// vector. Each contribution carries its own length, so members may
// contribute vectors of different lengths.
func (c *Comm) AllGather(local []float64) ([]float64, error) {
	parts, err := c.exchangeFloat64s("allgather", local)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, part := range parts {
		total += len(part)
	}
	global := make([]float64, 0, total)
	for _, part := range parts {
		global = append(global, part...)
	}
	c.logger.Debug("allgather completed", "rank", c.Rank(), "elements", len(global))
	return global, nil
}

// AllReduceSum returns the element-wise sum of every member's local vector.
// A vector shorter than the longest contribution counts as zero beyond its
// end, so the result has the length of the longest contribution.
func (c *Comm) AllReduceSum(local []float64) ([]float64, error) {
	parts, err := c.exchangeFloat64s("allreduce", local)
	if err != nil {
		return nil, err
	}
	longest := 0
	for _, part := range parts {
		longest = max(longest, len(part))
	}
	sum := make([]float64, longest)
	for _, part := range parts {
		for i, v := range part {
			sum[i] += v
		}
	}
	c.logger.Debug("allreduce completed", "rank", c.Rank(), "elements", len(sum))
	return sum, nil
}

// AllGatherBytes returns every member's data in rank order.
func (c *Comm) AllGatherBytes(data []byte) ([][]byte, error) {
	parts, err := c.transport.AllToAll(data)
	if err != nil {
		return nil, c.fail("allgather", err)
	}
	if len(parts) != c.Size() {
		return nil, c.fail("allgather", fmt.Errorf("expected %d contributions, %d received", c.Size(), len(parts)))
	}
	return parts, nil
}

func (c *Comm) exchangeFloat64s(op string, local []float64) ([][]float64, error) {
	send, err := c.codec.EncodeFloat64s(local)
	if err != nil {
		return nil, c.fail(op, err)
	}
	frames, err := c.transport.AllToAll(send)
	if err != nil {
		return nil, c.fail(op, err)
	}
	if len(frames) != c.Size() {
		return nil, c.fail(op, fmt.Errorf("expected %d contributions, %d received", c.Size(), len(frames)))
	}
	parts := make([][]float64, len(frames))
	for i, frame := range frames {
		parts[i], err = c.codec.DecodeFloat64s(frame)
		if err != nil {
			return nil, c.fail(op, fmt.Errorf("contribution of rank %d: %w", i, err))
		}
	}
	return parts, nil
}

func (c *Comm) fail(op string, err error) error {
	return &CollectiveError{Op: op, Rank: c.Rank(), Err: err}
}
