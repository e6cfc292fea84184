package bench

import (
	"time"
)

// Collective is the pair of exchanges the aggregation stage measures.
type Collective interface {
	Size() int
	AllGather(local []float64) ([]float64, error)
	AllReduceSum(local []float64) ([]float64, error)
}

// GatherResult is the rank-ordered concatenation of every rank's local values.
type GatherResult struct {
	Values  []float64
	Elapsed time.Duration
}

// Gather times a gather-concatenate of local across the group.
func Gather(c Collective, local []float64) (GatherResult, error) {
	start := time.Now()
	global, err := c.AllGather(local)
	if err != nil {
		return GatherResult{}, err
	}
	return GatherResult{Values: global, Elapsed: time.Since(start)}, nil
}

// ReduceResult holds the element-wise sum of the local vectors.
//
// Buffer is sized len(local) * Size(), following the gather sizing, but only
// its first Meaningful entries carry the sum.
type ReduceResult struct {
	Buffer     []float64
	Meaningful int
	Elapsed    time.Duration
}

// Values returns the meaningful prefix of the buffer.
func (r ReduceResult) Values() []float64 {
	return r.Buffer[:r.Meaningful]
}

// Reduce times a sum-reduce of local across the group.
func Reduce(c Collective, local []float64) (ReduceResult, error) {
	start := time.Now()
	buffer := make([]float64, len(local)*c.Size())
	sum, err := c.AllReduceSum(local)
	if err != nil {
		return ReduceResult{}, err
	}
	n := copy(buffer[:len(local)], sum)
	return ReduceResult{Buffer: buffer, Meaningful: n, Elapsed: time.Since(start)}, nil
}
