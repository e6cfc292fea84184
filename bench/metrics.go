package bench

import (
	"time"
	"unsafe"
)

// IndexSize is the size in bytes of a vertex identifier.
const IndexSize = int(unsafe.Sizeof(uint64(0)))

// Metrics are single-sample estimates derived from one timed reduce.
type Metrics struct {
	// Latency in seconds: the reduce duration shared out over the group.
	// It is not a point-to-point round trip.
	Latency float64
	// Bandwidth in MB/s of the edge payload over the reduce duration.
	Bandwidth float64
}

// Estimate derives Metrics from the reduce duration. Division follows IEEE
// rules: a zero duration yields an infinite bandwidth, or NaN with no edges.
func Estimate(reduce time.Duration, processCount int, edgeCount uint64) Metrics {
	t := reduce.Seconds()
	return Metrics{
		Latency:   t / float64(processCount),
		Bandwidth: float64(edgeCount*uint64(IndexSize)) / t / 1e6,
	}
}
