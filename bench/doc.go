// Package bench runs the per-rank stages of the benchmark on a replicated
// graph: the placeholder local computation, the two timed collective
// exchanges, and the latency/bandwidth estimate derived from the reduce.
//
// Typical usage on every rank of a group:
//
//	var g graph.Graph
//	if comm.Rank() == origin {
//		g, err = graph.Generate(edges, vertices, graph.NewRand(seed))
//	}
//	report, err := bench.Run(comm, g, bench.Options{Origin: origin})
//
// Run is a sequence of collective calls: every rank must call it, with the
// same Options, or the group stalls.
package bench
