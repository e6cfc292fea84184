// Package network provides the process-group substrate of the benchmark.
// It implements rank-addressed one-to-all and all-to-all exchanges over HTTP,
// each with an implicit synchronization barrier.
//
// # Core Components
//
// Peer: Low-level group member that handles HTTP-based communication
// between the ranks of the group.
//
// Group: High-level adapter exposing rank/size identity, the exchanges and
// the initialize/finalize lifecycle (Join and Close).
//
// # Communication Patterns
//
// Broadcast: One rank sends data to all other ranks (one-to-all).
// All ranks receive the same data.
//
// AllToAll: Each rank sends data to all other ranks (all-to-all).
// Each rank receives data from every rank, in rank order.
//
// # Synchronization
//
// All communication methods include implicit barrier synchronization,
// ensuring that no peer can proceed until all peers have participated
// in the communication round. A member that never reaches a call stalls the
// others until the configured timeout (none by default) expires or the peer
// is closed.
//
// # Local groups
//
// RunLocal starts a whole group inside one process on loopback listeners,
// which is how the tests and the single-binary mode of the command run.
package network
