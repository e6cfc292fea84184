package network

import (
	"fmt"
	"net"
)

// Group adapts a Peer to the collective layer: identity queries, the two
// exchanges and the group lifecycle.
type Group struct {
	peer *Peer
}

// NewGroup wraps an already serving Peer.
func NewGroup(peer *Peer) *Group {
	return &Group{peer: peer}
}

// Join initializes membership of rank in the group described by addresses.
// It listens on addresses[rank]; every rank in [0, len(addresses)) must be
// present.
func Join(rank int, addresses map[int]string, opts ...PeerOption) (*Group, error) {
	for i := 0; i < len(addresses); i++ {
		if _, ok := addresses[i]; !ok {
			return nil, &GroupInitError{Rank: rank, Err: fmt.Errorf("no address for rank %d", i)}
		}
	}
	addr, ok := addresses[rank]
	if !ok {
		return nil, &GroupInitError{Rank: rank, Err: fmt.Errorf("rank outside group of %d", len(addresses))}
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &GroupInitError{Rank: rank, Addr: addr, Err: err}
	}
	return NewGroup(NewPeer(rank, addresses, l, opts...)), nil
}

// Broadcast sends data from root to every member.
func (g *Group) Broadcast(data []byte, root int) ([]byte, error) {
	return g.peer.Broadcast(data, root)
}

// AllToAll sends data from every member to every member.
func (g *Group) AllToAll(data []byte) ([][]byte, error) {
	return g.peer.AllToAll(data)
}

// Barrier blocks until every member has entered it.
func (g *Group) Barrier() error {
	return g.peer.Barrier()
}

// Rank returns the rank of this member.
func (g *Group) Rank() int {
	return g.peer.Rank
}

// Size returns the number of members.
func (g *Group) Size() int {
	return len(g.peer.Addresses)
}

// Close leaves the group.
func (g *Group) Close() error {
	return g.peer.Close()
}
