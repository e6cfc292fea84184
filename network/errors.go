package network

import (
	"errors"
	"fmt"
)

// ErrPeerClosed is returned by exchanges interrupted by Close.
var ErrPeerClosed = errors.New("peer closed")

// GroupInitError reports that a member could not join the group.
type GroupInitError struct {
	Rank int
	Addr string
	Err  error
}

func (e *GroupInitError) Error() string {
	return fmt.Sprintf("rank %d: cannot join group at %q: %v", e.Rank, e.Addr, e.Err)
}

func (e *GroupInitError) Unwrap() error {
	return e.Err
}
