package network

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// RunLocal starts a group of n members on loopback listeners and runs fn once
// per member, each in its own goroutine. The first error closes every member,
// which aborts the exchanges still pending elsewhere, and is returned.
func RunLocal(n int, fn func(g *Group) error, opts ...PeerOption) error {
	listeners, addresses, err := CreateListeners(n)
	if err != nil {
		return err
	}
	groups := make([]*Group, n)
	for i := 0; i < n; i++ {
		groups[i] = NewGroup(NewPeer(i, addresses, listeners[i], opts...))
	}
	eg, ctx := errgroup.WithContext(context.Background())
	go func() {
		<-ctx.Done()
		for _, g := range groups {
			_ = g.Close()
		}
	}()
	for _, g := range groups {
		eg.Go(func() error {
			return fn(g)
		})
	}
	err = eg.Wait()
	for _, g := range groups {
		err = errors.Join(err, g.Close())
	}
	return err
}
