package network

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	retryInterval = time.Millisecond
	// shutdownGrace lets in-flight acknowledgements finish before the
	// remaining connections are dropped.
	shutdownGrace = 500 * time.Millisecond
)

// Peer is an helper struct for communication between the members of a group.
// the Rank is an identifier of the Peer.
// Addresses[i] contains the address to reach the Peer with Rank i.
//
// A Peer is driven by a single goroutine: exchanges must not be issued
// concurrently on the same Peer.
type Peer struct {
	Rank      int
	Addresses map[int]string
	clock     uint64
	server    *http.Server
	handler   *broadcastHandler
	client    *http.Client
	scheme    string
	tlsConfig *tls.Config
	timeout   time.Duration
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// NewPeer creates the Peer with the given rank and starts serving on l.
func NewPeer(rank int, addresses map[int]string, l net.Listener, opts ...PeerOption) *Peer {
	handler := &broadcastHandler{
		contentChannel: make(chan []byte),
		errChannel:     make(chan error, 1),
		done:           make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Peer{
		Rank:      rank,
		Addresses: copyMap(addresses),
		handler:   handler,
		client:    &http.Client{},
		scheme:    "http://",
		logger:    slog.New(slog.DiscardHandler),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client.Timeout = p.timeout
	p.server = &http.Server{Addr: addresses[rank], Handler: handler}
	if p.tlsConfig != nil {
		l = tls.NewListener(l, p.tlsConfig)
	}
	go func() {
		err := p.server.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("peer server stopped", "rank", p.Rank, "error", err)
		}
	}()
	return p
}

// Close stops the Peer. Pending exchanges return ErrPeerClosed.
// Calling Close more than once is harmless.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		close(p.handler.done)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		err := p.server.Shutdown(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			// listeners are already closed, only idle connections remain
			_ = p.server.Close()
			err = nil
		}
		p.closeErr = err
	})
	return p.closeErr
}

// broadcastHandler receives the payloads addressed to a Peer. claimed is the
// latest clock whose payload a request has taken over, so at most one request
// per clock reaches contentChannel.
type broadcastHandler struct {
	active         atomic.Bool
	clock          atomic.Uint64
	claimed        atomic.Uint64
	contentChannel chan []byte
	errChannel     chan error
	done           chan struct{}
}

func (h *broadcastHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	senderClockS := req.Header.Get("Clock")
	if senderClockS == "" {
		rw.WriteHeader(http.StatusBadRequest)
		h.reportErr(fmt.Errorf("from handler: Clock field is not present in request"))
		return
	}
	senderClock, err := strconv.ParseUint(senderClockS, 10, 64)
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		h.reportErr(fmt.Errorf("from handler: Clock field is not a number"))
		return
	}
	// a retry of a message already handed over
	if senderClock <= h.claimed.Load() {
		rw.WriteHeader(http.StatusAccepted)
		return
	}
	if !h.active.Load() || senderClock != h.clock.Load() {
		rw.WriteHeader(http.StatusNotAcceptable)
		return
	}
	content, err := io.ReadAll(req.Body)
	if err != nil {
		rw.WriteHeader(http.StatusInternalServerError)
		h.reportErr(fmt.Errorf("from handler: %w", err))
		return
	}
	if !h.claim(senderClock) {
		rw.WriteHeader(http.StatusAccepted)
		return
	}
	select {
	case h.contentChannel <- content:
		rw.WriteHeader(http.StatusAccepted)
	case <-h.done:
		rw.WriteHeader(http.StatusServiceUnavailable)
	}
}

// claim reports whether this request is the first to hand over the payload
// of clock.
func (h *broadcastHandler) claim(clock uint64) bool {
	for {
		prev := h.claimed.Load()
		if clock <= prev {
			return false
		}
		if h.claimed.CompareAndSwap(prev, clock) {
			return true
		}
	}
}

func (h *broadcastHandler) reportErr(err error) {
	select {
	case h.errChannel <- err:
	default:
	}
}

// Peer with Rank root sends the content of bufferSend to every node.
// bufferRecv will contain the value sent by the Peer with Rank root.
// This function will implicitly synchronize the peers.
func (p *Peer) Broadcast(bufferSend []byte, root int) ([]byte, error) {
	bufferRecv, err := p.broadcastNoBarrier(bufferSend, root)
	if err != nil {
		return nil, err
	}
	if err := p.Barrier(); err != nil {
		return nil, err
	}
	return bufferRecv, nil
}

// Each caller of AllToAll sends the content of bufferSend to every node.
// bufferRecv[i] will contain the value sent by the Peer with Rank i.
// This function will implicitly synchronize the peers.
func (p *Peer) AllToAll(bufferSend []byte) (bufferRecv [][]byte, err error) {
	ranks := p.orderedRanks()
	if len(ranks) == 0 {
		return nil, fmt.Errorf("no addresses found")
	}
	bufferRecv = make([][]byte, len(ranks))
	for _, i := range ranks {
		recv, err := p.broadcastNoBarrier(bufferSend, i)
		if err != nil {
			return nil, err
		}
		bufferRecv[i] = recv
	}
	return bufferRecv, nil
}

// Barrier synchronizes the peers.
// In particular this method guarantees that no Peer's control flow will
// leave this function until every peer has entered this function.
func (p *Peer) Barrier() error {
	_, err := p.AllToAll(nil)
	return err
}

// Peer with Rank root sends the content of bufferSend to every node.
// bufferRecv will contain the value sent by the Peer with Rank root.
func (p *Peer) broadcastNoBarrier(bufferSend []byte, root int) ([]byte, error) {
	p.clock++
	if _, ok := p.Addresses[root]; !ok {
		return nil, fmt.Errorf("root %d is not a member of the group", root)
	}
	if root == p.Rank {
		for _, i := range p.orderedRanks() {
			if i == p.Rank {
				continue
			}
			if err := p.send(i, bufferSend); err != nil {
				return nil, err
			}
		}
		return bufferSend, nil
	}
	p.handler.clock.Store(p.clock)
	p.handler.active.Store(true)
	defer p.handler.active.Store(false)
	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case recv := <-p.handler.contentChannel:
		return recv, nil
	case err := <-p.handler.errChannel:
		return nil, err
	case <-timeout:
		err := p.Close()
		return nil, errors.Join(err, fmt.Errorf("rank %d timed out waiting for rank %d", p.Rank, root))
	case <-p.handler.done:
		return nil, ErrPeerClosed
	}
}

// send delivers body to rank i, retrying until the receiver has entered the
// exchange with the same clock.
func (p *Peer) send(i int, body []byte) error {
	start := time.Now()
	for {
		req, err := http.NewRequestWithContext(p.ctx, http.MethodPost, p.scheme+p.Addresses[i], bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Clock", strconv.FormatUint(p.clock, 10))
		req.Header.Set("Sender-Rank", strconv.Itoa(p.Rank))
		req.Header.Set("Receiver-Rank", strconv.Itoa(i))
		status := 0
		resp, err := p.client.Do(req)
		if err == nil {
			status = resp.StatusCode
			_, _ = io.Copy(io.Discard, resp.Body)
			if cerr := resp.Body.Close(); cerr != nil {
				return cerr
			}
			if status == http.StatusAccepted {
				return nil
			}
		}
		if p.timeout > 0 && time.Since(start) > p.timeout {
			if err != nil {
				return fmt.Errorf("connection attempts to rank %d timed out with error %w", i, err)
			}
			return fmt.Errorf("connection attempts to rank %d timed out with status code %d", i, status)
		}
		select {
		case <-p.ctx.Done():
			return ErrPeerClosed
		case <-time.After(retryInterval):
		}
	}
}

func (p *Peer) orderedRanks() []int {
	ranks := make([]int, 0, len(p.Addresses))
	for k := range p.Addresses {
		ranks = append(ranks, k)
	}
	sort.Ints(ranks)
	return ranks
}

// CreateListeners opens n loopback listeners and returns them with their
// addresses, indexed by rank.
func CreateListeners(n int) (map[int]net.Listener, map[int]string, error) {
	listeners := make(map[int]net.Listener)
	addresses := make(map[int]string)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "localhost:0")
		if err != nil {
			for _, opened := range listeners {
				_ = opened.Close()
			}
			return nil, nil, &GroupInitError{Rank: i, Addr: "localhost:0", Err: err}
		}
		listeners[i] = l
		addresses[i] = l.Addr().String()
	}
	return listeners, addresses, nil
}

func copyMap(original map[int]string) map[int]string {
	copied := make(map[int]string)
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
