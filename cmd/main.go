package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pterm/pterm"

	"github.com/luca-patrignani/graph-bench/bench"
	"github.com/luca-patrignani/graph-bench/codec"
	"github.com/luca-patrignani/graph-bench/collective"
	"github.com/luca-patrignani/graph-bench/config"
	"github.com/luca-patrignani/graph-bench/graph"
	"github.com/luca-patrignani/graph-bench/network"
	"github.com/luca-patrignani/graph-bench/report"
	"github.com/luca-patrignani/graph-bench/telemetry"
)

const defaultPort = 7000

type options struct {
	cfg   config.Config
	local int
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := newLogger(opts.cfg.LogLevel)

	var recorders []*telemetry.Recorder
	if opts.local > 0 {
		recorders, err = runLocal(opts.cfg, opts.local, logger, os.Stdout)
	} else {
		var rec *telemetry.Recorder
		rec, err = runMember(opts.cfg, logger, os.Stdout)
		recorders = append(recorders, rec)
	}
	if err != nil {
		logger.Error("benchmark aborted", "error", err)
		os.Exit(1)
	}
	if opts.cfg.MetricsAddr != "" {
		if err := serveMetrics(opts.cfg.MetricsAddr, recorders, logger); err != nil {
			logger.Error("metrics server failed", "error", err)
			os.Exit(1)
		}
	}
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("graphbench", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file (YAML)")
	local := fs.Int("local", 0, "Run a group of this many ranks inside this process")
	peers := fs.String("peers", "", "Comma separated member addresses, in rank order")

	set := config.Default()
	fs.IntVar(&set.Network.Rank, "rank", 0, "Rank of this process")
	fs.Uint64Var(&set.EdgeCount, "edges", set.EdgeCount, "Number of edges to generate")
	fs.Uint64Var(&set.VertexCount, "vertices", set.VertexCount, "Number of vertices endpoints are drawn from")
	fs.Uint64Var(&set.Seed, "seed", 0, "Seed of the graph generator, 0 for a random seed")
	fs.IntVar(&set.Origin, "origin", 0, "Rank generating the graph")
	fs.StringVar(&set.Compression, "compression", set.Compression, "Payload compression: none, lz4 or zstd")
	fs.DurationVar(&set.Timeout, "timeout", 0, "How long a collective waits for the group, 0 waits forever")
	fs.BoolVar(&set.VerifyReplica, "verify", false, "Compare graph digests after replication")
	fs.StringVar(&set.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address after the run")
	fs.StringVar(&set.LogLevel, "log-level", set.LogLevel, "debug, info, warn or error")
	fs.StringVar(&set.Network.TLS.Cert, "tls-cert", "", "PEM certificate, enables TLS between members")
	fs.StringVar(&set.Network.TLS.Key, "tls-key", "", "PEM private key of -tls-cert")
	fs.StringVar(&set.Network.TLS.CA, "tls-ca", "", "PEM CA bundle members must be signed by")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return options{}, err
		}
	}
	var peerErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rank":
			cfg.Network.Rank = set.Network.Rank
		case "edges":
			cfg.EdgeCount = set.EdgeCount
		case "vertices":
			cfg.VertexCount = set.VertexCount
		case "seed":
			cfg.Seed = set.Seed
		case "origin":
			cfg.Origin = set.Origin
		case "compression":
			cfg.Compression = set.Compression
		case "timeout":
			cfg.Timeout = set.Timeout
		case "verify":
			cfg.VerifyReplica = set.VerifyReplica
		case "metrics-addr":
			cfg.MetricsAddr = set.MetricsAddr
		case "log-level":
			cfg.LogLevel = set.LogLevel
		case "tls-cert":
			cfg.Network.TLS.Cert = set.Network.TLS.Cert
		case "tls-key":
			cfg.Network.TLS.Key = set.Network.TLS.Key
		case "tls-ca":
			cfg.Network.TLS.CA = set.Network.TLS.CA
		case "peers":
			cfg.Network.Peers, peerErr = parsePeers(*peers, defaultPort)
		}
	})
	if peerErr != nil {
		return options{}, peerErr
	}
	if err := cfg.Validate(); err != nil {
		return options{}, err
	}
	if *local < 0 {
		return options{}, fmt.Errorf("-local must not be negative")
	}
	if *local == 0 && len(cfg.Network.Peers) == 0 {
		return options{}, fmt.Errorf("either -local or a peer list is required")
	}
	return options{cfg: cfg, local: *local}, nil
}

func newLogger(level string) *slog.Logger {
	switch level {
	case "debug":
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	case "warn":
		pterm.DefaultLogger.Level = pterm.LogLevelWarn
	case "error":
		pterm.DefaultLogger.Level = pterm.LogLevelError
	default:
		pterm.DefaultLogger.Level = pterm.LogLevelInfo
	}
	// Create a new slog handler with the default PTerm logger
	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	return slog.New(handler)
}

func peerOptions(cfg config.Config, logger *slog.Logger) ([]network.PeerOption, error) {
	opts := []network.PeerOption{
		network.WithTimeout(cfg.Timeout),
		network.WithLogger(logger),
	}
	if !cfg.Network.TLS.Enabled() {
		return opts, nil
	}
	tlsOpts, err := network.LoadTLS(cfg.Network.TLS.Cert, cfg.Network.TLS.Key, cfg.Network.TLS.CA)
	if err != nil {
		return nil, err
	}
	return append(opts, tlsOpts...), nil
}

// runMember joins the group described by cfg.Network as one process.
func runMember(cfg config.Config, logger *slog.Logger, out io.Writer) (*telemetry.Recorder, error) {
	opts, err := peerOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	g, err := network.Join(cfg.Network.Rank, cfg.Network.Addresses(), opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("joined group", "rank", g.Rank(), "size", g.Size())
	rec := telemetry.NewRecorder(g.Rank())
	err = runRank(g, cfg, logger, out, rec)
	// leave only once every member is done with the last exchange
	if err == nil {
		err = g.Barrier()
	}
	return rec, errors.Join(err, g.Close())
}

// runLocal runs a whole group of size ranks inside this process.
func runLocal(cfg config.Config, size int, logger *slog.Logger, out io.Writer) ([]*telemetry.Recorder, error) {
	opts, err := peerOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	recorders := make([]*telemetry.Recorder, size)
	for i := range recorders {
		recorders[i] = telemetry.NewRecorder(i)
	}
	var mu sync.Mutex
	err = network.RunLocal(size, func(g *network.Group) error {
		return runRank(g, cfg, logger, &lockedWriter{w: out, mu: &mu}, recorders[g.Rank()])
	}, opts...)
	return recorders, err
}

// runRank is the program every rank executes.
func runRank(g *network.Group, cfg config.Config, logger *slog.Logger, out io.Writer, rec *telemetry.Recorder) error {
	if err := cfg.ValidateGroup(g.Size()); err != nil {
		return err
	}
	cd, err := codec.New(codec.Compression(cfg.Compression))
	if err != nil {
		return err
	}
	comm := collective.New(g, cd, collective.WithLogger(logger))

	var gr graph.Graph
	if comm.Rank() == cfg.Origin {
		logger.Info("generating graph", "edges", cfg.EdgeCount, "vertices", cfg.VertexCount, "seed", cfg.Seed)
		gr, err = graph.Generate(cfg.EdgeCount, cfg.VertexCount, graph.NewRand(cfg.Seed))
		if err != nil {
			return err
		}
	}
	rep, err := bench.Run(comm, gr, bench.Options{
		Origin:        cfg.Origin,
		VerifyReplica: cfg.VerifyReplica,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	rec.Observe(rep)
	return report.Print(out, rep)
}

func serveMetrics(addr string, recorders []*telemetry.Recorder, logger *slog.Logger) error {
	gatherers := prometheus.Gatherers{}
	for _, rec := range recorders {
		gatherers = append(gatherers, rec.Registry())
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	logger.Info("serving metrics until interrupted", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// lockedWriter keeps reports of concurrent ranks from interleaving mid-line.
type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
