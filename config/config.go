// Package config holds the run configuration shared by every rank.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luca-patrignani/graph-bench/codec"
)

const (
	DefaultEdgeCount   = 200_000
	DefaultVertexCount = 200_000
)

type Config struct {
	EdgeCount     uint64        `yaml:"edge_count"`
	VertexCount   uint64        `yaml:"vertex_count"`
	Seed          uint64        `yaml:"seed"`
	Origin        int           `yaml:"origin"`
	Compression   string        `yaml:"compression"`
	Timeout       time.Duration `yaml:"timeout"`
	VerifyReplica bool          `yaml:"verify_replica"`
	MetricsAddr   string        `yaml:"metrics_addr,omitempty"`
	LogLevel      string        `yaml:"log_level"`
	Network       Network       `yaml:"network"`
}

// Network describes the group. Peers[i] is the address of rank i.
type Network struct {
	Rank  int      `yaml:"rank"`
	Peers []string `yaml:"peers"`
	TLS   TLS      `yaml:"tls,omitempty"`
}

// TLS holds PEM file paths. With CA set, members only accept peers whose
// certificates it signed, in both directions.
type TLS struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
	CA   string `yaml:"ca"`
}

func (t TLS) Enabled() bool {
	return t.Cert != ""
}

// Default returns the configuration of the reference run: 200,000 edges over
// 200,000 vertices, generated on rank 0, uncompressed, no timeout.
func Default() Config {
	return Config{
		EdgeCount:   DefaultEdgeCount,
		VertexCount: DefaultVertexCount,
		Compression: string(codec.None),
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on the group size.
func (c Config) Validate() error {
	if c.EdgeCount > 0 && c.VertexCount == 0 {
		return fmt.Errorf("vertex_count must be positive when edge_count is %d", c.EdgeCount)
	}
	if c.Origin < 0 {
		return fmt.Errorf("origin must not be negative, got %d", c.Origin)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := codec.ParseCompression(c.Compression); err != nil {
		return err
	}
	if (c.Network.TLS.Cert == "") != (c.Network.TLS.Key == "") {
		return fmt.Errorf("tls cert and key must be set together")
	}
	if c.Network.TLS.CA != "" && !c.Network.TLS.Enabled() {
		return fmt.Errorf("tls ca requires a cert and key")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// ValidateGroup checks the settings against a group of size members.
func (c Config) ValidateGroup(size int) error {
	if size < 1 {
		return fmt.Errorf("group must have at least one member")
	}
	if c.Origin >= size {
		return fmt.Errorf("origin %d outside group of %d", c.Origin, size)
	}
	return nil
}

// Addresses returns Peers indexed by rank.
func (n Network) Addresses() map[int]string {
	addresses := make(map[int]string, len(n.Peers))
	for i, p := range n.Peers {
		addresses[i] = p
	}
	return addresses
}
