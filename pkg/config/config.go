package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/drift/pkg/protocol"
	"github.com/cuemby/drift/pkg/types"
)

// Config is the structured document describing one simulation run.
type Config struct {
	Name string `yaml:"name"`
	Seed int64  `yaml:"seed"`

	Dataset    DatasetConfig    `yaml:"dataset"`
	Query      QueryConfig      `yaml:"query"`
	Projection ProjectionConfig `yaml:"projection"`
	Protocol   ProtocolConfig   `yaml:"protocol"`

	RebalanceAlgorithm string  `yaml:"rebalance_algorithm"`
	Theta              float64 `yaml:"theta"`
}

// DatasetConfig shapes the record feed: an optional synthetic
// generator plus the filter pipeline (bounded length, modulo
// partitioning, sliding time window) and the warmup prefix.
type DatasetConfig struct {
	Generate *GenerateConfig `yaml:"generate"`

	MaxLength   int   `yaml:"max_length"`
	HashStreams int32 `yaml:"hash_streams"`
	HashSources int32 `yaml:"hash_sources"`
	TimeWindow  int64 `yaml:"time_window"`
	Warmup      int   `yaml:"warmup"`
}

// GenerateConfig describes a synthetic dataset.
type GenerateConfig struct {
	Records int     `yaml:"records"`
	Streams int32   `yaml:"streams"`
	Sources int32   `yaml:"sources"`
	Keys    uint32  `yaml:"keys"`
	Zipf    float64 `yaml:"zipf"`
}

// QueryConfig selects the monitored query.
type QueryConfig struct {
	Type    string `yaml:"type"`
	Stream  int32  `yaml:"stream"`
	Stream1 int32  `yaml:"stream1"`
	Stream2 int32  `yaml:"stream2"`
}

// ProjectionConfig fixes the sketch dimensions.
type ProjectionConfig struct {
	Depth int   `yaml:"depth"`
	Width int   `yaml:"width"`
	Seed  int64 `yaml:"seed"`
}

// ProtocolConfig selects the protocol variant and its options.
type ProtocolConfig struct {
	Name         string `yaml:"name"`
	Eikonal      *bool  `yaml:"eikonal"`
	UseCostModel *bool  `yaml:"use_cost_model"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration errors; all of them are fatal at
// init.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: name is required")
	}
	if err := c.QuerySpec().Validate(); err != nil {
		return fmt.Errorf("config %s: %w", c.Name, err)
	}
	if c.Projection.Depth <= 0 || c.Projection.Width <= 0 {
		return fmt.Errorf("config %s: projection depth and width must be positive", c.Name)
	}
	if c.Theta <= 0 {
		return fmt.Errorf("config %s: theta must be positive", c.Name)
	}
	if err := c.ProtocolConfig().Validate(); err != nil {
		return fmt.Errorf("config %s: %w", c.Name, err)
	}
	if g := c.Dataset.Generate; g != nil {
		if g.Records <= 0 || g.Streams <= 0 || g.Sources <= 0 || g.Keys == 0 {
			return fmt.Errorf("config %s: generate needs positive records, streams, sources and keys", c.Name)
		}
	}
	if c.Dataset.Warmup < 0 {
		return fmt.Errorf("config %s: warmup must not be negative", c.Name)
	}
	return nil
}

// QuerySpec maps the query section onto the core model.
func (c *Config) QuerySpec() types.QuerySpec {
	return types.QuerySpec{
		Kind:    types.QueryKind(c.Query.Type),
		Stream:  c.Query.Stream,
		Stream1: c.Query.Stream1,
		Stream2: c.Query.Stream2,
	}
}

// Eikonal reports whether eikonal safe zones are selected (default
// true).
func (c *Config) Eikonal() bool {
	if c.Protocol.Eikonal == nil {
		return true
	}
	return *c.Protocol.Eikonal
}

// ProtocolConfig maps the protocol section onto the core model.
// use_cost_model defaults to true.
func (c *Config) ProtocolConfig() protocol.Config {
	useCost := true
	if c.Protocol.UseCostModel != nil {
		useCost = *c.Protocol.UseCostModel
	}
	rbl := c.RebalanceAlgorithm
	if rbl == "" {
		rbl = string(protocol.RebalanceNone)
	}
	return protocol.Config{
		Protocol:     protocol.Variant(c.Protocol.Name),
		Rebalance:    protocol.RebalanceAlgorithm(rbl),
		UseCostModel: useCost,
	}
}
