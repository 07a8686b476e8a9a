package config

import (
	"fmt"

	"github.com/cuemby/drift/pkg/protocol"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/sched"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/source"
)

// Assemble builds a ready-to-run simulation from a validated config:
// the shaped dataset, the continuous query, and the monitoring
// network. Tests and the CLI share this path so that identical
// configs produce identical runs.
func Assemble(cfg *Config) (*sched.Simulation, *protocol.StarNetwork, error) {
	sim := sched.New(cfg.Seed)

	src, err := buildSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := sim.LoadDataset(cfg.Name, src, cfg.Dataset.Warmup); err != nil {
		return nil, nil, err
	}
	sim.Meta.Window = cfg.Dataset.TimeWindow

	proj := sketch.NewProjection(cfg.Projection.Depth, cfg.Projection.Width, cfg.Projection.Seed)
	q, err := query.New(cfg.QuerySpec(), proj, cfg.Theta, cfg.Eikonal())
	if err != nil {
		return nil, nil, err
	}

	sn, err := protocol.NewStarNetwork(sim, cfg.Name, q, cfg.ProtocolConfig())
	if err != nil {
		return nil, nil, err
	}
	return sim, sn, nil
}

// buildSource applies the dataset shaping pipeline: generate (or fail
// if no source is configured), bound the length, partition streams
// and sites, then window.
func buildSource(cfg *Config) (source.Source, error) {
	if cfg.Dataset.Generate == nil {
		return nil, fmt.Errorf("config %s: dataset has no source", cfg.Name)
	}
	g := cfg.Dataset.Generate
	ds := source.Generate(source.GenSpec{
		Records: g.Records,
		Streams: g.Streams,
		Sources: g.Sources,
		Keys:    g.Keys,
		Zipf:    g.Zipf,
		Seed:    cfg.Seed,
	})

	var src source.Source = source.NewBuffered(ds)
	if cfg.Dataset.MaxLength > 0 {
		src = source.Filtered(src, source.MaxLength(cfg.Dataset.MaxLength))
	}
	if cfg.Dataset.HashStreams > 0 {
		src = source.Filtered(src, source.ModuloStreams(cfg.Dataset.HashStreams))
	}
	if cfg.Dataset.HashSources > 0 {
		src = source.Filtered(src, source.ModuloSources(cfg.Dataset.HashSources))
	}
	if cfg.Dataset.TimeWindow > 0 {
		src = source.TimeWindow(src, cfg.Dataset.TimeWindow)
	}
	return src, nil
}
