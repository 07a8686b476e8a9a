package protocol

import (
	"fmt"

	"github.com/cuemby/drift/pkg/log"
	"github.com/cuemby/drift/pkg/metrics"
	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/sched"
)

// StarNetwork assembles one monitoring network over a simulation: a
// coordinator variant, one node per site of the dataset, and the
// simulated network carrying their traffic. Several networks can run
// side by side on the same simulation.
type StarNetwork struct {
	Name  string
	Q     *query.ContinuousQuery
	Net   *network.Network
	Proto Protocol
	Nodes []*Node

	sim   *sched.Simulation
	rules []*sched.Rule
}

// NewStarNetwork wires a network into sim. The dataset must already be
// loaded: the sites are the dataset's source ids.
func NewStarNetwork(sim *sched.Simulation, name string, q *query.ContinuousQuery, cfg Config) (*StarNetwork, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("network %s: %w", name, err)
	}
	sites := sim.Meta.SourceIDs()
	if len(sites) == 0 {
		return nil, fmt.Errorf("network %s: dataset has no sources", name)
	}

	sn := &StarNetwork{
		Name: name,
		Q:    q,
		Net:  network.New(name, string(cfg.Protocol)),
		sim:  sim,
	}

	for _, site := range sites {
		sn.Nodes = append(sn.Nodes, NewNode(sim, sn.Net, q, sn, site))
	}

	switch cfg.Protocol {
	case SGM:
		sn.Proto = NewCoordinator(name, cfg, q, sn.Net, sn.Nodes, sim.RNG())
	case FGM:
		sn.Proto = NewFGMCoordinator(name, cfg, q, sn.Net, sn.Nodes, sim.RNG(), false)
	case FRGM:
		sn.Proto = NewFGMCoordinator(name, cfg, q, sn.Net, sn.Nodes, sim.RNG(), true)
	}

	sn.rules = append(sn.rules,
		sim.On(sched.Init, sn.start),
		sim.On(sched.EndStream, func() { sn.Proto.FinishRounds() }),
		sim.On(sched.Report, sn.report),
		sim.On(sched.Done, sn.teardown),
	)
	return sn, nil
}

// Host plumbing: nodes report to the network, which forwards to the
// protocol variant.

func (sn *StarNetwork) OnLocalViolation(n *Node) {
	metrics.ViolationsTotal.WithLabelValues(sn.Name).Inc()
	sn.Proto.OnLocalViolation(n)
}

func (sn *StarNetwork) OnProgress(n *Node, quanta int) {
	sn.Proto.OnProgress(n, quanta)
}

// start replays the warmup prefix into the reference and opens the
// first round.
func (sn *StarNetwork) start() {
	if len(sn.sim.Warmup) > 0 {
		sn.Proto.Warmup(sn.sim.Warmup)
	}
	sn.Proto.StartRound()
}

func (sn *StarNetwork) report() {
	st := sn.Proto.Stats()
	state := sn.Proto.State()
	metrics.RoundsTotal.WithLabelValues(sn.Name).Add(float64(st.Rounds))
	metrics.SubroundsTotal.WithLabelValues(sn.Name).Add(float64(st.Subrounds))
	metrics.QueryEstimate.WithLabelValues(sn.Name).Set(state.Qest)
	logger := log.WithNetwork("network", sn.Name)
	logger.Info().
		Str("protocol", sn.Net.Protocol).
		Int64("rounds", st.Rounds).
		Int64("subrounds", st.Subrounds).
		Float64("qest", state.Qest).
		Int64("total_bytes", sn.Net.TotalBytes()).
		Msg("simulation finished")
}

// teardown cancels every subscription this network holds.
func (sn *StarNetwork) teardown() {
	for _, n := range sn.Nodes {
		n.Dismantle()
	}
	for _, r := range sn.rules {
		r.Cancel()
	}
	sn.rules = nil
}

// BytesGetDrift is the number of bytes received by the coordinator
// through get_drift responses.
func (sn *StarNetwork) BytesGetDrift() int64 {
	return sn.Net.BytesWhere(func(c *network.Channel) bool {
		return c.Endpoint == "get_drift" && c.Response
	})
}
