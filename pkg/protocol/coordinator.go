package protocol

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/cuemby/drift/pkg/log"
	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/types"
)

// Coordinator is the classic set-based geometric method (SGM)
// coordinator. It owns the query state (and thus the reference E),
// orchestrates rounds and sub-rounds, and rebalances drifts when a
// site reports a local violation.
type Coordinator struct {
	name  string
	cfg   Config
	q     *query.ContinuousQuery
	state *query.State
	net   *network.Network
	nodes []*Node
	k     int
	rng   *rand.Rand
	logch zerolog.Logger

	// Rebalancing state
	inB         map[*Node]bool
	b           []*Node
	bcompl      []*Node
	ubal        sketch.Vec
	ubalUpdates int64
	roundTotalB int64

	stats Stats
}

// NewCoordinator builds the SGM coordinator over the given sites. The
// shuffle used by the rebalancers draws from rng, which must be the
// simulation's named generator.
func NewCoordinator(name string, cfg Config, q *query.ContinuousQuery, net *network.Network, nodes []*Node, rng *rand.Rand) *Coordinator {
	return &Coordinator{
		name:  name,
		cfg:   cfg,
		q:     q,
		state: q.NewState(len(nodes)),
		net:   net,
		nodes: nodes,
		k:     len(nodes),
		rng:   rng,
		logch: log.WithNetwork("coordinator", name),
		inB:   make(map[*Node]bool),
		ubal:  sketch.NewVec(q.StateVectorSize()),
	}
}

// State exposes the query state (reference and estimate).
func (c *Coordinator) State() *query.State {
	return c.state
}

// Stats implements Protocol.
func (c *Coordinator) Stats() Stats {
	return c.stats
}

// Warmup replays a record prefix directly into the reference, without
// the protocol: E accrues the warmup state divided by the number of
// sites.
func (c *Coordinator) Warmup(records []types.Record) {
	dE := sketch.NewVec(c.q.StateVectorSize())
	for _, rec := range records {
		c.q.Update(dE, rec)
	}
	c.state.UpdateEstimate(dE.Scaled(1 / float64(c.k)))
}

// StartRound broadcasts a fresh safe zone, built around the current
// reference, to every site.
func (c *Coordinator) StartRound() {
	for _, n := range c.nodes {
		c.stats.SzSent++
		z := c.state.Zone().Clone()
		c.net.Send(network.CoordinatorAddr, n.SiteID, epReset, c.state.Zone(), nil)
		n.Reset(z)
	}
	c.roundTotalB = 0
	c.stats.Rounds++
	c.stats.Subrounds++

	// zeroed here but not in subsequent rebalances; only ubal is
	// zeroed there
	c.ubalUpdates = 0

	c.logch.Debug().Int64("round", c.stats.Rounds).Float64("qest", c.state.Qest).Msg("round started")
}

// OnLocalViolation attempts to rebalance; if that fails the round is
// restarted.
func (c *Coordinator) OnLocalViolation(n *Node) {
	c.b = c.b[:0]
	c.bcompl = c.bcompl[:0]
	clear(c.inB)
	c.ubal.Zero()

	if c.k > 1 {
		switch c.cfg.Rebalance {
		case RebalanceNone:
			c.rebalanceNone()
		case RebalanceRandom:
			c.rebalanceRandom(n, false)
		case RebalanceRandomLimits:
			c.rebalanceRandom(n, true)
		default:
			panic(fmt.Sprintf("protocol: unknown rebalancing algorithm %q", c.cfg.Rebalance))
		}
	} else {
		c.rebalanceNone()
	}
}

// OnProgress implements Protocol; SGM nodes never report progress.
func (c *Coordinator) OnProgress(*Node, int) {}

// OnDriftReport folds one site's drift into the round accumulator.
func (c *Coordinator) OnDriftReport(n *Node, cs CompressedState) {
	c.ubal.Add(cs.Vec)
	c.ubalUpdates += cs.Updates
	c.stats.TotalUpdates += cs.Updates
}

// fetchDrift pulls one site's drift over the simulated network and
// accounts both legs.
func (c *Coordinator) fetchDrift(n *Node) {
	cs := n.GetDrift()
	c.net.Send(network.CoordinatorAddr, n.SiteID, epGetDrift, nil, cs)
	c.OnDriftReport(n, cs)
}

// rebalanceNone skips rebalancing: every site goes to the complement
// set and the round finishes. With a single site this is the only
// meaningful strategy.
func (c *Coordinator) rebalanceNone() {
	c.bcompl = append(c.bcompl[:0], c.nodes...)
	c.FinishRound()
}

// rebalanceRandom grows a balancing set B starting from the violating
// site, fetching drifts in a deterministically shuffled order until
// the averaged drift is admissible again. If every site ends up in B
// the round finishes instead. With limits enabled, ad-hoc caps on |B|
// and on the total rebalanced sites per round force an early finish.
func (c *Coordinator) rebalanceRandom(lv *Node, limits bool) {
	c.b = append(c.b, lv)
	c.inB[lv] = true
	c.fetchDrift(lv)
	admissible := false

	rest := make([]*Node, 0, c.k-1)
	for _, n := range c.nodes {
		if !c.inB[n] {
			rest = append(rest, n)
		}
	}
	c.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	zbal := c.state.Zeta(c.ubal.Scaled(1 / float64(len(c.b))))
	admissible = zbal > 0
	for _, n := range rest {
		if admissible {
			c.bcompl = append(c.bcompl, n)
			continue
		}
		c.b = append(c.b, n)
		c.inB[n] = true
		c.fetchDrift(n)
		zbal = c.state.Zeta(c.ubal.Scaled(1 / float64(len(c.b))))
		admissible = zbal > 0
	}

	fin := len(c.bcompl) == 0
	if limits {
		// cap |B| at (k+3)/2, rounded down, and the total rebalanced
		// sites per round at k
		fin = fin || len(c.b) > (c.k+3)/2
		fin = fin || c.roundTotalB+int64(len(c.b)) > int64(c.k)
	}

	if fin {
		c.FinishRound()
		return
	}
	c.rebalance()
}

// rebalance commits a sub-round: the balancing set's mean drift is
// pushed back to every site in it.
func (c *Coordinator) rebalance() {
	c.ubal.Scale(1 / float64(len(c.b)))
	if z := c.state.Zeta(c.ubal); !(z > 0) {
		panic(fmt.Sprintf("protocol: rebalanced drift inadmissible, zeta=%g", z))
	}

	sbal := CompressedState{Vec: c.ubal, Updates: c.ubalUpdates}
	for _, n := range c.b {
		c.net.Send(network.CoordinatorAddr, n.SiteID, epSetDrift, sbal, nil)
		n.SetDrift(sbal)
	}

	c.roundTotalB += int64(len(c.b))
	c.stats.Subrounds++
	c.stats.TotalRblSize += int64(len(c.b))

	c.logch.Debug().Int("b", len(c.b)).Int64("subround", c.stats.Subrounds).Msg("rebalanced")
}

// FinishRounds flushes the in-flight round at end of stream.
func (c *Coordinator) FinishRounds() {
	c.b = c.b[:0]
	clear(c.inB)
	c.ubal.Zero()
	c.rebalanceNone()
}

// FinishRound collects the drifts still outstanding, folds the mean
// drift into the reference and starts the next round.
func (c *Coordinator) FinishRound() {
	for _, n := range c.bcompl {
		c.fetchDrift(n)
	}
	c.ubal.Scale(1 / float64(c.k))
	c.state.UpdateEstimate(c.ubal)
	c.StartRound()
}
