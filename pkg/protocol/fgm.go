package protocol

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/query"
)

// psiEpsilon ends an FGM round once the total zeta mass has dropped
// below this fraction of its value at the round start.
const psiEpsilon = 0.05

// FGMCoordinator is the functional geometric method coordinator. The
// monitored condition is the total safe-zone mass psi = sum of site
// zetas: instead of reacting to single-site violations, sites report
// quantized progress of their local zeta descent, and the coordinator
// refreshes thresholds in sub-rounds until psi is exhausted.
type FGMCoordinator struct {
	*Coordinator

	zeta0     float64
	thetaQ    float64
	quanta    map[*Node]int
	sumQuanta int

	// rebalance enables the FRGM behavior: at a sub-round boundary
	// the most-drifted half of the sites is averaged before new
	// thresholds go out.
	rebalance bool
}

// NewFGMCoordinator builds the FGM (or, with rebalancing, FRGM)
// coordinator.
func NewFGMCoordinator(name string, cfg Config, q *query.ContinuousQuery, net *network.Network, nodes []*Node, rng *rand.Rand, rebalance bool) *FGMCoordinator {
	return &FGMCoordinator{
		Coordinator: NewCoordinator(name, cfg, q, net, nodes, rng),
		quanta:      make(map[*Node]int),
		rebalance:   rebalance,
	}
}

// StartRound resets every site and arms the first sub-round
// thresholds.
func (f *FGMCoordinator) StartRound() {
	f.Coordinator.StartRound()
	f.zeta0 = f.nodes[0].Zeta()
	f.armThresholds(f.zeta0 / 2)
}

// armThresholds broadcasts a new progress quantum and clears the
// counters.
func (f *FGMCoordinator) armThresholds(thetaQ float64) {
	f.thetaQ = thetaQ
	clear(f.quanta)
	f.sumQuanta = 0
	for _, n := range f.nodes {
		f.net.Send(network.CoordinatorAddr, n.SiteID, epThreshold, scalar{}, nil)
		n.SetThreshold(thetaQ)
	}
}

// OnProgress accumulates a site's progress counter; when the total
// reaches the site count the sub-round ends.
func (f *FGMCoordinator) OnProgress(n *Node, quanta int) {
	f.sumQuanta += quanta - f.quanta[n]
	f.quanta[n] = quanta
	if f.sumQuanta >= f.k {
		f.onBoundary()
	}
}

// OnLocalViolation is not part of the FGM flow (nodes always run with
// an armed threshold); if it ever fires, escalate to a boundary.
func (f *FGMCoordinator) OnLocalViolation(*Node) {
	f.onBoundary()
}

// collectPsi fetches every site's current zeta.
func (f *FGMCoordinator) collectPsi() float64 {
	var psi float64
	for _, n := range f.nodes {
		f.net.Send(network.CoordinatorAddr, n.SiteID, epZeta, nil, scalar{})
		psi += n.Zeta()
	}
	return psi
}

// onBoundary handles the end of a sub-round: either the round's zeta
// mass is exhausted and the round finishes, or new thresholds go out,
// in the FRGM variant after rebalancing the most-drifted sites.
func (f *FGMCoordinator) onBoundary() {
	psi := f.collectPsi()
	if psi <= psiEpsilon*float64(f.k)*f.zeta0 {
		f.FinishRound()
		return
	}

	if f.rebalance {
		psi = f.rebalanceDrifted(psi)
		if psi <= psiEpsilon*float64(f.k)*f.zeta0 {
			f.FinishRound()
			return
		}
	}

	f.stats.Subrounds++
	if f.cfg.UseCostModel {
		// spread half the remaining mass over the next k quanta
		f.armThresholds(psi / (2 * float64(f.k)))
	} else {
		// halve the quantum, floored so it cannot vanish while psi
		// is still above the finish threshold
		f.armThresholds(math.Max(f.thetaQ/2, psi/(2*float64(f.k)*float64(f.k))))
	}
}

// rebalanceDrifted averages the drifts of the half of the sites that
// burned the most quanta and redistributes the mean, returning the
// updated psi. If the mean is inadmissible the drifts stay put.
func (f *FGMCoordinator) rebalanceDrifted(psi float64) float64 {
	order := make([]*Node, len(f.nodes))
	copy(order, f.nodes)
	sort.SliceStable(order, func(i, j int) bool {
		return f.quanta[order[i]] > f.quanta[order[j]]
	})
	b := order[:(f.k+1)/2]

	f.ubal.Zero()
	prior := 0.0
	for _, n := range b {
		prior += n.Zeta()
		f.fetchDrift(n)
	}
	f.ubal.Scale(1 / float64(len(b)))
	zbal := f.state.Zeta(f.ubal)
	if !(zbal > 0) {
		return psi
	}

	sbal := CompressedState{Vec: f.ubal, Updates: f.ubalUpdates}
	for _, n := range b {
		f.net.Send(network.CoordinatorAddr, n.SiteID, epSetDrift, sbal, nil)
		n.SetDrift(sbal)
	}
	f.stats.TotalRblSize += int64(len(b))
	f.roundTotalB += int64(len(b))
	return psi - prior + float64(len(b))*zbal
}

// FinishRounds flushes the in-flight round at end of stream.
func (f *FGMCoordinator) FinishRounds() {
	f.FinishRound()
}

// FinishRound collects every site's drift, advances the estimate and
// starts the next round.
func (f *FGMCoordinator) FinishRound() {
	f.ubal.Zero()
	for _, n := range f.nodes {
		f.fetchDrift(n)
	}
	f.ubal.Scale(1 / float64(f.k))
	f.state.UpdateEstimate(f.ubal)
	f.StartRound()
}
