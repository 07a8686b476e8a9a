package protocol

import (
	"fmt"
	"math"

	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/safezone"
	"github.com/cuemby/drift/pkg/sched"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/types"
)

// Host is what a node reports to: the coordinator variant that owns
// it.
type Host interface {
	OnLocalViolation(n *Node)
	OnProgress(n *Node, quanta int)
}

// Node is the per-site state machine. It owns its drift vector and a
// value copy of the active safe zone, applies the records of its site,
// and signals the coordinator when its drift leaves the zone.
type Node struct {
	SiteID types.SourceID

	q    *query.ContinuousQuery
	host Host
	net  *network.Network

	// Round state
	U           sketch.Vec
	zone        safezone.Zone
	zeta        float64
	updateCount int64

	// Round statistics
	RoundLocalUpdates int64

	// FGM-family sub-round state; thetaQ == 0 disables quantum
	// tracking (SGM).
	zeta0  float64
	thetaQ float64
	quanta int

	rule *sched.Rule
}

// NewNode builds the node for one site and subscribes it to
// START_RECORD for the duration of its lifetime.
func NewNode(sim *sched.Simulation, net *network.Network, q *query.ContinuousQuery, host Host, site types.SourceID) *Node {
	n := &Node{
		SiteID: site,
		q:      q,
		host:   host,
		net:    net,
		U:      sketch.NewVec(q.StateVectorSize()),
	}
	n.rule = sim.On(sched.StartRecord, func() {
		rec := sim.Record()
		if rec.HID == n.SiteID {
			n.onRecord(rec)
		}
	})
	return n
}

// Dismantle cancels the node's subscriptions; the node is unusable
// afterwards.
func (n *Node) Dismantle() {
	if n.rule != nil {
		n.rule.Cancel()
		n.rule = nil
	}
}

// Zeta is the last-computed safe-zone value at the node's drift.
func (n *Node) Zeta() float64 {
	return n.zeta
}

// Reset (coordinator -> node, oneway) installs a new safe zone and
// clears the drift. The fresh zone must admit the origin.
func (n *Node) Reset(z safezone.Zone) {
	n.zone = z
	n.U.Zero()
	n.updateCount = 0
	n.RoundLocalUpdates = 0
	n.zeta = n.zone.Eval(n.U)
	if !(n.zeta > 0) {
		panic(fmt.Sprintf("protocol: site %d reset with inadmissible safe zone, zeta=%g", n.SiteID, n.zeta))
	}
	n.zeta0 = n.zeta
	n.thetaQ = 0
	n.quanta = 0
}

// SetThreshold (coordinator -> node, oneway) arms quantum tracking for
// an FGM-family sub-round and clears the progress counter.
func (n *Node) SetThreshold(thetaQ float64) {
	n.thetaQ = thetaQ
	n.quanta = 0
}

// GetDrift (coordinator <- node, request/response) snapshots the drift
// and zeroes the update counter. The drift vector itself is not
// cleared here.
func (n *Node) GetDrift() CompressedState {
	upd := n.updateCount
	n.updateCount = 0
	return CompressedState{Vec: n.U.Clone(), Updates: upd}
}

// SetDrift (coordinator -> node, oneway) replaces the drift with the
// rebalanced vector. The update counter is deliberately not
// overwritten: pre-rebalance updates keep accruing toward round
// totals, and the transmitted count serves byte accounting only.
func (n *Node) SetDrift(cs CompressedState) {
	copy(n.U, cs.Vec)
	n.zeta = n.zone.Eval(n.U)
	if !(n.zeta > 0) {
		panic(fmt.Sprintf("protocol: site %d rebalanced to inadmissible drift, zeta=%g", n.SiteID, n.zeta))
	}
}

// onRecord applies one owned record to the local drift and re-checks
// the safe zone. A node fires at most one signal per record.
func (n *Node) onRecord(rec types.Record) {
	delta := n.q.DeltaUpdate(n.U, rec)
	if delta.Empty() {
		return
	}
	n.updateCount++
	n.RoundLocalUpdates++
	n.zeta = n.zone.EvalDelta(delta, n.U)

	if n.thetaQ > 0 {
		// FGM family: report quantum progress
		c := int(math.Floor((n.zeta0 - n.zeta) / n.thetaQ))
		if c > n.quanta {
			n.quanta = c
			n.net.Send(n.SiteID, network.CoordinatorAddr, epProgress, scalar{}, nil)
			n.host.OnProgress(n, c)
		}
		return
	}
	if n.zeta <= 0 {
		n.net.Send(n.SiteID, network.CoordinatorAddr, epViolation, violationSignal{}, nil)
		n.host.OnLocalViolation(n)
	}
}
