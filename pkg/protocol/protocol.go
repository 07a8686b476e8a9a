package protocol

import (
	"fmt"

	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/types"
)

// Variant names the protocol family member a network runs.
type Variant string

const (
	SGM  Variant = "SGM"
	FGM  Variant = "FGM"
	FRGM Variant = "FRGM"
)

// RebalanceAlgorithm selects the coordinator's rebalancing strategy.
type RebalanceAlgorithm string

const (
	RebalanceNone         RebalanceAlgorithm = "none"
	RebalanceRandom       RebalanceAlgorithm = "random"
	RebalanceRandomLimits RebalanceAlgorithm = "random_limits"
)

// Config is the protocol-level configuration of one monitoring
// network.
type Config struct {
	Protocol     Variant
	Rebalance    RebalanceAlgorithm
	UseCostModel bool // FGM only: derive sub-round quanta from the cost model
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	switch c.Protocol {
	case SGM, FGM, FRGM:
	default:
		return fmt.Errorf("unknown protocol %q", c.Protocol)
	}
	switch c.Rebalance {
	case RebalanceNone, RebalanceRandom, RebalanceRandomLimits:
	default:
		return fmt.Errorf("unknown rebalance_algorithm %q", c.Rebalance)
	}
	return nil
}

// Endpoints of the simulated RPC surface. Oneway endpoints accrue only
// request bytes; the others accrue both legs.
var (
	epReset     = network.Endpoint{Name: "reset", Oneway: true}
	epGetDrift  = network.Endpoint{Name: "get_drift", Oneway: false}
	epSetDrift  = network.Endpoint{Name: "set_drift", Oneway: true}
	epViolation = network.Endpoint{Name: "local_violation", Oneway: true}
	epThreshold = network.Endpoint{Name: "threshold", Oneway: true}
	epProgress  = network.Endpoint{Name: "progress", Oneway: true}
	epZeta      = network.Endpoint{Name: "get_zeta", Oneway: false}
)

// CompressedState wraps a state vector and the number of updates it
// contains. On the wire the sender ships either the full sketch as
// float32s or the raw update log, whichever is smaller.
type CompressedState struct {
	Vec     sketch.Vec
	Updates int64
}

// ByteSize implements network.Payload.
func (cs CompressedState) ByteSize() int {
	full := len(cs.Vec) * 4
	raw := int(cs.Updates) * 4
	if raw < full {
		return raw
	}
	return full
}

// violationSignal is the constant-size local violation message: one
// pointer-equivalent site identifier.
type violationSignal struct{}

func (violationSignal) ByteSize() int { return 8 }

// scalar is a single float32 word on the wire (thresholds, zetas,
// progress counters).
type scalar struct{}

func (scalar) ByteSize() int { return 4 }

// Protocol is the coordinator contract shared by the SGM, FGM and FRGM
// variants. The variants differ in how violations are escalated and
// how rebalancing is performed; the round lifecycle is common.
type Protocol interface {
	// Warmup replays a record prefix straight into the reference,
	// without the protocol, seeding the first round.
	Warmup(records []types.Record)

	// State exposes the coordinator-owned query state.
	State() *query.State

	// StartRound resets every site around the current reference.
	StartRound()

	// OnLocalViolation handles a site's safe-zone violation.
	OnLocalViolation(n *Node)

	// OnProgress handles a site's quantum progress report (FGM
	// family; SGM never receives one).
	OnProgress(n *Node, quanta int)

	// OnDriftReport folds one site's reported drift into the round
	// accumulator.
	OnDriftReport(n *Node, cs CompressedState)

	// FinishRound collects outstanding drifts, advances the global
	// estimate and starts the next round.
	FinishRound()

	// FinishRounds flushes the in-flight round at end of stream so
	// the tail drift reaches the estimate.
	FinishRounds()

	// Stats exposes the protocol counters for reporting.
	Stats() Stats
}

// Stats are the protocol counters every variant maintains.
type Stats struct {
	Rounds       int64
	Subrounds    int64
	SzSent       int64
	TotalRblSize int64
	TotalUpdates int64
}
