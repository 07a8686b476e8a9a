package query

import (
	"math"

	"github.com/cuemby/drift/pkg/safezone"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/types"
)

// ContinuousQuery binds a query (self-join or two-way join) to sketch
// dimensions and a safe-zone family. It is immutable and shared by the
// coordinator and every node of a monitoring network.
type ContinuousQuery struct {
	Spec    types.QuerySpec
	Proj    *sketch.Projection
	Theta   float64
	Eikonal bool
}

// New validates the spec and builds a continuous query.
func New(spec types.QuerySpec, proj *sketch.Projection, theta float64, eikonal bool) (*ContinuousQuery, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &ContinuousQuery{Spec: spec, Proj: proj, Theta: theta, Eikonal: eikonal}, nil
}

// StateVectorSize is the length of the monitored state vector: one
// sketch for a self-join, two concatenated sketches for a join.
func (q *ContinuousQuery) StateVectorSize() int {
	if q.Spec.Kind == types.TwowayJoin {
		return 2 * q.Proj.Size()
	}
	return q.Proj.Size()
}

// Streams returns the stream ids this query monitors.
func (q *ContinuousQuery) Streams() []types.StreamID {
	return q.Spec.Streams()
}

// offsetOf maps a record to the half of the state vector it updates,
// or ok=false if the record's stream is not part of the query.
func (q *ContinuousQuery) offsetOf(sid types.StreamID) (int, bool) {
	switch q.Spec.Kind {
	case types.SelfJoin:
		if sid == q.Spec.Stream {
			return 0, true
		}
	case types.TwowayJoin:
		if sid == q.Spec.Stream1 {
			return 0, true
		}
		if sid == q.Spec.Stream2 {
			return q.Proj.Size(), true
		}
	}
	return 0, false
}

// DeltaUpdate applies a record to the appropriate half of state vector
// s and returns the delta of the changed positions. Records whose
// stream is not part of the query return an empty delta and leave s
// untouched.
func (q *ContinuousQuery) DeltaUpdate(s sketch.Vec, r types.Record) sketch.Delta {
	offset, ok := q.offsetOf(r.SID)
	if !ok {
		return sketch.Delta{}
	}
	return q.Proj.Update(s, r.Key, r.Op.Weight(), offset)
}

// Update applies a record to s, discarding the delta. It reports
// whether the record touched the state vector.
func (q *ContinuousQuery) Update(s sketch.Vec, r types.Record) bool {
	return !q.DeltaUpdate(s, r).Empty()
}

// Estimate evaluates the query function on state vector e.
func (q *ContinuousQuery) Estimate(e sketch.Vec) float64 {
	if q.Spec.Kind == types.TwowayJoin {
		half := q.Proj.Size()
		return q.Proj.InnerProduct(e[:half], e[half:])
	}
	return q.Proj.SelfJoin(e)
}

// MaxError is the worst-case combined accuracy of sketching plus
// safe-zone monitoring, for reporting.
func (q *ContinuousQuery) MaxError() float64 {
	eps := q.Proj.Epsilon()
	return eps + math.Pow(1+eps, 2)*(2*q.Theta+q.Theta*q.Theta)
}

// zoneFunc builds a fresh safe-zone function around reference e.
func (q *ContinuousQuery) zoneFunc(e sketch.Vec) safezone.Func {
	if q.Spec.Kind == types.TwowayJoin {
		return safezone.NewTwowayJoin(q.Proj, e, q.Theta, q.Eikonal)
	}
	return safezone.NewSelfJoin(q.Proj, e, q.Theta, q.Eikonal)
}

// State is the coordinator-owned query state: the global reference E
// (the mean local state across the sites), the current estimate of
// the whole distributed stream, and the safe zone built around E.
type State struct {
	query *ContinuousQuery
	sites int
	E     sketch.Vec
	Qest  float64
	zone  safezone.Zone
}

// NewState returns a fresh query state with E = 0 for a network of
// sites sites.
func (q *ContinuousQuery) NewState(sites int) *State {
	if sites < 1 {
		sites = 1
	}
	st := &State{
		query: q,
		sites: sites,
		E:     sketch.NewVec(q.StateVectorSize()),
	}
	st.refresh()
	return st
}

func (st *State) refresh() {
	// E holds the mean local state; the query is quadratic, so the
	// estimate for the union of the site streams evaluates on k*E
	st.Qest = st.query.Estimate(st.E.Scaled(float64(st.sites)))
	st.zone = safezone.New(st.query.zoneFunc(st.E))
}

// UpdateEstimate folds the round's mean drift into E, recomputes the
// estimate and rebuilds the safe zone around the new reference.
func (st *State) UpdateEstimate(meanDrift sketch.Vec) {
	st.E.Add(meanDrift)
	st.refresh()
}

// Zone returns the active safe zone; callers clone it before handing
// it to a node.
func (st *State) Zone() *safezone.Zone {
	return &st.zone
}

// Zeta evaluates the active safe zone at drift u with the state's own
// scratch.
func (st *State) Zeta(u sketch.Vec) float64 {
	return st.zone.Eval(u)
}
