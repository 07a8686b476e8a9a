package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/safezone"
	"github.com/cuemby/drift/pkg/sched"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/types"
)

// stubHost records what a node reports.
type stubHost struct {
	violations []*Node
	progress   []int
}

func (h *stubHost) OnLocalViolation(n *Node)  { h.violations = append(h.violations, n) }
func (h *stubHost) OnProgress(_ *Node, c int) { h.progress = append(h.progress, c) }

func testQuery(t *testing.T) *query.ContinuousQuery {
	t.Helper()
	proj := sketch.NewProjection(5, 16, 42)
	q, err := query.New(types.QuerySpec{Kind: types.SelfJoin, Stream: 0}, proj, 0.1, true)
	require.NoError(t, err)
	return q
}

func newTestNode(t *testing.T, q *query.ContinuousQuery) (*Node, *stubHost, *query.State, *network.Network) {
	t.Helper()
	sim := sched.New(1)
	net := network.New("test", "SGM")
	host := &stubHost{}
	n := NewNode(sim, net, q, host, 0)
	st := q.NewState(1)
	return n, host, st, net
}

// TestNodeResetAdmissible covers invariant 1: zeta right after reset
// is positive.
func TestNodeResetAdmissible(t *testing.T) {
	q := testQuery(t)
	n, _, st, _ := newTestNode(t, q)

	n.Reset(st.Zone().Clone())
	assert.Greater(t, n.Zeta(), 0.0)
	assert.EqualValues(t, 0, n.updateCount)
	assert.EqualValues(t, 0, n.RoundLocalUpdates)
}

// TestNodeRecordOwnership verifies only owned, query-relevant records
// touch the drift.
func TestNodeRecordOwnership(t *testing.T) {
	q := testQuery(t)
	n, _, st, _ := newTestNode(t, q)
	n.Reset(st.Zone().Clone())

	// foreign stream: empty delta, no counter movement
	n.onRecord(types.Record{SID: 5, HID: 0, Key: 1, Op: types.Insert})
	assert.EqualValues(t, 0, n.updateCount)

	n.onRecord(types.Record{SID: 0, HID: 0, Key: 1, Op: types.Insert})
	assert.EqualValues(t, 1, n.updateCount)
	assert.EqualValues(t, 1, n.RoundLocalUpdates)
}

// TestNodeGetDriftSnapshots verifies get_drift zeroes the update
// counter but leaves the drift vector in place.
func TestNodeGetDriftSnapshots(t *testing.T) {
	q := testQuery(t)
	n, _, st, _ := newTestNode(t, q)
	n.Reset(st.Zone().Clone())

	for i := 0; i < 3; i++ {
		n.onRecord(types.Record{SID: 0, HID: 0, Key: 7, Op: types.Insert})
	}
	cs := n.GetDrift()
	assert.EqualValues(t, 3, cs.Updates)
	assert.Greater(t, cs.Vec.Norm2(), 0.0)
	assert.EqualValues(t, 0, n.updateCount)
	assert.Greater(t, n.U.Norm2(), 0.0, "get_drift must not clear the drift")
}

// TestNodeSetDriftKeepsUpdateCount verifies set_drift replaces the
// drift and recomputes zeta without overwriting the update counter.
func TestNodeSetDriftKeepsUpdateCount(t *testing.T) {
	q := testQuery(t)
	n, _, st, _ := newTestNode(t, q)
	n.Reset(st.Zone().Clone())

	n.onRecord(types.Record{SID: 0, HID: 0, Key: 7, Op: types.Insert})
	require.EqualValues(t, 1, n.updateCount)

	n.SetDrift(CompressedState{Vec: sketch.NewVec(q.StateVectorSize()), Updates: 99})
	assert.EqualValues(t, 1, n.updateCount, "transmitted count is informational only")
	assert.Greater(t, n.Zeta(), 0.0)
	assert.Zero(t, n.U.Norm2())
}

// TestNodeViolationSignal verifies a node signals exactly once per
// crossing record and accounts the message.
func TestNodeViolationSignal(t *testing.T) {
	q := testQuery(t)
	n, host, st, net := newTestNode(t, q)
	n.Reset(st.Zone().Clone())

	// cold-start band is tiny; hammering one key must cross it
	for i := 0; i < 100 && len(host.violations) == 0; i++ {
		n.onRecord(types.Record{SID: 0, HID: 0, Key: 42, Op: types.Insert})
	}
	require.NotEmpty(t, host.violations)
	assert.Same(t, n, host.violations[0])

	viol := net.BytesWhere(func(c *network.Channel) bool {
		return c.Endpoint == "local_violation"
	})
	assert.EqualValues(t, 8*len(host.violations), viol)
}

// TestNodeResetInadmissiblePanics verifies the programming-error
// assertion on reset: an invalid zone evaluates to NaN, which never
// admits the origin.
func TestNodeResetInadmissiblePanics(t *testing.T) {
	q := testQuery(t)
	n, _, _, _ := newTestNode(t, q)
	assert.Panics(t, func() { n.Reset(safezone.Zone{}) })
}
