package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/sched"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/source"
	"github.com/cuemby/drift/pkg/types"
)

// singleKeyStream builds n inserts of one key spread round-robin
// across sites.
func singleKeyStream(n int, sites int32) source.Dataset {
	ds := make(source.Dataset, n)
	for i := range ds {
		ds[i] = types.Record{
			TS:  int64(i),
			SID: 0,
			HID: int32(i) % sites,
			Key: 42,
			Op:  types.Insert,
		}
	}
	return ds
}

func runNetwork(t *testing.T, ds source.Dataset, warmup int, cfg Config, theta float64) *StarNetwork {
	t.Helper()
	sim := sched.New(1)
	require.NoError(t, sim.LoadRecords("test", ds, warmup))

	proj := sketch.NewProjection(5, 16, 42)
	q, err := query.New(types.QuerySpec{Kind: types.SelfJoin, Stream: 0}, proj, theta, true)
	require.NoError(t, err)

	sn, err := NewStarNetwork(sim, "test", q, cfg)
	require.NoError(t, err)
	require.NoError(t, sim.Run())
	return sn
}

// TestSGMSingleSite covers the single-site self-join scenario: the
// protocol rounds track the growing stream and the final estimate
// lands on the true self-join.
func TestSGMSingleSite(t *testing.T) {
	cfg := Config{Protocol: SGM, Rebalance: RebalanceNone}
	sn := runNetwork(t, singleKeyStream(1000, 1), 0, cfg, 0.1)

	st := sn.Proto.Stats()
	assert.GreaterOrEqual(t, st.Rounds, int64(1))
	assert.GreaterOrEqual(t, st.Subrounds, st.Rounds)
	assert.InDelta(t, 1e6, sn.Proto.State().Qest, 0.1*1e6)
	assert.Greater(t, sn.Net.TotalBytes(), int64(0))
}

// TestSGMSingleSiteForcesNone verifies a single site forces
// rebalance_none regardless of configuration.
func TestSGMSingleSiteForcesNone(t *testing.T) {
	cfg := Config{Protocol: SGM, Rebalance: RebalanceRandom}
	sn := runNetwork(t, singleKeyStream(1000, 1), 0, cfg, 0.1)

	st := sn.Proto.Stats()
	assert.Zero(t, st.TotalRblSize, "no rebalancing with a single site")
	assert.InDelta(t, 1e6, sn.Proto.State().Qest, 0.1*1e6)
}

// TestSGMTwoSites covers the two-site scenario: identical local
// streams, logarithmically many rounds after warmup, and the estimate
// covering the union of both streams.
func TestSGMTwoSites(t *testing.T) {
	cfg := Config{Protocol: SGM, Rebalance: RebalanceRandom}
	sn := runNetwork(t, singleKeyStream(1000, 2), 100, cfg, 0.1)

	st := sn.Proto.Stats()
	assert.GreaterOrEqual(t, st.Rounds, int64(1))
	assert.GreaterOrEqual(t, st.Subrounds, st.Rounds)
	assert.LessOrEqual(t, st.Rounds, int64(100), "rounds should be logarithmic in stream length")
	assert.InDelta(t, 1e6, sn.Proto.State().Qest, 0.15*1e6)
}

// TestDeterministicRuns verifies two identical runs produce identical
// counters and traffic.
func TestDeterministicRuns(t *testing.T) {
	cfg := Config{Protocol: SGM, Rebalance: RebalanceRandom}
	a := runNetwork(t, singleKeyStream(1000, 2), 100, cfg, 0.1)
	b := runNetwork(t, singleKeyStream(1000, 2), 100, cfg, 0.1)

	assert.Equal(t, a.Proto.Stats(), b.Proto.Stats())
	assert.Equal(t, a.Net.TotalMsgs(), b.Net.TotalMsgs())
	assert.Equal(t, a.Net.TotalBytes(), b.Net.TotalBytes())
	assert.Equal(t, a.Proto.State().Qest, b.Proto.State().Qest)
}

// rebalanceFixture builds a ten-site coordinator mid-round with
// maximally disagreeing drifts: site 0 violating hard along the
// reference direction, every other site drifting slightly against it.
func rebalanceFixture(t *testing.T, rbl RebalanceAlgorithm) (*Coordinator, []*Node) {
	t.Helper()
	const k = 10

	sim := sched.New(7)
	net := network.New("rbl", "SGM")
	proj := sketch.NewProjection(5, 16, 42)
	q, err := query.New(types.QuerySpec{Kind: types.SelfJoin, Stream: 0}, proj, 0.1, true)
	require.NoError(t, err)

	nodes := make([]*Node, k)
	for i := range nodes {
		nodes[i] = NewNode(sim, net, q, nil, int32(i))
	}
	cfg := Config{Protocol: SGM, Rebalance: rbl}
	c := NewCoordinator("rbl", cfg, q, net, nodes, sim.RNG())
	for _, n := range nodes {
		n.host = c
	}

	warmup := make([]types.Record, 2000)
	for i := range warmup {
		warmup[i] = types.Record{TS: int64(i), SID: 0, HID: int32(i % k), Key: 999, Op: types.Insert}
	}
	c.Warmup(warmup)
	c.StartRound()

	// drifts injected directly: +70 units at site 0, -2 at the rest
	for i := 0; i < 70; i++ {
		q.DeltaUpdate(nodes[0].U, types.Record{SID: 0, Key: 999, Op: types.Insert})
	}
	nodes[0].updateCount = 70
	for _, n := range nodes[1:] {
		for i := 0; i < 2; i++ {
			q.DeltaUpdate(n.U, types.Record{SID: 0, Key: 999, Op: types.Delete})
		}
		n.updateCount = 2
	}
	return c, nodes
}

// TestRandomLimitsFinishesRound verifies the limits variant refuses to
// commit once the balancing set outgrows (k+3)/2 rounded down: the round is
// finished instead, even though the averaged drift is admissible.
func TestRandomLimitsFinishesRound(t *testing.T) {
	c, _ := rebalanceFixture(t, RebalanceRandomLimits)
	c.OnLocalViolation(c.nodes[0])

	st := c.Stats()
	assert.Zero(t, st.TotalRblSize, "no sub-round commit past the |B| cap")
	assert.EqualValues(t, 2, st.Rounds, "round must be finished and restarted")
	assert.Greater(t, len(c.b), (10+3)/2, "the balancing set had to outgrow the cap to trigger the guard")
}

// TestRandomRebalanceCommits verifies the unbounded variant commits a
// sub-round with the seven sites it needed.
func TestRandomRebalanceCommits(t *testing.T) {
	c, nodes := rebalanceFixture(t, RebalanceRandom)
	c.OnLocalViolation(c.nodes[0])

	st := c.Stats()
	assert.EqualValues(t, 7, st.TotalRblSize)
	assert.EqualValues(t, 1, st.Rounds, "the round keeps running after a successful rebalance")
	assert.EqualValues(t, 2, st.Subrounds)

	for _, n := range nodes {
		assert.Greaterf(t, n.Zeta(), 0.0, "site %d must be admissible after the sub-round", n.SiteID)
	}

	// the rebalanced sites all hold the balancing set's mean drift
	mean := nodes[0].U
	for _, n := range c.b {
		assert.Equal(t, mean, n.U)
	}
}

// TestFGMConverges runs the functional variant end to end.
func TestFGMConverges(t *testing.T) {
	cfg := Config{Protocol: FGM, Rebalance: RebalanceNone, UseCostModel: true}
	sn := runNetwork(t, singleKeyStream(1000, 2), 100, cfg, 0.1)

	st := sn.Proto.Stats()
	assert.GreaterOrEqual(t, st.Rounds, int64(1))
	assert.GreaterOrEqual(t, st.Subrounds, st.Rounds)
	assert.InDelta(t, 1e6, sn.Proto.State().Qest, 0.15*1e6)
}

// TestFRGMConverges runs the rebalanced functional variant end to end.
func TestFRGMConverges(t *testing.T) {
	cfg := Config{Protocol: FRGM, Rebalance: RebalanceNone, UseCostModel: true}
	sn := runNetwork(t, singleKeyStream(1000, 2), 100, cfg, 0.1)

	st := sn.Proto.Stats()
	assert.GreaterOrEqual(t, st.Rounds, int64(1))
	assert.InDelta(t, 1e6, sn.Proto.State().Qest, 0.15*1e6)
}

// TestStarNetworkRejectsBadConfig verifies configuration errors are
// fatal at init.
func TestStarNetworkRejectsBadConfig(t *testing.T) {
	sim := sched.New(1)
	require.NoError(t, sim.LoadRecords("test", singleKeyStream(10, 1), 0))

	proj := sketch.NewProjection(5, 16, 42)
	q, err := query.New(types.QuerySpec{Kind: types.SelfJoin, Stream: 0}, proj, 0.1, true)
	require.NoError(t, err)

	_, err = NewStarNetwork(sim, "test", q, Config{Protocol: "TCP", Rebalance: RebalanceNone})
	assert.Error(t, err)
	_, err = NewStarNetwork(sim, "test", q, Config{Protocol: SGM, Rebalance: "magic"})
	assert.Error(t, err)
}

// TestBytesGetDrift verifies the gm table's drift-byte column only
// counts get_drift response legs.
func TestBytesGetDrift(t *testing.T) {
	cfg := Config{Protocol: SGM, Rebalance: RebalanceNone}
	sn := runNetwork(t, singleKeyStream(1000, 1), 0, cfg, 0.1)

	bytes := sn.BytesGetDrift()
	assert.Greater(t, bytes, int64(0))
	assert.Less(t, bytes, sn.Net.TotalBytes())
}
