package protocol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drift/pkg/exact"
	"github.com/cuemby/drift/pkg/query"
	"github.com/cuemby/drift/pkg/sched"
	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/source"
	"github.com/cuemby/drift/pkg/types"
)

// TestTwowayJoinConverges monitors a two-way join over independent
// Zipfian streams and compares the final estimate against the exact
// join size, within the projection's probabilistic accuracy.
func TestTwowayJoinConverges(t *testing.T) {
	ds := source.Generate(source.GenSpec{
		Records: 20000, // 10^4 per stream
		Streams: 2,
		Sources: 2,
		Keys:    1000,
		Zipf:    1.3,
		Seed:    5,
	})

	sim := sched.New(5)
	require.NoError(t, sim.LoadRecords("zipf", ds, 200))

	proj := sketch.NewProjection(9, 1024, 11)
	q, err := query.New(types.QuerySpec{Kind: types.TwowayJoin, Stream1: 0, Stream2: 1}, proj, 0.1, true)
	require.NoError(t, err)

	sn, err := NewStarNetwork(sim, "zipf", q, Config{Protocol: SGM, Rebalance: RebalanceRandom})
	require.NoError(t, err)

	join := exact.NewTwowayJoin(sim, 0, 1)
	sj1 := exact.NewSelfJoin(sim, 0)
	sj2 := exact.NewSelfJoin(sim, 1)

	require.NoError(t, sim.Run())

	truth := join.Estimate()
	bound := 2 * proj.Epsilon() * math.Sqrt(sj1.Estimate()*sj2.Estimate())
	assert.InDelta(t, truth, sn.Proto.State().Qest, bound,
		"estimate %g vs exact join %g", sn.Proto.State().Qest, truth)
	assert.GreaterOrEqual(t, sn.Proto.Stats().Rounds, int64(1))
}
