package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drift/pkg/sketch"
	"github.com/cuemby/drift/pkg/types"
)

func testProjection() *sketch.Projection {
	return sketch.NewProjection(5, 16, 42)
}

func TestNewValidates(t *testing.T) {
	proj := testProjection()

	_, err := New(types.QuerySpec{Kind: "bogus"}, proj, 0.1, true)
	assert.Error(t, err)

	_, err = New(types.QuerySpec{Kind: types.TwowayJoin, Stream1: 3, Stream2: 3}, proj, 0.1, true)
	assert.Error(t, err)

	q, err := New(types.QuerySpec{Kind: types.SelfJoin, Stream: 1}, proj, 0.1, true)
	require.NoError(t, err)
	assert.Equal(t, proj.Size(), q.StateVectorSize())
}

// TestDeltaUpdateSelfJoin covers stream filtering: records of other
// streams leave the state untouched and return an empty delta.
func TestDeltaUpdateSelfJoin(t *testing.T) {
	proj := testProjection()
	q, err := New(types.QuerySpec{Kind: types.SelfJoin, Stream: 1}, proj, 0.1, true)
	require.NoError(t, err)

	s := sketch.NewVec(q.StateVectorSize())

	delta := q.DeltaUpdate(s, types.Record{SID: 1, Key: 42, Op: types.Insert})
	assert.Len(t, delta.Entries, proj.Depth)

	delta = q.DeltaUpdate(s, types.Record{SID: 2, Key: 42, Op: types.Insert})
	assert.True(t, delta.Empty())
	assert.False(t, q.Update(s, types.Record{SID: 9, Key: 1, Op: types.Insert}))
}

// TestDeltaUpdateTwowayHalves verifies each stream updates exactly its
// half of the concatenated state vector.
func TestDeltaUpdateTwowayHalves(t *testing.T) {
	proj := testProjection()
	q, err := New(types.QuerySpec{Kind: types.TwowayJoin, Stream1: 1, Stream2: 2}, proj, 0.1, true)
	require.NoError(t, err)

	half := proj.Size()
	s := sketch.NewVec(q.StateVectorSize())
	require.Equal(t, 2*half, len(s))

	d1 := q.DeltaUpdate(s, types.Record{SID: 1, Key: 7, Op: types.Insert})
	require.Len(t, d1.Entries, proj.Depth)
	for _, e := range d1.Entries {
		assert.Less(t, e.Index, half)
	}

	d2 := q.DeltaUpdate(s, types.Record{SID: 2, Key: 7, Op: types.Insert})
	require.Len(t, d2.Entries, proj.Depth)
	for _, e := range d2.Entries {
		assert.GreaterOrEqual(t, e.Index, half)
	}
}

// TestEstimateTwoway verifies the join estimate on identical halves
// equals the self-join of one half.
func TestEstimateTwoway(t *testing.T) {
	proj := testProjection()
	q, err := New(types.QuerySpec{Kind: types.TwowayJoin, Stream1: 1, Stream2: 2}, proj, 0.1, true)
	require.NoError(t, err)

	s := sketch.NewVec(q.StateVectorSize())
	for i := 0; i < 100; i++ {
		q.Update(s, types.Record{SID: 1, Key: 5, Op: types.Insert})
		q.Update(s, types.Record{SID: 2, Key: 5, Op: types.Insert})
	}
	assert.InDelta(t, 100.0*100.0, q.Estimate(s), 1e-9)
}

// TestStateLifecycle verifies the query state starts at zero, folds
// mean drifts into the reference, and keeps an admissible zone.
func TestStateLifecycle(t *testing.T) {
	proj := testProjection()
	q, err := New(types.QuerySpec{Kind: types.SelfJoin, Stream: 0}, proj, 0.1, true)
	require.NoError(t, err)

	st := q.NewState(1)
	assert.Equal(t, 0.0, st.Qest)
	assert.Greater(t, st.Zeta(sketch.NewVec(q.StateVectorSize())), 0.0)

	drift := sketch.NewVec(q.StateVectorSize())
	for i := 0; i < 200; i++ {
		q.Update(drift, types.Record{SID: 0, Key: uint32(i % 10), Op: types.Insert})
	}
	st.UpdateEstimate(drift)
	assert.InDelta(t, q.Estimate(drift), st.Qest, 1e-9)
	assert.Greater(t, st.Zeta(sketch.NewVec(q.StateVectorSize())), 0.0)
}

// TestStateScalesEstimateToSites verifies the reported estimate covers
// the union of the site streams: E is the mean local state and the
// quadratic query scales with the square of the site count.
func TestStateScalesEstimateToSites(t *testing.T) {
	proj := testProjection()
	q, err := New(types.QuerySpec{Kind: types.SelfJoin, Stream: 0}, proj, 0.1, true)
	require.NoError(t, err)

	mean := sketch.NewVec(q.StateVectorSize())
	for i := 0; i < 100; i++ {
		q.Update(mean, types.Record{SID: 0, Key: 42, Op: types.Insert})
	}

	st := q.NewState(2)
	st.UpdateEstimate(mean)
	assert.InDelta(t, 4*q.Estimate(mean), st.Qest, 1e-6)
}

func TestMaxError(t *testing.T) {
	proj := testProjection()
	q, err := New(types.QuerySpec{Kind: types.SelfJoin, Stream: 0}, proj, 0.1, true)
	require.NoError(t, err)
	assert.Greater(t, q.MaxError(), proj.Epsilon())
}
