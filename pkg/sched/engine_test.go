package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRuleOrder verifies rules fire in insertion order.
func TestRuleOrder(t *testing.T) {
	e := NewEngine()
	var got []int
	e.On(Init, func() { got = append(got, 1) })
	e.On(Init, func() { got = append(got, 2) })
	e.On(Init, func() { got = append(got, 3) })

	e.Emit(Init)
	assert.Equal(t, []int{1, 2, 3}, got)
}

// TestRuleCondition verifies conditions gate actions.
func TestRuleCondition(t *testing.T) {
	e := NewEngine()
	armed := false
	fired := 0
	e.OnCond(Report, func() bool { return armed }, func() { fired++ })

	e.Emit(Report)
	assert.Equal(t, 0, fired)
	armed = true
	e.Emit(Report)
	assert.Equal(t, 1, fired)
}

// TestRuleAddedDuringDispatch verifies rules added mid-pass run in the
// same pass, after the adding rule completes.
func TestRuleAddedDuringDispatch(t *testing.T) {
	e := NewEngine()
	var got []string
	e.On(Init, func() {
		got = append(got, "first")
		e.On(Init, func() { got = append(got, "added") })
	})
	e.On(Init, func() { got = append(got, "second") })

	e.Emit(Init)
	assert.Equal(t, []string{"first", "second", "added"}, got)
}

// TestRuleCancelledDuringDispatch verifies a not-yet-visited rule
// cancelled mid-pass is skipped.
func TestRuleCancelledDuringDispatch(t *testing.T) {
	e := NewEngine()
	var got []string
	var victim *Rule
	e.On(Init, func() {
		got = append(got, "first")
		victim.Cancel()
	})
	victim = e.On(Init, func() { got = append(got, "victim") })
	e.On(Init, func() { got = append(got, "last") })

	e.Emit(Init)
	assert.Equal(t, []string{"first", "last"}, got)
}

// TestCancelIdempotent verifies a handle stays valid after
// cancellation and double-cancel is a no-op.
func TestCancelIdempotent(t *testing.T) {
	e := NewEngine()
	fired := 0
	r := e.On(Done, func() { fired++ })
	r.Cancel()
	r.Cancel()
	e.Emit(Done)
	e.Emit(Done)
	assert.Equal(t, 0, fired)
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "INIT", Init.String())
	assert.Equal(t, "START_RECORD", StartRecord.String())
	assert.Equal(t, "DONE", Done.String())
	assert.Equal(t, "UNKNOWN", Event(99).String())
}
