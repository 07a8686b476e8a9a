package sched

// Condition is a nullary predicate guarding a rule.
type Condition func() bool

// Action is the body of a rule.
type Action func()

// Rule is a live (event, condition, action) binding. The handle stays
// valid after cancellation; cancelling twice is a no-op.
type Rule struct {
	event     Event
	cond      Condition
	action    Action
	cancelled bool
}

// Cancel removes the rule from dispatch. If the rule has not yet been
// visited in an in-flight Emit pass, it is skipped.
func (r *Rule) Cancel() {
	r.cancelled = true
}

// Engine is the rule registry and dispatcher. Per event it keeps an
// ordered sequence of live rules; Emit fires them in insertion order.
// Rules added during a pass run in the same pass, after the rule that
// added them completes. Strictly single-threaded.
type Engine struct {
	rules [numEvents][]*Rule
}

// NewEngine returns an empty rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// On subscribes an unconditional rule and returns its handle.
func (e *Engine) On(ev Event, action Action) *Rule {
	return e.OnCond(ev, nil, action)
}

// OnCond subscribes a conditional rule and returns its handle.
func (e *Engine) OnCond(ev Event, cond Condition, action Action) *Rule {
	r := &Rule{event: ev, cond: cond, action: action}
	e.rules[ev] = append(e.rules[ev], r)
	return r
}

// Emit fires every live rule bound to ev, in insertion order. Indexed
// iteration makes rules appended mid-pass visible in the same pass.
func (e *Engine) Emit(ev Event) {
	for i := 0; i < len(e.rules[ev]); i++ {
		r := e.rules[ev][i]
		if r.cancelled {
			continue
		}
		if r.cond != nil && !r.cond() {
			continue
		}
		r.action()
	}
	e.compact(ev)
}

// compact drops cancelled rules between passes.
func (e *Engine) compact(ev Event) {
	live := e.rules[ev][:0]
	for _, r := range e.rules[ev] {
		if !r.cancelled {
			live = append(live, r)
		}
	}
	e.rules[ev] = live
}
