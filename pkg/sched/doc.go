/*
Package sched is the deterministic streaming scheduler: the event loop
that drives a simulation and the rule engine components subscribe to.

The model is strictly single-threaded and cooperative. A Simulation
owns a data feed and emits a fixed set of lifecycle events (INIT,
START_STREAM, START_RECORD, END_RECORD, END_STREAM, REPORT, RESULTS,
DONE); components bind rules (event, optional condition, action) at
construction and cancel their handles on teardown. Within one event,
rules fire in insertion order; rules added during a pass run in the
same pass after the rule that added them completes; cancelled rules
are skipped if not yet visited.

Nothing may suspend the loop: simulated remote interactions are plain
function calls, and a local violation raised while a record is being
dispatched is fully handled before the next record.
*/
package sched
