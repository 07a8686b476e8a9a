package results

import (
	"github.com/cuemby/drift/pkg/log"
	"github.com/cuemby/drift/pkg/protocol"
	"github.com/cuemby/drift/pkg/sched"
)

// Reporter binds result emission to the simulation's RESULTS event.
// Watched tables emit one row per run, in watch order, to every
// attached writer.
type Reporter struct {
	sim     *sched.Simulation
	writers []Writer
	rules   []*sched.Rule
}

// NewReporter attaches a reporter to sim. The writers are registered
// on the simulation so they are flushed and closed on teardown, on
// every execution path.
func NewReporter(sim *sched.Simulation, writers ...Writer) *Reporter {
	r := &Reporter{sim: sim, writers: writers}
	for _, w := range writers {
		sim.Register(w)
	}
	r.rules = append(r.rules, sim.On(sched.Done, r.teardown))
	return r
}

func (r *Reporter) emit(t *Table, row []any) {
	for _, w := range r.writers {
		if err := w.WriteRow(t, row); err != nil {
			log.Errorf("failed to write result row", err)
		}
	}
}

// WatchDataset emits the dataset table row on RESULTS.
func (r *Reporter) WatchDataset() {
	r.rules = append(r.rules, r.sim.On(sched.Results, func() {
		r.emit(&DatasetTable, DatasetRow(&r.sim.Meta))
	}))
}

// WatchNetwork emits the comm and gm table rows for one monitoring
// network on RESULTS.
func (r *Reporter) WatchNetwork(sn *protocol.StarNetwork) {
	r.rules = append(r.rules, r.sim.On(sched.Results, func() {
		r.emit(&CommTable, CommRow(sn.Net, &r.sim.Meta))
		r.emit(&GMTable, GMRow(sn))
	}))
}

func (r *Reporter) teardown() {
	for _, rule := range r.rules {
		rule.Cancel()
	}
	r.rules = nil
}
