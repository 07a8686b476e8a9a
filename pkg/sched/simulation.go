package sched

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/cuemby/drift/pkg/log"
	"github.com/cuemby/drift/pkg/metrics"
	"github.com/cuemby/drift/pkg/source"
	"github.com/cuemby/drift/pkg/types"
)

// Simulation is the top-level orchestrator of one run: the rule
// engine, the data feed, the warmup buffer, the current record, and
// the named random generator every component seeds from. Tests can
// instantiate several independent simulations in one process.
type Simulation struct {
	*Engine

	Meta   types.Metadata
	Warmup source.Dataset

	feed        source.Source
	rec         types.Record
	inRecord    bool
	streamCount int64

	rng     *rand.Rand
	closers []io.Closer
}

// New returns an empty simulation whose shuffles and other
// pseudo-random choices derive from seed.
func New(seed int64) *Simulation {
	return &Simulation{
		Engine: NewEngine(),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// RNG is the simulation's named random generator. No component draws
// from system entropy; two runs with the same seed and inputs produce
// identical traces.
func (s *Simulation) RNG() *rand.Rand {
	return s.rng
}

// Record returns the record currently being dispatched. It is only
// meaningful during a StartRecord or EndRecord pass.
func (s *Simulation) Record() types.Record {
	return s.rec
}

// InRecord reports whether a record is currently being dispatched.
func (s *Simulation) InRecord() bool {
	return s.inRecord
}

// StreamCount is the number of records dispatched so far.
func (s *Simulation) StreamCount() int64 {
	return s.streamCount
}

// LoadDataset materializes src, analyzes its metadata, splits off the
// first warmup records into the warmup buffer, and installs the rest
// as the simulation feed.
func (s *Simulation) LoadDataset(name string, src source.Source, warmup int) error {
	ds, err := source.Materialize(src)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", name, err)
	}
	return s.LoadRecords(name, ds, warmup)
}

// LoadRecords installs an already-materialized dataset.
func (s *Simulation) LoadRecords(name string, ds source.Dataset, warmup int) error {
	if warmup > len(ds) {
		return fmt.Errorf("dataset %s: warmup %d exceeds dataset size %d", name, warmup, len(ds))
	}
	s.Meta = types.Metadata{Name: name, Warmup: warmup}
	ds.Analyze(&s.Meta)
	s.Warmup = ds[:warmup]
	s.feed = source.NewBuffered(ds[warmup:])
	return nil
}

// Register adds a result file (or any resource) to be closed on
// teardown, on every execution path.
func (s *Simulation) Register(c io.Closer) {
	s.closers = append(s.closers, c)
}

// Close releases every registered resource. It is safe to call more
// than once.
func (s *Simulation) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// Run executes the main loop: INIT, START_STREAM, one
// START_RECORD/END_RECORD pair per record, END_STREAM, REPORT,
// RESULTS, DONE. Registered resources are released on every path.
func (s *Simulation) Run() (err error) {
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if s.feed == nil {
		return fmt.Errorf("simulation has no dataset loaded")
	}

	s.Emit(Init)
	s.Emit(StartStream)
	for s.feed.Valid() {
		s.rec = s.feed.Get()
		s.inRecord = true
		s.streamCount++
		metrics.RecordsTotal.Inc()
		s.Emit(StartRecord)
		s.Emit(EndRecord)
		s.inRecord = false
		if aerr := s.feed.Advance(); aerr != nil {
			logger := log.WithComponent("scheduler")
			logger.Error().Err(aerr).Int64("ts", s.rec.TS).Msg("data source failed")
			return fmt.Errorf("data source error at ts %d: %w", s.rec.TS, aerr)
		}
	}
	s.Emit(EndStream)
	s.Emit(Report)
	s.Emit(Results)
	s.Emit(Done)
	return nil
}
