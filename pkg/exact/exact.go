package exact

import (
	"github.com/cuemby/drift/pkg/sched"
	"github.com/cuemby/drift/pkg/types"
)

// histogram is a frequency vector over keys.
type histogram map[types.Key]float64

func (h histogram) add(key types.Key, w float64) {
	h[key] += w
	if h[key] == 0 {
		delete(h, key)
	}
}

// SelfJoin tracks the exact self-join size of one stream, as a
// reference against sketched estimates. It consumes the warmup prefix
// at INIT and every owned record thereafter.
type SelfJoin struct {
	SID types.StreamID

	hist  histogram
	est   float64
	rules []*sched.Rule
}

// NewSelfJoin attaches an exact self-join reference to sim.
func NewSelfJoin(sim *sched.Simulation, sid types.StreamID) *SelfJoin {
	m := &SelfJoin{SID: sid, hist: make(histogram)}
	m.rules = append(m.rules,
		sim.On(sched.Init, func() {
			for _, rec := range sim.Warmup {
				m.process(rec)
			}
		}),
		sim.On(sched.StartRecord, func() {
			m.process(sim.Record())
		}),
		sim.On(sched.Done, m.teardown),
	)
	return m
}

// process folds one record, maintaining sum f_k^2 incrementally.
func (m *SelfJoin) process(rec types.Record) {
	if rec.SID != m.SID {
		return
	}
	old := m.hist[rec.Key]
	m.hist.add(rec.Key, rec.Op.Weight())
	nw := m.hist[rec.Key]
	m.est += nw*nw - old*old
}

// Estimate is the current exact self-join size.
func (m *SelfJoin) Estimate() float64 {
	return m.est
}

func (m *SelfJoin) teardown() {
	for _, r := range m.rules {
		r.Cancel()
	}
	m.rules = nil
}

// TwowayJoin tracks the exact join size of two streams.
type TwowayJoin struct {
	SID1, SID2 types.StreamID

	hist1 histogram
	hist2 histogram
	est   float64
	rules []*sched.Rule
}

// NewTwowayJoin attaches an exact two-way join reference to sim.
func NewTwowayJoin(sim *sched.Simulation, s1, s2 types.StreamID) *TwowayJoin {
	m := &TwowayJoin{SID1: s1, SID2: s2, hist1: make(histogram), hist2: make(histogram)}
	m.rules = append(m.rules,
		sim.On(sched.Init, func() {
			for _, rec := range sim.Warmup {
				m.process(rec)
			}
		}),
		sim.On(sched.StartRecord, func() {
			m.process(sim.Record())
		}),
		sim.On(sched.Done, m.teardown),
	)
	return m
}

// process folds one record, maintaining sum f1_k*f2_k incrementally.
func (m *TwowayJoin) process(rec types.Record) {
	switch rec.SID {
	case m.SID1:
		m.est += rec.Op.Weight() * m.hist2[rec.Key]
		m.hist1.add(rec.Key, rec.Op.Weight())
	case m.SID2:
		m.est += rec.Op.Weight() * m.hist1[rec.Key]
		m.hist2.add(rec.Key, rec.Op.Weight())
	}
}

// Estimate is the current exact join size.
func (m *TwowayJoin) Estimate() float64 {
	return m.est
}

func (m *TwowayJoin) teardown() {
	for _, r := range m.rules {
		r.Cancel()
	}
	m.rules = nil
}
