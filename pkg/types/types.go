package types

import "fmt"

// Timestamp is the logical time of a stream record. Records arrive in
// non-decreasing timestamp order.
type Timestamp = int64

// StreamID identifies a logical stream within the dataset.
type StreamID = int32

// SourceID identifies the site (host) that owns a record.
type SourceID = int32

// Key is the attribute value a sketch update hashes on.
type Key = uint32

// Op is the operation carried by a record.
type Op int8

const (
	Insert Op = iota
	Delete
)

// Weight returns the signed contribution of the operation to a frequency.
func (op Op) Weight() float64 {
	if op == Delete {
		return -1.0
	}
	return 1.0
}

func (op Op) String() string {
	switch op {
	case Insert:
		return "INSERT"
	case Delete:
		return "DELETE"
	default:
		return fmt.Sprintf("Op(%d)", int8(op))
	}
}

// Record is a single stream tuple.
type Record struct {
	TS  Timestamp
	SID StreamID
	HID SourceID
	Key Key
	Op  Op
}

func (r Record) String() string {
	return fmt.Sprintf("<%d sid=%d hid=%d key=%d %s>", r.TS, r.SID, r.HID, r.Key, r.Op)
}

// LocalStreamID identifies one local stream: the records of one stream
// observed at one site.
type LocalStreamID struct {
	SID StreamID
	HID SourceID
}

// RecordWireSize is the byte size of one record on the wire.
const RecordWireSize = 20

// Metadata describes a dataset: its extent in time, its size, and the
// stream and source ids it contains. It is collected by analyzing a
// source before the simulation runs.
type Metadata struct {
	Name    string
	Size    int
	TSStart Timestamp
	TSEnd   Timestamp
	Window  Timestamp
	Warmup  int

	streams map[StreamID]struct{}
	sources map[SourceID]struct{}
	ordered bool
	sids    []StreamID
	hids    []SourceID
}

// Observe folds one record into the metadata.
func (m *Metadata) Observe(r Record) {
	if m.streams == nil {
		m.streams = make(map[StreamID]struct{})
		m.sources = make(map[SourceID]struct{})
	}
	if m.Size == 0 || r.TS < m.TSStart {
		m.TSStart = r.TS
	}
	if m.Size == 0 || r.TS > m.TSEnd {
		m.TSEnd = r.TS
	}
	m.Size++
	if _, ok := m.streams[r.SID]; !ok {
		m.streams[r.SID] = struct{}{}
		m.ordered = false
	}
	if _, ok := m.sources[r.HID]; !ok {
		m.sources[r.HID] = struct{}{}
		m.ordered = false
	}
}

func (m *Metadata) sort() {
	if m.ordered {
		return
	}
	m.sids = m.sids[:0]
	for s := range m.streams {
		m.sids = append(m.sids, s)
	}
	m.hids = m.hids[:0]
	for h := range m.sources {
		m.hids = append(m.hids, h)
	}
	// insertion sort, the id sets are tiny
	for i := 1; i < len(m.sids); i++ {
		for j := i; j > 0 && m.sids[j] < m.sids[j-1]; j-- {
			m.sids[j], m.sids[j-1] = m.sids[j-1], m.sids[j]
		}
	}
	for i := 1; i < len(m.hids); i++ {
		for j := i; j > 0 && m.hids[j] < m.hids[j-1]; j-- {
			m.hids[j], m.hids[j-1] = m.hids[j-1], m.hids[j]
		}
	}
	m.ordered = true
}

// StreamIDs returns the stream ids present in the dataset, ascending.
func (m *Metadata) StreamIDs() []StreamID {
	m.sort()
	return m.sids
}

// SourceIDs returns the source ids present in the dataset, ascending.
func (m *Metadata) SourceIDs() []SourceID {
	m.sort()
	return m.hids
}

// Duration is the timestamp extent of the dataset.
func (m *Metadata) Duration() Timestamp {
	if m.Size == 0 {
		return 0
	}
	return m.TSEnd - m.TSStart
}

// Bytes is the raw size of the dataset on the wire, used as the
// denominator of traffic percentages.
func (m *Metadata) Bytes() int64 {
	return int64(m.Size) * RecordWireSize
}

// QueryKind selects the aggregate a continuous query monitors.
type QueryKind string

const (
	SelfJoin   QueryKind = "self_join"
	TwowayJoin QueryKind = "twoway_join"
)

// QuerySpec describes a continuous query over dataset streams.
type QuerySpec struct {
	Kind    QueryKind
	Stream  StreamID // self-join
	Stream1 StreamID // two-way join
	Stream2 StreamID
}

// Streams returns the stream ids the query touches.
func (q QuerySpec) Streams() []StreamID {
	if q.Kind == TwowayJoin {
		return []StreamID{q.Stream1, q.Stream2}
	}
	return []StreamID{q.Stream}
}

// Validate reports configuration errors in the query spec.
func (q QuerySpec) Validate() error {
	switch q.Kind {
	case SelfJoin:
		return nil
	case TwowayJoin:
		if q.Stream1 == q.Stream2 {
			return fmt.Errorf("twoway_join: stream1 and stream2 are both %d", q.Stream1)
		}
		return nil
	default:
		return fmt.Errorf("unknown query type %q", q.Kind)
	}
}

func (q QuerySpec) String() string {
	if q.Kind == TwowayJoin {
		return fmt.Sprintf("twoway_join(%d,%d)", q.Stream1, q.Stream2)
	}
	return fmt.Sprintf("self_join(%d)", q.Stream)
}
