package source

import (
	"github.com/cuemby/drift/pkg/types"
)

// Dataset is a main-memory store of stream records.
type Dataset []types.Record

// Analyze folds the dataset into a metadata object.
func (ds Dataset) Analyze(m *types.Metadata) {
	for _, r := range ds {
		m.Observe(r)
	}
}

// BufferedSource replays a dataset. It can be rewound to replay the
// same data again, e.g. for a warmup prefix followed by the main feed.
type BufferedSource struct {
	data Dataset
	pos  int
}

// NewBuffered returns a source replaying ds from the start.
func NewBuffered(ds Dataset) *BufferedSource {
	return &BufferedSource{data: ds}
}

func (b *BufferedSource) Valid() bool       { return b.pos < len(b.data) }
func (b *BufferedSource) Get() types.Record { return b.data[b.pos] }

func (b *BufferedSource) Advance() error {
	if b.pos < len(b.data) {
		b.pos++
	}
	return nil
}

// Rewind restarts the source from the first record.
func (b *BufferedSource) Rewind() {
	b.pos = 0
}

// Dataset exposes the underlying record buffer.
func (b *BufferedSource) Dataset() Dataset {
	return b.data
}

// Materialize drains src into a dataset.
func Materialize(src Source) (Dataset, error) {
	var ds Dataset
	for src.Valid() {
		ds = append(ds, src.Get())
		if err := src.Advance(); err != nil {
			return nil, err
		}
	}
	return ds, nil
}
