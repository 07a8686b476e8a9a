package results

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Store persists result rows in a BoltDB file, one bucket per table,
// so runs can be compared later. Rows are stored as JSON objects keyed
// by run id and a sequence number.
type Store struct {
	db    *bolt.DB
	runID string
	seq   uint64
}

// NewStore opens (creating if needed) the results database at path and
// starts a new run with a fresh run id.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, t := range []Table{DatasetTable, CommTable, GMTable} {
			if _, err := tx.CreateBucketIfNotExists([]byte(t.Name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", t.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, runID: uuid.New().String()}, nil
}

// RunID identifies this run's rows in the database.
func (s *Store) RunID() string {
	return s.runID
}

// WriteRow implements Writer.
func (s *Store) WriteRow(t *Table, row []any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d values, schema has %d columns", t.Name, len(row), len(t.Columns))
	}
	obj := make(map[string]any, len(row)+1)
	obj["run_id"] = s.runID
	for i, col := range t.Columns {
		obj[col.Name] = row[i]
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	s.seq++
	key := make([]byte, 0, len(s.runID)+9)
	key = append(key, s.runID...)
	key = append(key, '/')
	key = binary.BigEndian.AppendUint64(key, s.seq)

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(t.Name)).Put(key, data)
	})
}

// Rows returns every row of a table for one run, in emission order.
func (s *Store) Rows(table, runID string) ([]map[string]any, error) {
	var out []map[string]any
	prefix := []byte(runID + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return fmt.Errorf("unknown table %s", table)
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix); k, v = c.Next() {
			var obj map[string]any
			if err := json.Unmarshal(v, &obj); err != nil {
				return fmt.Errorf("failed to unmarshal row: %w", err)
			}
			out = append(out, obj)
		}
		return nil
	})
	return out, err
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
