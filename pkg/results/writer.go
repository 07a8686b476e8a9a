package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Writer receives emitted result rows. Implementations must be safe to
// Close more than once.
type Writer interface {
	WriteRow(t *Table, row []any) error
	Close() error
}

// formatValue renders one cell deterministically.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', 10, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// CSVWriter writes each table as a CSV section: a header line naming
// the table and its columns, then one line per row.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
	headed map[string]bool
}

// NewCSVWriter writes to out; if out is also an io.Closer it is closed
// with the writer.
func NewCSVWriter(out io.Writer) *CSVWriter {
	c, _ := out.(io.Closer)
	return &CSVWriter{w: csv.NewWriter(out), closer: c, headed: make(map[string]bool)}
}

func (c *CSVWriter) WriteRow(t *Table, row []any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %s: row has %d values, schema has %d columns", t.Name, len(row), len(t.Columns))
	}
	if !c.headed[t.Name] {
		header := make([]string, 0, len(t.Columns)+1)
		header = append(header, "#"+t.Name)
		for _, col := range t.Columns {
			header = append(header, col.Name)
		}
		if err := c.w.Write(header); err != nil {
			return err
		}
		c.headed[t.Name] = true
	}
	cells := make([]string, 0, len(row)+1)
	cells = append(cells, t.Name)
	for _, v := range row {
		cells = append(cells, formatValue(v))
	}
	return c.w.Write(cells)
}

func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	if c.closer != nil {
		err := c.closer.Close()
		c.closer = nil
		return err
	}
	return nil
}
