package results

import (
	"github.com/cuemby/drift/pkg/network"
	"github.com/cuemby/drift/pkg/protocol"
	"github.com/cuemby/drift/pkg/types"
)

// Column describes one result-table column.
type Column struct {
	Name string
}

// Table is a named column schema.
type Table struct {
	Name    string
	Columns []Column
}

func cols(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n}
	}
	return out
}

// The result tables drift emits on the RESULTS event.
var (
	DatasetTable = Table{
		Name: "dataset",
		Columns: cols("dset_name", "dset_window", "dset_warmup", "dset_size",
			"dset_duration", "dset_streams", "dset_hosts", "dset_bytes"),
	}

	CommTable = Table{
		Name:    "comm",
		Columns: cols("total_msg", "total_bytes", "traffic_pct"),
	}

	GMTable = Table{
		Name: "gm",
		Columns: cols("name", "protocol", "max_error", "statevec_size",
			"sites", "sid", "rounds", "subrounds", "sz_sent",
			"total_rbl_size", "bytes_get_drift"),
	}
)

// DatasetRow fills the dataset table from the loaded metadata.
func DatasetRow(m *types.Metadata) []any {
	return []any{
		m.Name, m.Window, m.Warmup, m.Size,
		m.Duration(), len(m.StreamIDs()), len(m.SourceIDs()), m.Bytes(),
	}
}

// CommRow fills the comm table from one network's traffic totals.
func CommRow(net *network.Network, m *types.Metadata) []any {
	return []any{net.TotalMsgs(), net.TotalBytes(), net.TrafficPct(m)}
}

// GMRow fills the gm table from one monitoring network.
func GMRow(sn *protocol.StarNetwork) []any {
	st := sn.Proto.Stats()
	streams := sn.Q.Streams()
	return []any{
		sn.Name,
		sn.Net.Protocol,
		sn.Q.MaxError(),
		sn.Q.StateVectorSize(),
		len(sn.Nodes),
		streams[0],
		st.Rounds,
		st.Subrounds,
		st.SzSent,
		st.TotalRblSize,
		sn.BytesGetDrift(),
	}
}
