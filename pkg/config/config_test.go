package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drift/pkg/protocol"
	"github.com/cuemby/drift/pkg/types"
)

const sampleYAML = `
name: demo
seed: 7
dataset:
  generate:
    records: 1000
    streams: 1
    sources: 2
    keys: 100
  warmup: 100
query:
  type: self_join
  stream: 0
projection:
  depth: 5
  width: 16
  seed: 42
protocol:
  name: SGM
rebalance_algorithm: random
theta: 0.1
`

func TestParseValid(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, types.SelfJoin, cfg.QuerySpec().Kind)
	assert.True(t, cfg.Eikonal(), "eikonal defaults to true")

	pc := cfg.ProtocolConfig()
	assert.Equal(t, protocol.SGM, pc.Protocol)
	assert.Equal(t, protocol.RebalanceRandom, pc.Rebalance)
	assert.True(t, pc.UseCostModel, "use_cost_model defaults to true")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing name", yaml: "theta: 0.1"},
		{name: "unknown field", yaml: sampleYAML + "\nbogus: 1\n"},
		{
			name: "unknown protocol",
			yaml: `
name: x
dataset: {generate: {records: 10, streams: 1, sources: 1, keys: 10}}
query: {type: self_join, stream: 0}
projection: {depth: 3, width: 8, seed: 1}
protocol: {name: TCP}
theta: 0.1
`,
		},
		{
			name: "twoway join on one stream",
			yaml: `
name: x
dataset: {generate: {records: 10, streams: 2, sources: 1, keys: 10}}
query: {type: twoway_join, stream1: 3, stream2: 3}
projection: {depth: 3, width: 8, seed: 1}
protocol: {name: SGM}
theta: 0.1
`,
		},
		{
			name: "zero theta",
			yaml: `
name: x
dataset: {generate: {records: 10, streams: 1, sources: 1, keys: 10}}
query: {type: self_join, stream: 0}
projection: {depth: 3, width: 8, seed: 1}
protocol: {name: SGM}
theta: 0
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestAssemble(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	sim, sn, err := Assemble(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1000, sim.Meta.Size)
	assert.Equal(t, 100, sim.Meta.Warmup)
	assert.Len(t, sn.Nodes, 2)
}
