package network

import (
	"sort"

	"github.com/cuemby/drift/pkg/metrics"
	"github.com/cuemby/drift/pkg/types"
)

// HostID addresses a host on the simulated network. Sites use their
// source id; the coordinator hub uses CoordinatorAddr.
type HostID = int32

// CoordinatorAddr is the well-known address of the hub.
const CoordinatorAddr HostID = -1

// Payload is anything transmittable: it knows its simulated wire size.
type Payload interface {
	ByteSize() int
}

// Endpoint describes one logical RPC of a protocol.
type Endpoint struct {
	Name   string
	Oneway bool // no response leg; sender accrues only request bytes
}

type chanKey struct {
	src, dst HostID
	endpoint string
	response bool
}

// Channel accounts one directed (src, dst, endpoint) leg: the number
// of messages and bytes that crossed it.
type Channel struct {
	Src      HostID
	Dst      HostID
	Endpoint string
	Response bool
	Msgs     int64
	Bytes    int64

	net *Network
}

// Transmit tallies one message of n bytes on the channel.
func (c *Channel) Transmit(n int) {
	c.Msgs++
	c.Bytes += int64(n)
	metrics.MessagesTotal.WithLabelValues(c.net.Name, c.Endpoint).Inc()
	metrics.BytesTotal.WithLabelValues(c.net.Name, c.Endpoint).Add(float64(n))
}

// Network is the simulated star network: it owns every channel and
// tallies traffic per directed channel and per endpoint. No byte is
// attributed twice; aggregates are sums over channels.
type Network struct {
	Name     string
	Protocol string

	channels map[chanKey]*Channel
}

// New returns an empty network.
func New(name, protocol string) *Network {
	return &Network{
		Name:     name,
		Protocol: protocol,
		channels: make(map[chanKey]*Channel),
	}
}

// Channel returns (creating on first use) the directed channel for one
// leg of an endpoint.
func (n *Network) Channel(src, dst HostID, endpoint string, response bool) *Channel {
	k := chanKey{src, dst, endpoint, response}
	c, ok := n.channels[k]
	if !ok {
		c = &Channel{Src: src, Dst: dst, Endpoint: endpoint, Response: response, net: n}
		n.channels[k] = c
	}
	return c
}

// Send accounts a request leg and, for request/response endpoints, the
// response leg: both legs accrue bytes.
func (n *Network) Send(src, dst HostID, ep Endpoint, request Payload, response Payload) {
	n.Channel(src, dst, ep.Name, false).Transmit(payloadSize(request))
	if !ep.Oneway {
		n.Channel(dst, src, ep.Name, true).Transmit(payloadSize(response))
	}
}

func payloadSize(p Payload) int {
	if p == nil {
		return 0
	}
	return p.ByteSize()
}

// Channels returns every channel in a deterministic order.
func (n *Network) Channels() []*Channel {
	out := make([]*Channel, 0, len(n.channels))
	for _, c := range n.channels {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Src != b.Src {
			return a.Src < b.Src
		}
		if a.Dst != b.Dst {
			return a.Dst < b.Dst
		}
		if a.Endpoint != b.Endpoint {
			return a.Endpoint < b.Endpoint
		}
		return !a.Response && b.Response
	})
	return out
}

// TotalMsgs is the total message count across all channels.
func (n *Network) TotalMsgs() int64 {
	var t int64
	for _, c := range n.channels {
		t += c.Msgs
	}
	return t
}

// TotalBytes is the total byte count across all channels.
func (n *Network) TotalBytes() int64 {
	var t int64
	for _, c := range n.channels {
		t += c.Bytes
	}
	return t
}

// BytesWhere sums bytes over the channels matching the predicate,
// e.g. the response legs of one endpoint.
func (n *Network) BytesWhere(match func(*Channel) bool) int64 {
	var t int64
	for _, c := range n.channels {
		if match(c) {
			t += c.Bytes
		}
	}
	return t
}

// TrafficPct is total traffic as a percentage of the raw dataset
// volume.
func (n *Network) TrafficPct(m *types.Metadata) float64 {
	if m.Bytes() == 0 {
		return 0
	}
	return 100 * float64(n.TotalBytes()) / float64(m.Bytes())
}
