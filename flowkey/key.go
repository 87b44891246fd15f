// Package flowkey defines the structured packet fingerprint mutated
// alongside header bytes by package actions, and consumed (read-only, as
// a lookup key) by the flow table — which lives outside this module, per
// spec.md §1.
package flowkey

// Ethernet mirrors sw_flow_key.eth.
type Ethernet struct {
	Src, Dst [6]byte
	TCI      uint16
	// Type is the flow key's validity flag: zero means "invalidated",
	// matching invalidate_flow_key()/is_flow_key_valid() in the original.
	Type uint16
}

// IP mirrors sw_flow_key.ip (the protocol-independent IP fields).
type IP struct {
	TOS uint8
	TTL uint8
}

type IPv4 struct {
	Src, Dst uint32
}

type IPv6 struct {
	Src, Dst [16]byte
	Label    uint32
}

// MPLS mirrors sw_flow_key.mpls.
type MPLS struct {
	TopLSE uint32
}

// Transport mirrors sw_flow_key.tp (shared by TCP/UDP/SCTP).
type Transport struct {
	Src, Dst uint16
}

// Phy mirrors sw_flow_key.phy.
type Phy struct {
	Priority uint32
	SKBMark  uint32
	InPort   uint32
}

// Key is the full flow key, sw_flow_key's Go analogue.
type Key struct {
	Eth  Ethernet
	IP   IP
	IPv4 IPv4
	IPv6 IPv6
	MPLS MPLS
	TP   Transport
	Phy  Phy

	RecircID uint32
	FlowHash uint32

	// EgressTunnelInfo is carried opaquely: tunnel encap/decap semantics
	// are a Non-goal (spec.md §1), so this engine never interprets it,
	// only passes it through from SET(TUNNEL_INFO) to the upcall path.
	EgressTunnelInfo []byte
}

// Invalidate marks the key as stale (invalidate_flow_key): the caller
// must re-extract it via KeyUpdater before anything that depends on it
// reads a field affected by the mutation that invalidated it.
func (k *Key) Invalidate() { k.Eth.Type = 0 }

// Valid reports whether the key still reflects the packet
// (is_flow_key_valid).
func (k *Key) Valid() bool { return k.Eth.Type != 0 }
