// Package actions implements the header-mutating and list-interpreting
// primitives of the action execution engine: one file per protocol
// (ethernet, vlan, mpls, ipv4, ipv6, tcp, udp, sctp) plus set.go's
// SET-action dispatch, each translating the matching function from
// original_source/datapath/actions.c onto package packet's Buffer and
// package flowkey's Key.
package actions

import (
	"errors"

	"github.com/google/gopacket/layers"
)

// ErrMalformedHeader is returned when a mutator is asked to rewrite a
// header field that isn't actually present at the expected offset
// (the packet is shorter than the layering the caller asserted).
var ErrMalformedHeader = errors.New("actions: malformed or truncated header")

const (
	ethAddrLen  = 6
	ethHLen     = 14 // dst(6) + src(6) + ethertype(2)
	vlanHLen    = 4  // TPID/TCI or TCI/encapsulated-proto, however framed
	vlanEthHLen = ethHLen + vlanHLen
	mplsHLen    = 4

	ipv4HdrLen = 20
	ipv6HdrLen = 40
	tcpHdrLen  = 20
	udpHdrLen  = 8
	sctpHdrLen = 12
)

// Ethertypes and IP protocol numbers are sourced from gopacket/layers
// rather than hand-copied, so the mutators can never drift from the
// values cmd/dpreplay's gopacket-based decode produces.
const (
	ethTypeIPv4       = uint16(layers.EthernetTypeIPv4)
	ethTypeIPv6       = uint16(layers.EthernetTypeIPv6)
	ethTypeVLAN       = uint16(layers.EthernetTypeDot1Q)
	ethTypeVLANDouble = uint16(layers.EthernetTypeQinQ)
	ethTypeMPLSUni    = uint16(layers.EthernetTypeMPLSUnicast)
	ethTypeMPLSMulti  = uint16(layers.EthernetTypeMPLSMulticast)

	ipProtoTCP  = uint8(layers.IPProtocolTCP)
	ipProtoUDP  = uint8(layers.IPProtocolUDP)
	ipProtoSCTP = uint8(layers.IPProtocolSCTP)
)

func isMPLSEthertype(t uint16) bool { return t == ethTypeMPLSUni || t == ethTypeMPLSMulti }
