// Package attrs implements the action list's wire representation: an
// ordered netlink-attribute-shaped stream of (opcode, payload) pairs,
// exactly as produced by the (out-of-scope, per spec.md §1) flow table.
package attrs

// Opcode is an action list attribute type, stable per spec.md §6.
type Opcode uint16

const (
	Output Opcode = 1 + iota
	Userspace
	Set
	PushVLAN
	PopVLAN
	Sample
	Recirc
	Hash
	PushMPLS
	PopMPLS
)

func (o Opcode) String() string {
	switch o {
	case Output:
		return "OUTPUT"
	case Userspace:
		return "USERSPACE"
	case Set:
		return "SET"
	case PushVLAN:
		return "PUSH_VLAN"
	case PopVLAN:
		return "POP_VLAN"
	case Sample:
		return "SAMPLE"
	case Recirc:
		return "RECIRC"
	case Hash:
		return "HASH"
	case PushMPLS:
		return "PUSH_MPLS"
	case PopMPLS:
		return "POP_MPLS"
	default:
		return "UNKNOWN"
	}
}

// SetField is the nested attribute type carried by a SET action,
// identifying which key_update-maintained field to write.
type SetField uint16

const (
	SetPriority SetField = 1 + iota
	SetSKBMark
	SetTunnelInfo
	SetEthernet
	SetIPv4
	SetIPv6
	SetTCP
	SetUDP
	SetSCTP
	SetMPLS
)

// UserspaceField is a sub-attribute of a USERSPACE action.
type UserspaceField uint16

const (
	UserspaceUserData UserspaceField = 1 + iota
	UserspacePID
	UserspaceEgressTunPort
)

// SampleField is a sub-attribute of a SAMPLE action.
type SampleField uint16

const (
	SampleProbability SampleField = 1 + iota
	SampleActions
)
