package actions

import (
	"encoding/binary"
	"fmt"

	"github.com/ncopa/ovs/attrs"
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// ExecuteSet dispatches a SET action's nested key attribute
// (execute_set_action). data is the nested attribute's raw payload;
// its shape depends on field.
func ExecuteSet(buf *packet.Buffer, key *flowkey.Key, field attrs.SetField, data []byte) error {
	switch field {
	case attrs.SetPriority:
		if len(data) < 4 {
			return ErrMalformedHeader
		}
		key.Phy.Priority = binary.LittleEndian.Uint32(data)
		return nil

	case attrs.SetSKBMark:
		if len(data) < 4 {
			return ErrMalformedHeader
		}
		key.Phy.SKBMark = binary.LittleEndian.Uint32(data)
		return nil

	case attrs.SetTunnelInfo:
		// Tunnel encap/decap interpretation is a Non-goal; the bytes
		// are carried through opaquely for the upcall path to use.
		key.EgressTunnelInfo = append([]byte(nil), data...)
		return nil

	case attrs.SetEthernet:
		if len(data) < 2*ethAddrLen {
			return ErrMalformedHeader
		}
		var k EthernetKey
		copy(k.Dst[:], data[0:6])
		copy(k.Src[:], data[6:12])
		return SetEthernet(buf, key, k)

	case attrs.SetIPv4:
		if len(data) < 12 {
			return ErrMalformedHeader
		}
		k := IPv4Key{
			Src: binary.BigEndian.Uint32(data[0:4]),
			Dst: binary.BigEndian.Uint32(data[4:8]),
			TOS: data[8],
			TTL: data[9],
		}
		return SetIPv4(buf, key, k)

	case attrs.SetIPv6:
		if len(data) < 40 {
			return ErrMalformedHeader
		}
		var k IPv6Key
		copy(k.Src[:], data[0:16])
		copy(k.Dst[:], data[16:32])
		k.Label = binary.BigEndian.Uint32(data[32:36])
		k.NextHeader = data[36]
		k.TClass = data[37]
		k.HopLimit = data[38]
		return SetIPv6(buf, key, k)

	case attrs.SetTCP:
		if len(data) < 4 {
			return ErrMalformedHeader
		}
		k := TCPKey{
			Src: binary.BigEndian.Uint16(data[0:2]),
			Dst: binary.BigEndian.Uint16(data[2:4]),
		}
		return SetTCP(buf, key, k)

	case attrs.SetUDP:
		if len(data) < 4 {
			return ErrMalformedHeader
		}
		k := UDPKey{
			Src: binary.BigEndian.Uint16(data[0:2]),
			Dst: binary.BigEndian.Uint16(data[2:4]),
		}
		return SetUDP(buf, key, k)

	case attrs.SetSCTP:
		if len(data) < 4 {
			return ErrMalformedHeader
		}
		k := SCTPKey{
			Src: binary.BigEndian.Uint16(data[0:2]),
			Dst: binary.BigEndian.Uint16(data[2:4]),
		}
		return SetSCTP(buf, key, k)

	case attrs.SetMPLS:
		if len(data) < 4 {
			return ErrMalformedHeader
		}
		return SetMPLS(buf, key, binary.BigEndian.Uint32(data))

	default:
		return fmt.Errorf("actions: unknown set field %d", field)
	}
}
