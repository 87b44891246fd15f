package dp

import (
	"encoding/binary"
	"fmt"

	"github.com/ncopa/ovs/actions"
	"github.com/ncopa/ovs/attrs"
)

// Action-list payload layouts. Port/recirc ids and the hash basis are
// little-endian integers; header-shaped fields (ethertypes, the
// MPLS label stack entry, VLAN TCI/TPID) use network byte order, same
// as the header bytes they end up written into.

func decodeOutput(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("dp: short OUTPUT payload")
	}
	return binary.LittleEndian.Uint32(data), nil
}

func decodeHashBasis(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("dp: short HASH payload")
	}
	return binary.LittleEndian.Uint32(data), nil
}

func decodePushMPLS(data []byte) (actions.PushMPLSParams, error) {
	if len(data) < 6 {
		return actions.PushMPLSParams{}, fmt.Errorf("dp: short PUSH_MPLS payload")
	}
	return actions.PushMPLSParams{
		LSE:       binary.BigEndian.Uint32(data[0:4]),
		Ethertype: binary.BigEndian.Uint16(data[4:6]),
	}, nil
}

func decodePopMPLS(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("dp: short POP_MPLS payload")
	}
	return binary.BigEndian.Uint16(data[0:2]), nil
}

func decodePushVLAN(data []byte) (actions.PushVLANParams, error) {
	if len(data) < 4 {
		return actions.PushVLANParams{}, fmt.Errorf("dp: short PUSH_VLAN payload")
	}
	return actions.PushVLANParams{
		TPID: binary.BigEndian.Uint16(data[0:2]),
		TCI:  binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

func decodeRecircID(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("dp: short RECIRC payload")
	}
	return binary.LittleEndian.Uint32(data), nil
}

// decodeSet splits a SET action's single nested key attribute into
// its field selector and payload.
func decodeSet(data []byte) (attrs.SetField, []byte, error) {
	c := attrs.NewCursor(attrs.NewList(data))
	a, ok := c.Next()
	if !ok {
		if err := c.Err(); err != nil {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("dp: empty SET payload")
	}
	return attrs.SetField(a.Opcode), a.Data, nil
}
