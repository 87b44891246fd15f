package actions

import (
	"encoding/binary"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// PushVLANParams carries a PUSH_VLAN action's payload (struct
// ovs_action_push_vlan): TPID identifies 802.1Q vs 802.1ad, TCI is the
// tag control info with the "present" bit already masked off.
type PushVLANParams struct {
	TPID uint16
	TCI  uint16
}

// PushVLAN sets the packet's VLAN tag (push_vlan). If a tag is already
// present in the out-of-band hardware-accel slot, that tag is first
// pushed into the in-packet header to make room for the new one;
// otherwise the new tag is recorded directly in the flow key.
func PushVLAN(buf *packet.Buffer, key *flowkey.Key, p PushVLANParams) error {
	if buf.VLAN.Present {
		if err := insertVLANHeader(buf, buf.VLAN.TPID, buf.VLAN.TCI); err != nil {
			return err
		}
		buf.MacLen += vlanHLen

		key.Invalidate()
	} else {
		key.Eth.TCI = p.TCI
	}

	buf.VLAN = packet.VLANTag{Present: true, TPID: p.TPID, TCI: p.TCI}
	return nil
}

// insertVLANHeader pushes the hardware-accel tag into the in-packet
// header to make room for a new one (__vlan_put_tag). A failed push
// here is the one documented exception to "mutators never free the
// packet on error": pushing down an already-present tag has no
// rollback path once started, so the buffer is freed before returning,
// wrapped in *packet.AlreadyFreed so the executor does not free it
// again.
func insertVLANHeader(buf *packet.Buffer, tpid, tci uint16) error {
	region, err := buf.PushFront(vlanHLen)
	if err != nil {
		buf.Free()
		return &packet.AlreadyFreed{Err: err}
	}
	data := buf.Bytes()
	if len(data) < vlanHLen+2*ethAddrLen {
		return ErrMalformedHeader
	}
	copy(region[:2*ethAddrLen], data[vlanHLen:vlanHLen+2*ethAddrLen])
	binary.BigEndian.PutUint16(data[2*ethAddrLen:2*ethAddrLen+2], tpid)
	binary.BigEndian.PutUint16(data[2*ethAddrLen+2:2*ethAddrLen+4], tci)

	if buf.ChecksumMode == packet.ChecksumComplete {
		buf.Csum = packet.AddSum(buf.Csum, packet.PartialSum(data[2*ethAddrLen:2*ethAddrLen+vlanHLen], 0))
	}
	return nil
}

// PopVLAN removes a VLAN tag (pop_vlan): from the hardware-accel slot
// if one is present there, otherwise from the in-packet header,
// promoting any still-stacked inner tag into the hardware-accel slot.
func PopVLAN(buf *packet.Buffer, key *flowkey.Key) error {
	if buf.VLAN.Present {
		buf.VLAN = packet.VLANTag{}
	} else {
		if buf.Protocol != ethTypeVLAN || buf.Len() < vlanEthHLen {
			return nil
		}
		if _, err := popVLANHeader(buf); err != nil {
			return err
		}
	}

	if buf.Protocol != ethTypeVLAN || buf.Len() < vlanEthHLen {
		key.Eth.TCI = 0
		return nil
	}

	key.Invalidate()
	tci, err := popVLANHeader(buf)
	if err != nil {
		return err
	}
	buf.VLAN = packet.VLANTag{Present: true, TPID: ethTypeVLAN, TCI: tci}
	return nil
}

// popVLANHeader removes one in-packet VLAN header and returns its TCI
// (__pop_vlan_tci).
func popVLANHeader(buf *packet.Buffer) (uint16, error) {
	if err := buf.EnsureWritable(vlanEthHLen); err != nil {
		return 0, err
	}
	data := buf.Bytes()
	if len(data) < vlanEthHLen {
		return 0, ErrMalformedHeader
	}

	if buf.ChecksumMode == packet.ChecksumComplete {
		buf.Csum = packet.SubSum(buf.Csum, packet.PartialSum(data[2*ethAddrLen:2*ethAddrLen+vlanHLen], 0))
	}

	tci := binary.BigEndian.Uint16(data[ethHLen : ethHLen+2])
	encapProto := binary.BigEndian.Uint16(data[ethHLen+2 : ethHLen+4])

	copy(data[vlanHLen:vlanHLen+2*ethAddrLen], data[:2*ethAddrLen])
	buf.PullFront(vlanHLen)

	buf.Protocol = encapProto
	buf.MacOffset = 0
	buf.MacLen -= vlanHLen
	return tci, nil
}
