package actions

import (
	"encoding/binary"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// PushMPLSParams carries a PUSH_MPLS action's payload (struct ovs_action_push_mpls).
type PushMPLSParams struct {
	LSE       uint32
	Ethertype uint16
}

// PushMPLS inserts a new MPLS label between the mac header and the
// network header (push_mpls): grows the buffer at the front, slides
// the mac header forward over the new space, and writes the label
// into the gap this leaves at mac_header_end.
func PushMPLS(buf *packet.Buffer, key *flowkey.Key, p PushMPLSParams) error {
	region, err := buf.PushFront(mplsHLen)
	if err != nil {
		return err
	}
	data := buf.Bytes()
	if len(data) < mplsHLen+buf.MacLen {
		return ErrMalformedHeader
	}
	copy(region[:buf.MacLen], data[mplsHLen:mplsHLen+buf.MacLen])

	lse := data[buf.MacLen : buf.MacLen+mplsHLen]
	binary.BigEndian.PutUint32(lse, p.LSE)

	if buf.ChecksumMode == packet.ChecksumComplete {
		buf.Csum = packet.AddSum(buf.Csum, packet.PartialSum(lse, 0))
	}

	if buf.MacLen >= 2 {
		binary.BigEndian.PutUint16(data[buf.MacLen-2:buf.MacLen], p.Ethertype)
	}
	if buf.InnerProto == 0 {
		buf.InnerProto = buf.Protocol
	}
	buf.Protocol = p.Ethertype
	buf.MacOffset = 0
	key.Invalidate()
	return nil
}

// PopMPLS removes the topmost MPLS label (pop_mpls), restoring
// ethertype as the packet's protocol if (and only if) the packet's
// outer protocol was itself an MPLS ethertype — a non-MPLS outer
// protocol means a previous POP_MPLS already restored it and this one
// is only uncovering a stacked label still below another protocol.
func PopMPLS(buf *packet.Buffer, key *flowkey.Key, ethertype uint16) error {
	need := buf.MacLen + mplsHLen
	if err := buf.EnsureWritable(need); err != nil {
		return err
	}
	data := buf.Bytes()
	if len(data) < need {
		return ErrMalformedHeader
	}

	if buf.ChecksumMode == packet.ChecksumComplete {
		lse := data[buf.MacLen : buf.MacLen+mplsHLen]
		buf.Csum = packet.SubSum(buf.Csum, packet.PartialSum(lse, 0))
	}

	copy(data[mplsHLen:mplsHLen+buf.MacLen], data[:buf.MacLen])
	buf.PullFront(mplsHLen)

	data = buf.Bytes()
	if buf.MacLen >= 2 {
		binary.BigEndian.PutUint16(data[buf.MacLen-2:buf.MacLen], ethertype)
	}
	if isMPLSEthertype(buf.Protocol) {
		buf.Protocol = ethertype
	}
	buf.MacOffset = 0
	key.Invalidate()
	return nil
}

// SetMPLS rewrites the topmost label in place (set_mpls), correcting
// skb->csum incrementally rather than re-summing the whole header.
func SetMPLS(buf *packet.Buffer, key *flowkey.Key, lse uint32) error {
	need := buf.MacLen + mplsHLen
	if err := buf.EnsureWritable(need); err != nil {
		return err
	}
	stack := buf.MacHeaderEnd()
	if len(stack) < mplsHLen {
		return ErrMalformedHeader
	}

	old := make([]byte, mplsHLen)
	copy(old, stack[:mplsHLen])

	if buf.ChecksumMode == packet.ChecksumComplete {
		buf.Csum = packet.SubSum(buf.Csum, packet.PartialSum(old, 0))
	}
	binary.BigEndian.PutUint32(stack[:mplsHLen], lse)
	if buf.ChecksumMode == packet.ChecksumComplete {
		buf.Csum = packet.AddSum(buf.Csum, packet.PartialSum(stack[:mplsHLen], 0))
	}

	key.MPLS.TopLSE = lse
	return nil
}
