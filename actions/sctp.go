package actions

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

var sctpCRCTable = crc32.MakeTable(crc32.Castagnoli)

// SCTPKey is the decoded payload of a SET(SCTP) action (struct ovs_key_sctp).
type SCTPKey struct {
	Src, Dst uint16
}

// SetSCTP rewrites the source/destination ports (set_sctp). SCTP's
// checksum is a whole-packet CRC32c, not an incrementally-correctable
// one's-complement sum, so rather than updating it this recomputes it
// fully before and after the port rewrite and XORs the stored
// checksum by the difference — an already-corrupted checksum (e.g.
// from a prior, deliberately malformed test packet) stays exactly as
// wrong after the rewrite as it was before it, matching
// set_sctp's "carry any checksum errors through" comment.
func SetSCTP(buf *packet.Buffer, key *flowkey.Key, k SCTPKey) error {
	if err := buf.EnsureWritable(buf.TransportOffset + sctpHdrLen); err != nil {
		return err
	}
	th := buf.TransportHeader()
	if len(th) < sctpHdrLen {
		return ErrMalformedHeader
	}

	src := binary.BigEndian.Uint16(th[0:2])
	dst := binary.BigEndian.Uint16(th[2:4])
	if src == k.Src && dst == k.Dst {
		return nil
	}

	oldChecksum := binary.LittleEndian.Uint32(th[8:12])
	oldCorrect := sctpChecksum(th)

	binary.BigEndian.PutUint16(th[0:2], k.Src)
	binary.BigEndian.PutUint16(th[2:4], k.Dst)

	newChecksum := sctpChecksum(th)
	binary.LittleEndian.PutUint32(th[8:12], oldChecksum^oldCorrect^newChecksum)

	buf.ClearHash()
	key.TP.Src = k.Src
	key.TP.Dst = k.Dst
	return nil
}

// sctpChecksum computes the SCTP common-header CRC32c over packet
// (from the transport header to the end of the packet) with the
// checksum field itself treated as zero, as sctp_compute_cksum does.
func sctpChecksum(packetFromTransport []byte) uint32 {
	crc := crc32.New(sctpCRCTable)
	crc.Write(packetFromTransport[0:8])
	var zero [4]byte
	crc.Write(zero[:])
	if len(packetFromTransport) > 12 {
		crc.Write(packetFromTransport[12:])
	}
	return crc.Sum32()
}
