package actions

import (
	"encoding/binary"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// UDPKey is the decoded payload of a SET(UDP) action (struct ovs_key_udp).
type UDPKey struct {
	Src, Dst uint16
}

// SetUDP rewrites the source/destination ports (set_udp). Unlike TCP,
// a UDP checksum of exactly zero means "no checksum computed" and must
// be left alone (it is not mutated), and a checksum that would
// incrementally fold to zero must be mangled to the reserved
// CSUM_MANGLED_0 sentinel instead.
func SetUDP(buf *packet.Buffer, key *flowkey.Key, k UDPKey) error {
	if err := buf.EnsureWritable(buf.TransportOffset + udpHdrLen); err != nil {
		return err
	}
	uh := buf.TransportHeader()
	if len(uh) < udpHdrLen {
		return ErrMalformedHeader
	}

	if src := binary.BigEndian.Uint16(uh[0:2]); src != k.Src {
		setUDPPort(buf, uh[0:2], src, k.Src)
		key.TP.Src = k.Src
	}
	uh = buf.TransportHeader()
	if dst := binary.BigEndian.Uint16(uh[2:4]); dst != k.Dst {
		setUDPPort(buf, uh[2:4], dst, k.Dst)
		key.TP.Dst = k.Dst
	}
	return nil
}

func setUDPPort(buf *packet.Buffer, field []byte, oldPort, newPort uint16) {
	uh := buf.TransportHeader()
	check := binary.BigEndian.Uint16(uh[6:8])

	if check != 0 && buf.ChecksumMode != packet.ChecksumPartial {
		oldBytes := []byte{byte(oldPort >> 8), byte(oldPort)}
		newBytes := []byte{byte(newPort >> 8), byte(newPort)}
		newCheck := packet.ReplaceWords(check, oldBytes, newBytes)
		if newCheck == 0 {
			newCheck = packet.MangledZero
		}
		binary.BigEndian.PutUint16(uh[6:8], newCheck)
		binary.BigEndian.PutUint16(field, newPort)
		buf.ClearHash()
		return
	}

	binary.BigEndian.PutUint16(field, newPort)
	buf.ClearHash()
}
