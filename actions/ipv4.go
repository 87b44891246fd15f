package actions

import (
	"encoding/binary"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// IPv4Key is the decoded payload of a SET(IPV4) action (struct
// ovs_key_ipv4).
type IPv4Key struct {
	Src, Dst uint32
	TOS, TTL uint8
}

// SetIPv4 rewrites the fields of set_ipv4, updating the header
// checksum and any covered transport checksum incrementally field by
// field, and only for the fields that actually changed.
func SetIPv4(buf *packet.Buffer, key *flowkey.Key, k IPv4Key) error {
	if err := buf.EnsureWritable(buf.NetworkOffset + ipv4HdrLen); err != nil {
		return err
	}
	nh := buf.NetworkHeader()
	if len(nh) < ipv4HdrLen {
		return ErrMalformedHeader
	}
	proto := nh[9]

	if src := binary.BigEndian.Uint32(nh[12:16]); src != k.Src {
		setIPv4Addr(buf, nh, 12, src, k.Src, proto)
		key.IPv4.Src = k.Src
	}
	nh = buf.NetworkHeader()
	if dst := binary.BigEndian.Uint32(nh[16:20]); dst != k.Dst {
		setIPv4Addr(buf, nh, 16, dst, k.Dst, proto)
		key.IPv4.Dst = k.Dst
	}
	nh = buf.NetworkHeader()

	if tos := nh[1]; tos != k.TOS {
		check := binary.BigEndian.Uint16(nh[10:12])
		binary.BigEndian.PutUint16(nh[10:12], packet.ReplaceWords(check, []byte{nh[0], tos}, []byte{nh[0], k.TOS}))
		nh[1] = k.TOS
		key.IP.TOS = k.TOS
	}

	if ttl := nh[8]; ttl != k.TTL {
		oldField := []byte{ttl, 0}
		newField := []byte{k.TTL, 0}
		check := binary.BigEndian.Uint16(nh[10:12])
		binary.BigEndian.PutUint16(nh[10:12], packet.ReplaceWords(check, oldField, newField))
		nh[8] = k.TTL
		key.IP.TTL = k.TTL
	}
	return nil
}

// setIPv4Addr rewrites one address field in place, fixing up the IP
// header checksum and, when the transport header is long enough to be
// present, the covered TCP/UDP pseudo-header checksum too
// (set_ip_addr).
func setIPv4Addr(buf *packet.Buffer, nh []byte, off int, oldAddr, newAddr uint32, proto byte) {
	oldBytes := make([]byte, 4)
	newBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(oldBytes, oldAddr)
	binary.BigEndian.PutUint32(newBytes, newAddr)

	transportLen := buf.TransportLen()
	switch proto {
	case ipProtoTCP:
		if transportLen >= tcpHdrLen {
			th := buf.TransportHeader()
			check := binary.BigEndian.Uint16(th[16:18])
			binary.BigEndian.PutUint16(th[16:18], packet.ReplaceWords(check, oldBytes, newBytes))
		}
	case ipProtoUDP:
		if transportLen >= udpHdrLen {
			uh := buf.TransportHeader()
			check := binary.BigEndian.Uint16(uh[6:8])
			if check != 0 || buf.ChecksumMode == packet.ChecksumPartial {
				newCheck := packet.ReplaceWords(check, oldBytes, newBytes)
				if newCheck == 0 {
					newCheck = packet.MangledZero
				}
				binary.BigEndian.PutUint16(uh[6:8], newCheck)
			}
		}
	}

	check := binary.BigEndian.Uint16(nh[10:12])
	binary.BigEndian.PutUint16(nh[10:12], packet.ReplaceWords(check, oldBytes, newBytes))
	buf.ClearHash()
	copy(nh[off:off+4], newBytes)
}
