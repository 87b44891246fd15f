package actions

import (
	"bytes"
	"encoding/binary"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// IPv6Key is the decoded payload of a SET(IPV6) action (struct
// ovs_key_ipv6). Label is the 20-bit flow label in the low bits;
// RoutingHeaderPresent mirrors the original's ipv6_find_hdr probe for
// a routing extension header, which suppresses the destination
// address's checksum update (the routing header, not this rewrite,
// owns that checksum once one is present).
type IPv6Key struct {
	Src, Dst             [16]byte
	TClass               uint8
	Label                uint32
	HopLimit             uint8
	NextHeader           uint8
	RoutingHeaderPresent bool
}

// SetIPv6 rewrites the fields touched by set_ipv6.
func SetIPv6(buf *packet.Buffer, key *flowkey.Key, k IPv6Key) error {
	if err := buf.EnsureWritable(buf.NetworkOffset + ipv6HdrLen); err != nil {
		return err
	}
	nh := buf.NetworkHeader()
	if len(nh) < ipv6HdrLen {
		return ErrMalformedHeader
	}

	if !bytes.Equal(nh[8:24], k.Src[:]) {
		setIPv6Addr(buf, nh[8:24], k.NextHeader, k.Src[:], true)
		key.IPv6.Src = k.Src
	}
	nh = buf.NetworkHeader()

	if !bytes.Equal(nh[24:40], k.Dst[:]) {
		recalc := true
		if isIPv6ExtHdr(k.NextHeader) {
			recalc = !k.RoutingHeaderPresent
		}
		setIPv6Addr(buf, nh[24:40], k.NextHeader, k.Dst[:], recalc)
		key.IPv6.Dst = k.Dst
	}
	nh = buf.NetworkHeader()

	nh[0] = (nh[0] & 0xf0) | (k.TClass >> 4)
	nh[1] = (nh[1] & 0x0f) | ((k.TClass & 0x0f) << 4)
	key.IP.TOS = dsFieldFromTClassByte(nh[0], nh[1])

	nh[1] = (nh[1] & 0xf0) | byte((k.Label&0x000f0000)>>16)
	nh[2] = byte((k.Label & 0x0000ff00) >> 8)
	nh[3] = byte(k.Label & 0x000000ff)
	key.IPv6.Label = binary.BigEndian.Uint32(nh[0:4]) & 0x000fffff

	nh[7] = k.HopLimit
	key.IP.TTL = k.HopLimit
	return nil
}

func dsFieldFromTClassByte(b0, b1 byte) uint8 {
	return (b0 << 4) | (b1 >> 4)
}

func isIPv6ExtHdr(nextHeader uint8) bool {
	switch nextHeader {
	case 0, 43, 44, 60, 135:
		return true
	default:
		return false
	}
}

// setIPv6Addr rewrites a 16-byte address field and, when
// recalculateChecksum is set, the covered TCP/UDP/ICMPv6 checksum
// (set_ipv6_addr / update_ipv6_checksum).
func setIPv6Addr(buf *packet.Buffer, field []byte, nextHeader uint8, newAddr []byte, recalculateChecksum bool) {
	if recalculateChecksum {
		old := append([]byte(nil), field...)
		transportLen := buf.TransportLen()
		switch nextHeader {
		case ipProtoTCP:
			if transportLen >= tcpHdrLen {
				th := buf.TransportHeader()
				check := binary.BigEndian.Uint16(th[16:18])
				binary.BigEndian.PutUint16(th[16:18], packet.ReplaceWords(check, old, newAddr))
			}
		case ipProtoUDP:
			if transportLen >= udpHdrLen {
				uh := buf.TransportHeader()
				check := binary.BigEndian.Uint16(uh[6:8])
				if check != 0 || buf.ChecksumMode == packet.ChecksumPartial {
					newCheck := packet.ReplaceWords(check, old, newAddr)
					if newCheck == 0 {
						newCheck = packet.MangledZero
					}
					binary.BigEndian.PutUint16(uh[6:8], newCheck)
				}
			}
		case 58: // ICMPv6
			if transportLen >= 4 {
				th := buf.TransportHeader()
				check := binary.BigEndian.Uint16(th[2:4])
				binary.BigEndian.PutUint16(th[2:4], packet.ReplaceWords(check, old, newAddr))
			}
		}
	}
	buf.ClearHash()
	copy(field, newAddr)
}
