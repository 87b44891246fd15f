package actions

import (
	"encoding/binary"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// TCPKey is the decoded payload of a SET(TCP) action (struct ovs_key_tcp).
type TCPKey struct {
	Src, Dst uint16
}

// SetTCP rewrites the source/destination ports (set_tcp), incrementally
// fixing up the TCP checksum for each port that actually changes.
func SetTCP(buf *packet.Buffer, key *flowkey.Key, k TCPKey) error {
	if err := buf.EnsureWritable(buf.TransportOffset + tcpHdrLen); err != nil {
		return err
	}
	th := buf.TransportHeader()
	if len(th) < tcpHdrLen {
		return ErrMalformedHeader
	}

	if src := binary.BigEndian.Uint16(th[0:2]); src != k.Src {
		setTransportPort(th, th[0:2], 16, src, k.Src)
		buf.ClearHash()
		key.TP.Src = k.Src
	}
	th = buf.TransportHeader()
	if dst := binary.BigEndian.Uint16(th[2:4]); dst != k.Dst {
		setTransportPort(th, th[2:4], 16, dst, k.Dst)
		buf.ClearHash()
		key.TP.Dst = k.Dst
	}
	return nil
}

// setTransportPort rewrites a 2-byte port field in place and updates
// the checksum at checkOffset using the incremental-replace primitive
// (set_tp_port).
func setTransportPort(hdr []byte, field []byte, checkOffset int, oldPort, newPort uint16) {
	oldBytes := []byte{byte(oldPort >> 8), byte(oldPort)}
	newBytes := []byte{byte(newPort >> 8), byte(newPort)}
	check := binary.BigEndian.Uint16(hdr[checkOffset : checkOffset+2])
	binary.BigEndian.PutUint16(hdr[checkOffset:checkOffset+2], packet.ReplaceWords(check, oldBytes, newBytes))
	binary.BigEndian.PutUint16(field, newPort)
}
