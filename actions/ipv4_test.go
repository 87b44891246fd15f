package actions

import (
	"encoding/binary"
	"testing"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

func buildIPv4UDP(srcIP, dstIP uint32, srcPort, dstPort uint16, withChecksum bool) []byte {
	buf := make([]byte, ipv4HdrLen+udpHdrLen+4)
	nh := buf[:ipv4HdrLen]
	nh[0] = 0x45
	nh[8] = 64 // ttl
	nh[9] = ipProtoUDP
	binary.BigEndian.PutUint32(nh[12:16], srcIP)
	binary.BigEndian.PutUint32(nh[16:20], dstIP)
	binary.BigEndian.PutUint16(nh[10:12], 0)
	check := ^packet.FoldSum(packet.PartialSum(nh, 0))
	binary.BigEndian.PutUint16(nh[10:12], check)

	uh := buf[ipv4HdrLen:]
	binary.BigEndian.PutUint16(uh[0:2], srcPort)
	binary.BigEndian.PutUint16(uh[2:4], dstPort)
	binary.BigEndian.PutUint16(uh[4:6], udpHdrLen+4)
	if withChecksum {
		binary.BigEndian.PutUint16(uh[6:8], 0xabcd)
	}
	return buf
}

func recomputeIPv4HeaderChecksum(nh []byte) uint16 {
	tmp := append([]byte(nil), nh...)
	binary.BigEndian.PutUint16(tmp[10:12], 0)
	return ^packet.FoldSum(packet.PartialSum(tmp, 0))
}

func TestSetIPv4UpdatesHeaderChecksumIncrementally(t *testing.T) {
	raw := buildIPv4UDP(0x0a000001, 0x0a000002, 1000, 2000, true)
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.NetworkOffset = 0
	buf.TransportOffset = ipv4HdrLen

	var key flowkey.Key
	key.Eth.Type = 0x0800 // valid to start

	newSrc := uint32(0x0a000003)
	if err := SetIPv4(buf, &key, IPv4Key{Src: newSrc, Dst: 0x0a000002, TOS: 0, TTL: 64}); err != nil {
		t.Fatal(err)
	}

	nh := buf.NetworkHeader()
	want := recomputeIPv4HeaderChecksum(nh)
	got := binary.BigEndian.Uint16(nh[10:12])
	if got != want {
		t.Fatalf("header checksum = %#x, want %#x (from-scratch recompute)", got, want)
	}
	if key.IPv4.Src != newSrc {
		t.Fatalf("key not updated: got %#x", key.IPv4.Src)
	}
}

func TestSetIPv4UDPZeroChecksumStaysZero(t *testing.T) {
	raw := buildIPv4UDP(0x0a000001, 0x0a000002, 1000, 2000, false)
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.NetworkOffset = 0
	buf.TransportOffset = ipv4HdrLen

	var key flowkey.Key
	key.Eth.Type = 0x0800

	if err := SetIPv4(buf, &key, IPv4Key{Src: 0x0a000099, Dst: 0x0a000002, TOS: 0, TTL: 64}); err != nil {
		t.Fatal(err)
	}

	uh := buf.TransportHeader()
	if got := binary.BigEndian.Uint16(uh[6:8]); got != 0 {
		t.Fatalf("udp checksum = %#x, want 0 (absent checksum must not be mangled on)", got)
	}
}

func TestSetIPv4NoChangeIsNoop(t *testing.T) {
	raw := buildIPv4UDP(0x0a000001, 0x0a000002, 1000, 2000, true)
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.NetworkOffset = 0
	buf.TransportOffset = ipv4HdrLen
	before := append([]byte(nil), buf.Bytes()...)

	var key flowkey.Key
	key.Eth.Type = 0x0800
	buf.SetHash(0xdeadbeef)

	if err := SetIPv4(buf, &key, IPv4Key{Src: 0x0a000001, Dst: 0x0a000002, TOS: 0, TTL: 64}); err != nil {
		t.Fatal(err)
	}

	if buf.Hash() != 0xdeadbeef {
		t.Fatalf("hash was cleared despite no field changing")
	}
	if string(before) != string(buf.Bytes()) {
		t.Fatalf("bytes changed despite identical key")
	}
}
