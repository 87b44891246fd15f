package actions

import (
	"encoding/binary"
	"testing"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

func buildSCTP(srcPort, dstPort uint16) []byte {
	buf := make([]byte, sctpHdrLen+8)
	binary.BigEndian.PutUint16(buf[0:2], srcPort)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)
	binary.LittleEndian.PutUint32(buf[8:12], sctpChecksum(buf))
	return buf
}

func TestSetSCTPUpdatesChecksumForCorrectPacket(t *testing.T) {
	raw := buildSCTP(1000, 2000)
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.TransportOffset = 0

	var key flowkey.Key
	if err := SetSCTP(buf, &key, SCTPKey{Src: 1001, Dst: 2000}); err != nil {
		t.Fatal(err)
	}

	th := buf.TransportHeader()
	want := sctpChecksumExcludingField(th)
	got := binary.LittleEndian.Uint32(th[8:12])
	if got != want {
		t.Fatalf("checksum = %#x, want %#x", got, want)
	}
}

func TestSetSCTPPreservesPreexistingChecksumError(t *testing.T) {
	raw := buildSCTP(1000, 2000)
	// Corrupt the checksum to simulate a packet that already failed
	// verification upstream.
	binary.LittleEndian.PutUint32(raw[8:12], binary.LittleEndian.Uint32(raw[8:12])^0xffffffff)

	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.TransportOffset = 0
	before := binary.LittleEndian.Uint32(buf.TransportHeader()[8:12])

	var key flowkey.Key
	if err := SetSCTP(buf, &key, SCTPKey{Src: 1001, Dst: 2000}); err != nil {
		t.Fatal(err)
	}

	th := buf.TransportHeader()
	afterCorrect := sctpChecksumExcludingField(th)
	stored := binary.LittleEndian.Uint32(th[8:12])

	// The stored checksum must differ from the now-correct one by
	// exactly the same delta it differed by before the rewrite.
	wantDelta := before ^ sctpChecksum(func() []byte {
		// Reconstruct the pre-rewrite "correct" value from raw with
		// its original ports, prior to corruption.
		tmp := append([]byte(nil), th...)
		binary.BigEndian.PutUint16(tmp[0:2], 1000)
		binary.BigEndian.PutUint16(tmp[2:4], 2000)
		return tmp
	}())
	gotDelta := stored ^ afterCorrect
	if gotDelta != wantDelta {
		t.Fatalf("checksum error was not carried through: got delta %#x want %#x", gotDelta, wantDelta)
	}
}

func sctpChecksumExcludingField(th []byte) uint32 {
	tmp := append([]byte(nil), th...)
	binary.LittleEndian.PutUint32(tmp[8:12], 0)
	return sctpChecksum(tmp)
}
