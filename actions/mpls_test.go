package actions

import (
	"encoding/binary"
	"testing"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

func buildEthernetFrame(ethertype uint16, payload []byte) []byte {
	buf := make([]byte, ethHLen+len(payload))
	binary.BigEndian.PutUint16(buf[12:14], ethertype)
	copy(buf[ethHLen:], payload)
	return buf
}

func TestPushThenPopMPLSRestoresOriginalEthertype(t *testing.T) {
	raw := buildEthernetFrame(ethTypeIPv4, []byte{1, 2, 3, 4})
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.MacLen = ethHLen

	var key flowkey.Key
	key.Eth.Type = ethTypeIPv4

	if err := PushMPLS(buf, &key, PushMPLSParams{LSE: 0x00012345, Ethertype: ethTypeMPLSUni}); err != nil {
		t.Fatal(err)
	}
	if key.Valid() {
		t.Fatalf("push_mpls must invalidate the flow key")
	}
	if buf.Protocol != ethTypeMPLSUni {
		t.Fatalf("protocol = %#x, want MPLS unicast", buf.Protocol)
	}

	key.Eth.Type = ethTypeMPLSUni // simulate re-extraction
	if err := PopMPLS(buf, &key, ethTypeIPv4); err != nil {
		t.Fatal(err)
	}
	if buf.Protocol != ethTypeIPv4 {
		t.Fatalf("protocol after pop = %#x, want IPv4", buf.Protocol)
	}
	if got := buf.Bytes()[ethHLen:]; got[0] != 1 || got[3] != 4 {
		t.Fatalf("payload corrupted after push/pop: %v", got)
	}
}

func TestSetMPLSUpdatesTopLabelStack(t *testing.T) {
	raw := buildEthernetFrame(ethTypeMPLSUni, []byte{0, 0, 0, 0, 9, 9, 9, 9})
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.MacLen = ethHLen
	buf.ChecksumMode = packet.ChecksumComplete

	var key flowkey.Key
	if err := SetMPLS(buf, &key, 0xaabbccdd); err != nil {
		t.Fatal(err)
	}
	stack := buf.MacHeaderEnd()
	if got := binary.BigEndian.Uint32(stack[:4]); got != 0xaabbccdd {
		t.Fatalf("label = %#x", got)
	}
	if key.MPLS.TopLSE != 0xaabbccdd {
		t.Fatalf("key not updated")
	}
}
