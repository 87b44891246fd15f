package actions

import (
	"encoding/binary"
	"testing"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

func buildVLANFrame(tci uint16, innerEthertype uint16, payload []byte) []byte {
	buf := make([]byte, vlanEthHLen+len(payload))
	binary.BigEndian.PutUint16(buf[12:14], ethTypeVLAN)
	binary.BigEndian.PutUint16(buf[14:16], tci)
	binary.BigEndian.PutUint16(buf[16:18], innerEthertype)
	copy(buf[vlanEthHLen:], payload)
	return buf
}

func TestPopVLANFromInPacketHeader(t *testing.T) {
	raw := buildVLANFrame(0x0005, ethTypeIPv4, []byte{9, 9})
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.MacLen = vlanEthHLen
	buf.Protocol = ethTypeVLAN

	var key flowkey.Key
	key.Eth.Type = ethTypeVLAN

	if err := PopVLAN(buf, &key); err != nil {
		t.Fatal(err)
	}
	if buf.Protocol != ethTypeIPv4 {
		t.Fatalf("protocol = %#x, want IPv4", buf.Protocol)
	}
	if buf.Len() != ethHLen+2 {
		t.Fatalf("len = %d, want %d", buf.Len(), ethHLen+2)
	}
	if buf.VLAN.Present {
		t.Fatalf("single-tag pop should leave no tag in the hw-accel slot")
	}
}

func TestPushVLANThenPopRoundTrips(t *testing.T) {
	raw := buildEthernetFrame(ethTypeIPv4, []byte{7, 7})
	buf := packet.New(raw, packet.DefaultHeadroom)
	buf.MacLen = ethHLen
	buf.Protocol = ethTypeIPv4

	var key flowkey.Key
	key.Eth.Type = ethTypeIPv4

	if err := PushVLAN(buf, &key, PushVLANParams{TPID: ethTypeVLAN, TCI: 42}); err != nil {
		t.Fatal(err)
	}
	if !buf.VLAN.Present || buf.VLAN.TCI != 42 {
		t.Fatalf("hw-accel tag not set: %+v", buf.VLAN)
	}
	if key.Eth.TCI != 42 {
		t.Fatalf("key TCI not set when no prior tag existed")
	}

	if err := PopVLAN(buf, &key); err != nil {
		t.Fatal(err)
	}
	if buf.VLAN.Present {
		t.Fatalf("pop should clear the hw-accel tag that push set")
	}
	if buf.Bytes()[0] != raw[0] {
		t.Fatalf("payload bytes disturbed by push/pop round trip")
	}
}
