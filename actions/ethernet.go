package actions

import (
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// EthernetKey is the decoded payload of a SET(ETHERNET) action,
// mirroring struct ovs_key_ethernet.
type EthernetKey struct {
	Src, Dst [ethAddrLen]byte
}

// SetEthernet rewrites the source/destination MAC addresses
// (set_eth_addr). Ethernet addresses carry no checksum of their own.
func SetEthernet(buf *packet.Buffer, key *flowkey.Key, k EthernetKey) error {
	if err := buf.EnsureWritable(ethHLen); err != nil {
		return err
	}
	hdr := buf.MacHeader()
	if len(hdr) < ethHLen {
		return ErrMalformedHeader
	}
	copy(hdr[0:ethAddrLen], k.Dst[:])
	copy(hdr[ethAddrLen:2*ethAddrLen], k.Src[:])

	key.Eth.Dst = k.Dst
	key.Eth.Src = k.Src
	return nil
}
