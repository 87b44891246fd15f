package dp

import (
	"github.com/ncopa/ovs/attrs"
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// TunnelEgressInfoProvider is an optional capability a Port may
// implement to answer a USERSPACE action's EGRESS_TUN_PORT request
// (ovs_vport_get_egress_tun_info). Ports that don't support tunneling
// simply don't implement it.
type TunnelEgressInfoProvider interface {
	EgressTunnelInfo(buf *packet.Buffer) ([]byte, error)
}

// doOutput sends buf out portID, or drops it if the port doesn't
// exist (do_output). Either way buf is consumed.
func (dp *Datapath) doOutput(buf *packet.Buffer, portID uint32) {
	if port, ok := dp.Ports.Port(portID); ok {
		port.Send(buf)
		return
	}
	buf.Free()
}

// outputUserspace delivers an upcall (output_userspace). buf is not
// consumed: the Upcaller contract is read-only, matching the kernel's
// upcall path, which serializes what it needs out of skb rather than
// taking ownership of it.
func (dp *Datapath) outputUserspace(buf *packet.Buffer, key *flowkey.Key, data []byte) error {
	u, err := attrs.DecodeUserspace(data)
	if err != nil {
		return err
	}

	info := UpcallInfo{UserData: u.UserData, PortID: u.PID}
	if u.HasEgressTunPort {
		if port, ok := dp.Ports.Port(u.EgressTunPort); ok {
			if provider, ok := port.(TunnelEgressInfoProvider); ok {
				if tun, err := provider.EgressTunnelInfo(buf); err == nil {
					info.EgressTunnelInfo = tun
				}
			}
		}
	}
	return dp.Upcall.Upcall(buf, key, info)
}
