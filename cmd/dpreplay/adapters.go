package main

import (
	"github.com/ncopa/ovs/dp"
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/log"
	"github.com/ncopa/ovs/packet"
)

// loggingPorts is a dp.PortTable that resolves every port id to a
// loggingPort: dpreplay has no real vport to transmit out of, so
// OUTPUT just logs what would have been sent.
type loggingPorts struct {
	lg *log.Logger
}

func (p *loggingPorts) Port(portID uint32) (dp.Port, bool) {
	return &loggingPort{lg: p.lg, id: portID}, true
}

type loggingPort struct {
	lg *log.Logger
	id uint32
}

func (p *loggingPort) Send(buf *packet.Buffer) {
	p.lg.Infof("output: port=%d bytes=%d", p.id, buf.Len())
	buf.Consume()
}

// loggingUpcaller is a dp.Upcaller that logs a USERSPACE/SAMPLE
// delivery instead of forwarding it to a userspace daemon.
type loggingUpcaller struct {
	lg *log.Logger
}

func (u *loggingUpcaller) Upcall(buf *packet.Buffer, key *flowkey.Key, info dp.UpcallInfo) error {
	u.lg.Infof("upcall: pid=%d bytes=%d userdata=%d", info.PortID, buf.Len(), len(info.UserData))
	return nil
}

// passthroughKeyUpdater is a dp.KeyUpdater that simply re-validates
// the key rather than re-deriving it from packet bytes: dpreplay
// applies one fixed action list per packet, so RECIRC never needs a
// real re-extraction to make progress.
type passthroughKeyUpdater struct{}

func (passthroughKeyUpdater) UpdateKey(buf *packet.Buffer, key *flowkey.Key) error {
	key.Eth.Type = 0x0800
	return nil
}

// loggingReenterer is a dp.FlowReenterer that logs a RECIRC re-entry
// instead of running the packet back through the datapath.
type loggingReenterer struct {
	lg *log.Logger
}

func (r *loggingReenterer) Reenter(buf *packet.Buffer, key *flowkey.Key) {
	r.lg.Infof("recirc: id=%d bytes=%d", key.RecircID, buf.Len())
	buf.Consume()
}
