package dp

import (
	"github.com/ncopa/ovs/attrs"
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// sample implements the SAMPLE action: a probability draw gates
// whether the nested action list runs at all. The one case this
// engine special-cases, matching the original's comment, is a nested
// list that is a single, trailing USERSPACE action — since nothing
// after it needs the packet to survive unmodified, it runs directly
// against buf (and its error, unlike a bare mid-list USERSPACE
// action's, propagates) instead of paying for a clone and a deferred
// FIFO round trip.
func (dp *Datapath) sample(core int, buf *packet.Buffer, key *flowkey.Key, data []byte) error {
	s, err := attrs.DecodeSample(data)
	if err != nil {
		return err
	}
	if dp.Rand() >= s.Probability {
		return nil
	}

	c := attrs.NewCursor(s.Actions)
	first, ok := c.Next()
	if !ok {
		return nil
	}
	if first.Opcode == attrs.Userspace && first.IsLast() {
		return dp.outputUserspace(buf, key, first.Data)
	}

	clone, err := buf.Clone()
	if err != nil {
		// Skip the sample action when out of memory.
		return nil
	}

	if !dp.cores[core].fifo.put(deferredAction{buf: clone, key: *key, actions: s.Actions, hasActions: true}) {
		clone.Free()
		dp.overflowWarn.Warnf(dp.Log, "sample: deferred actions limit reached, dropping sample action")
	}
	return nil
}
