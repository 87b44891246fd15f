package dp

import (
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// recirc implements execute_recirc: if the flow key is stale it is
// re-extracted first; if this isn't the action list's last action the
// packet must be cloned (the original keeps flowing through the rest
// of the list), otherwise the caller's buf itself is handed to the
// deferred-action FIFO. A re-extraction failure is returned to the
// caller; a full FIFO or a clone failure only drops the recirculation,
// not the packet in flight, and is not reported as an error.
func (dp *Datapath) recirc(core int, buf *packet.Buffer, key *flowkey.Key, recircID uint32, isLast bool) error {
	if !key.Valid() {
		if err := dp.KeyUpdater.UpdateKey(buf, key); err != nil {
			return err
		}
	}

	workBuf := buf
	if !isLast {
		clone, err := buf.Clone()
		if err != nil {
			// Skip the recirc action under memory pressure; the
			// original continues on with the rest of the list.
			return nil
		}
		workBuf = clone
	}

	newKey := *key
	newKey.RecircID = recircID

	if !dp.cores[core].fifo.put(deferredAction{buf: workBuf, key: newKey}) {
		workBuf.Free()
		dp.overflowWarn.Warnf(dp.Log, "recirc: deferred action limit reached, dropping")
	}
	return nil
}
