package dp

import (
	"github.com/ncopa/ovs/attrs"
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// FIFOCapacity is DEFERRED_ACTION_FIFO_SIZE: the number of deferred
// actions (RECIRC/SAMPLE continuations) a single core can accumulate
// while executing one top-level action list.
const FIFOCapacity = 10

// deferredAction is one queued continuation (struct deferred_action):
// a packet to keep processing, the flow key as of the point it was
// deferred, and either a nested action list to resume (a SAMPLE clone)
// or no list, meaning "re-enter the pipeline from the top with this
// key" (a RECIRC).
type deferredAction struct {
	buf        *packet.Buffer
	key        flowkey.Key
	actions    attrs.List
	hasActions bool
}

// actionFifo is a single core's deferred-action queue (struct
// action_fifo): a fixed-capacity ring with a reserve-one-slot full
// policy (action_fifo_put never lets head reach the last slot), so
// that is_empty (head == tail) is never ambiguous with full.
type actionFifo struct {
	head, tail int
	slots      [FIFOCapacity]deferredAction
}

func (f *actionFifo) init() { f.head, f.tail = 0, 0 }

func (f *actionFifo) isEmpty() bool { return f.head == f.tail }

func (f *actionFifo) get() (deferredAction, bool) {
	if f.isEmpty() {
		return deferredAction{}, false
	}
	da := f.slots[f.tail]
	f.tail++
	return da, true
}

// put reserves the next slot, refusing once head has reached
// FIFOCapacity-1 (action_fifo_put's "- 1" reserve); slots are not
// reused until init resets both indices.
func (f *actionFifo) put(da deferredAction) bool {
	if f.head >= FIFOCapacity-1 {
		return false
	}
	f.slots[f.head] = da
	f.head++
	return true
}
