package dp

import (
	"errors"

	"github.com/ncopa/ovs/actions"
	"github.com/ncopa/ovs/attrs"
	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/packet"
)

// ExecuteActions runs list against buf on the given core
// (ovs_execute_actions): it is the only entry point that enforces
// LevelLimit, and it drains that core's deferred-action FIFO exactly
// once, after the outermost call on the core returns — a recirculated
// or sampled packet re-entering through this same method nests one
// level deeper, but a plain deferred continuation drained inline does
// not (see processDeferredActions).
func (dp *Datapath) ExecuteActions(core int, buf *packet.Buffer, key *flowkey.Key, list attrs.List) error {
	cs := &dp.cores[core]
	level := cs.level
	if level >= dp.LevelLimit {
		dp.loopWarn.Warnf(dp.Log, "packet loop detected, dropping")
		buf.Free()
		return ErrLoop
	}

	cs.level++
	err := dp.executeList(core, buf, key, list)
	if level == 0 {
		dp.processDeferredActions(core)
	}
	cs.level--
	return err
}

// processDeferredActions drains a core's FIFO to completion
// (process_deferred_actions). A deferred entry with an attached
// action list (always a SAMPLE clone) resumes that list directly,
// without going back through ExecuteActions' level check — the
// kernel's do_execute_actions call here is the same one, not
// ovs_execute_actions. An entry with no action list (always a RECIRC)
// re-enters the pipeline from the top through FlowReenterer, which
// does go back through ExecuteActions at the caller's level.
func (dp *Datapath) processDeferredActions(core int) {
	cs := &dp.cores[core]
	if cs.fifo.isEmpty() {
		return
	}
	for {
		da, ok := cs.fifo.get()
		if !ok {
			break
		}
		if da.hasActions {
			dp.executeList(core, da.buf, &da.key, da.actions)
		} else {
			dp.Reenter.Reenter(da.buf, &da.key)
		}
	}
	cs.fifo.init()
}

// executeList walks one action list against buf (do_execute_actions).
// A run of one or more OUTPUT actions is staged rather than executed
// immediately: the common case is a single OUTPUT, so the list's last
// action reuses buf directly instead of paying for a clone that would
// just be freed again one statement later.
func (dp *Datapath) executeList(core int, buf *packet.Buffer, key *flowkey.Key, list attrs.List) error {
	const noPort = -1
	prevPort := int64(noPort)

	c := attrs.NewCursor(list)
	for {
		a, ok := c.Next()
		if !ok {
			break
		}

		if prevPort != noPort {
			if clone, err := buf.Clone(); err == nil {
				dp.doOutput(clone, uint32(prevPort))
			}
			prevPort = noPort
		}

		var err error
		switch a.Opcode {
		case attrs.Output:
			var port uint32
			if port, err = decodeOutput(a.Data); err == nil {
				prevPort = int64(port)
			}

		case attrs.Userspace:
			if uerr := dp.outputUserspace(buf, key, a.Data); uerr != nil && dp.Log != nil {
				dp.Log.Warnf("userspace upcall failed: %v", uerr)
			}

		case attrs.Hash:
			var basis uint32
			if basis, err = decodeHashBasis(a.Data); err == nil {
				key.FlowHash = executeHash(buf.Hash(), basis)
			}

		case attrs.PushMPLS:
			var p actions.PushMPLSParams
			if p, err = decodePushMPLS(a.Data); err == nil {
				err = actions.PushMPLS(buf, key, p)
			}

		case attrs.PopMPLS:
			var et uint16
			if et, err = decodePopMPLS(a.Data); err == nil {
				err = actions.PopMPLS(buf, key, et)
			}

		case attrs.PushVLAN:
			var p actions.PushVLANParams
			if p, err = decodePushVLAN(a.Data); err == nil {
				err = actions.PushVLAN(buf, key, p)
			}

		case attrs.PopVLAN:
			err = actions.PopVLAN(buf, key)

		case attrs.Recirc:
			var id uint32
			if id, err = decodeRecircID(a.Data); err == nil {
				rerr := dp.recirc(core, buf, key, id, a.IsLast())
				if a.IsLast() {
					return rerr
				}
				err = rerr
			}

		case attrs.Set:
			field, payload, derr := decodeSet(a.Data)
			if derr != nil {
				err = derr
			} else {
				err = actions.ExecuteSet(buf, key, field, payload)
			}

		case attrs.Sample:
			err = dp.sample(core, buf, key, a.Data)
		}

		if err != nil {
			var alreadyFreed *packet.AlreadyFreed
			if !errors.As(err, &alreadyFreed) {
				buf.Free()
			}
			return err
		}
	}

	if err := c.Err(); err != nil {
		buf.Free()
		return err
	}

	if prevPort != noPort {
		dp.doOutput(buf, uint32(prevPort))
	} else {
		buf.Consume()
	}
	return nil
}
