// Package dp implements the action execution engine: the bounded,
// per-core loop that walks an action list and applies it to a packet,
// adapting original_source/datapath/actions.c's do_execute_actions /
// ovs_execute_actions onto package packet, package flowkey, package
// attrs and package actions.
package dp

import (
	"errors"
	"math/rand"
	"time"

	"github.com/ncopa/ovs/flowkey"
	"github.com/ncopa/ovs/log"
	"github.com/ncopa/ovs/packet"
)

// defaultRatelimitInterval throttles the FIFO-overflow and
// packet-loop warnings, which a single adversarial or misconfigured
// flow can otherwise drive at line rate.
const defaultRatelimitInterval = time.Second

// LevelLimit is EXEC_ACTIONS_LEVEL_LIMIT: the number of nested
// ExecuteActions calls on one core at which a further call is assumed
// to be a packet looping through the pipeline and is dropped instead of
// executed. A RECIRC entry drained by the outermost call re-enters one
// level below it; deferred SAMPLE lists run without re-entering
// ExecuteActions and add no level.
const LevelLimit = 4

// ErrLoop is returned when LevelLimit is exceeded (packet loop detected).
var ErrLoop = errors.New("dp: packet loop detected, dropping")

// Port is a single output port of the switch.
type Port interface {
	// Send transmits buf out this port. The port takes ownership of
	// buf regardless of outcome (matching ovs_vport_send/do_output,
	// which never propagates a send failure back to the caller).
	Send(buf *packet.Buffer)
}

// PortTable resolves a numeric port id to a live Port, or (false) to
// "no such port" (do_output's vport == NULL path, which silently
// drops the packet).
type PortTable interface {
	Port(portID uint32) (Port, bool)
}

// UpcallInfo is the argument to Upcaller.Upcall (struct dp_upcall_info).
type UpcallInfo struct {
	UserData         []byte
	PortID           uint32
	EgressTunnelInfo []byte
}

// Upcaller delivers a packet to userspace (ovs_dp_upcall), used by the
// USERSPACE action and by SAMPLE's single-trailing-USERSPACE fast path.
type Upcaller interface {
	Upcall(buf *packet.Buffer, key *flowkey.Key, info UpcallInfo) error
}

// KeyUpdater re-extracts a flow key from packet bytes
// (ovs_flow_key_update), used by RECIRC when the key was invalidated
// by an intervening header mutation.
type KeyUpdater interface {
	UpdateKey(buf *packet.Buffer, key *flowkey.Key) error
}

// FlowReenterer re-injects a packet at the top of the datapath with a
// fresh key and no pending actions (ovs_dp_process_packet), used to
// finish a RECIRC once its deferred entry is drained with no attached
// action list.
type FlowReenterer interface {
	Reenter(buf *packet.Buffer, key *flowkey.Key)
}

// coreState is the per-core state original_source keeps in percpu
// storage: the deferred-action FIFO and the current recursion depth.
// There is deliberately no mutex — exactly one goroutine may ever hold
// a given core index at a time, mirroring the kernel's
// non-reentrant-per-CPU invariant; see SPEC_FULL.md §5.
type coreState struct {
	fifo  actionFifo
	level int
}

// Datapath executes action lists against packets. The zero value is
// not usable; build one with New.
type Datapath struct {
	Ports      PortTable
	Upcall     Upcaller
	KeyUpdater KeyUpdater
	Reenter    FlowReenterer
	Log        *log.Logger

	// Rand supplies SAMPLE's probability draw. Tests inject a
	// deterministic source; production uses the package-level default.
	Rand func() uint32

	// LevelLimit overrides the package default LevelLimit for this
	// Datapath; New seeds it from the package constant, and callers
	// (e.g. a loaded config.Config.LevelLimit) may lower or raise it
	// afterward.
	LevelLimit int

	overflowWarn *log.Ratelimiter
	loopWarn     *log.Ratelimiter

	cores []coreState
}

// New builds a Datapath with numCores independent per-core states.
// numCores stands in for the kernel's num_possible_cpus(): callers
// pass runtime.GOMAXPROCS(0) or a fixed worker-pool size.
func New(numCores int, ports PortTable, upcall Upcaller, keys KeyUpdater, reenter FlowReenterer, lg *log.Logger) *Datapath {
	if numCores < 1 {
		numCores = 1
	}
	return &Datapath{
		Ports:        ports,
		Upcall:       upcall,
		KeyUpdater:   keys,
		Reenter:      reenter,
		Log:          lg,
		Rand:         rand.Uint32,
		LevelLimit:   LevelLimit,
		overflowWarn: log.NewRatelimiter(defaultRatelimitInterval),
		loopWarn:     log.NewRatelimiter(defaultRatelimitInterval),
		cores:        make([]coreState, numCores),
	}
}
