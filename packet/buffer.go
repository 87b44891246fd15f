// Package packet implements the packet-buffer adaptor: a mutable byte
// buffer with a layered view (mac/network/transport offsets) and a
// checksum mode, modeled on the sk_buff contract assumed by
// original_source/datapath/actions.c (pskb_may_pull, skb_cow_head,
// skb_clone, skb_push/skb_pull). Every mutator in package actions goes
// through this type; nothing here interprets protocol headers.
package packet

import (
	"errors"
	"sync/atomic"
)

// ChecksumMode mirrors skb->ip_summed.
type ChecksumMode int

const (
	ChecksumNone ChecksumMode = iota
	ChecksumUnnecessary
	ChecksumComplete
	ChecksumPartial
)

// DefaultHeadroom is reserved ahead of the mac header on a freshly built
// Buffer so that a handful of PUSH_VLAN/PUSH_MPLS actions don't force a
// reallocation, mirroring typical skb reserve() behavior.
const DefaultHeadroom = 64

var (
	// ErrOutOfMemory is returned when ensure_writable-equivalent growth or
	// a clone cannot be satisfied. Per the adaptor contract, returning
	// this error NEVER frees the packet; the caller (the action executor)
	// decides what to do with it.
	ErrOutOfMemory = errors.New("packet: out of memory")
)

// AlreadyFreed wraps an error to signal that the packet has already been
// freed by the mutator that produced it (the push_vlan committed-path
// case from spec §4.1/§7): the executor must not free it a second time.
type AlreadyFreed struct{ Err error }

func (e *AlreadyFreed) Error() string { return e.Err.Error() }
func (e *AlreadyFreed) Unwrap() error { return e.Err }

// Allocator is the seam through which all growth/clone allocation flows.
// Production code uses DefaultAllocator, which never fails; tests inject
// a constrained allocator to exercise the OOM paths that a real
// non-sleeping (GFP_ATOMIC-equivalent) allocator can take.
type Allocator interface {
	// Alloc must return a zeroed slice of length n, or ErrOutOfMemory.
	Alloc(n int) ([]byte, error)
}

type defaultAllocator struct{}

func (defaultAllocator) Alloc(n int) ([]byte, error) { return make([]byte, n), nil }

// DefaultAllocator never fails.
var DefaultAllocator Allocator = defaultAllocator{}

type shared struct {
	refs int32
}

// Buffer is the packet-buffer adaptor. Zero value is not usable; build
// one with New.
type Buffer struct {
	raw  []byte
	head int
	tail int

	sh    *shared
	alloc Allocator

	MacOffset       int
	MacLen          int
	NetworkOffset   int
	TransportOffset int

	// Protocol is the packet's active outer ethertype (skb->protocol),
	// tracked separately from the bytes written into the ethernet header
	// because it can diverge from them when a VLAN tag is carried
	// out-of-band in the hardware-accel slot.
	Protocol uint16

	// InnerProto records the ethertype displaced by the first PUSH_MPLS,
	// restored by the matching POP_MPLS (ovs_skb_{get,set}_inner_protocol).
	InnerProto uint16

	ChecksumMode ChecksumMode
	// Csum is an unfolded one's-complement accumulator (skb->csum),
	// meaningful only when ChecksumMode == ChecksumComplete.
	Csum Sum

	VLAN VLANTag

	hash uint32

	// onFree, when set, is invoked by Free/Consume; used by tests to
	// observe drops (e.g. FIFO-overflow free, clone-allocation skip).
	onFree func()
}

// VLANTag is the hardware-accel out-of-band VLAN slot.
type VLANTag struct {
	Present bool
	TPID    uint16
	TCI     uint16
}

// New builds a Buffer from payload, reserving headroom bytes ahead of it.
// mac/network/transport offsets all start at 0 (the start of payload);
// callers (typically the key extractor, out of scope here) set them once
// the layering is known.
func New(payload []byte, headroom int) *Buffer {
	return NewWithAllocator(payload, headroom, DefaultAllocator)
}

func NewWithAllocator(payload []byte, headroom int, alloc Allocator) *Buffer {
	if headroom < 0 {
		headroom = 0
	}
	raw := make([]byte, headroom+len(payload))
	copy(raw[headroom:], payload)
	return &Buffer{
		raw:   raw,
		head:  headroom,
		tail:  headroom + len(payload),
		sh:    &shared{refs: 1},
		alloc: alloc,
	}
}

// Len returns the number of valid bytes currently in the buffer.
func (b *Buffer) Len() int { return b.tail - b.head }

// Bytes returns the valid packet bytes. The slice is invalidated by any
// subsequent PushFront/PullFront/EnsureWritable call that triggers a
// reallocation; callers must re-derive it after every mutation, per the
// adaptor's aliasing contract.
func (b *Buffer) Bytes() []byte { return b.raw[b.head:b.tail] }

// MacHeader returns the bytes starting at the mac header.
func (b *Buffer) MacHeader() []byte { return b.Bytes()[b.MacOffset:] }

// MacHeaderEnd returns the bytes immediately following the mac header
// (the top of the MPLS label stack when one is present, otherwise the
// start of the network header).
func (b *Buffer) MacHeaderEnd() []byte { return b.Bytes()[b.MacOffset+b.MacLen:] }

// NetworkHeader returns the bytes starting at the network header.
func (b *Buffer) NetworkHeader() []byte { return b.Bytes()[b.NetworkOffset:] }

// TransportHeader returns the bytes starting at the transport header.
func (b *Buffer) TransportHeader() []byte { return b.Bytes()[b.TransportOffset:] }

// TransportLen returns the number of bytes from the transport header to
// the end of the packet.
func (b *Buffer) TransportLen() int { return b.Len() - b.TransportOffset }

// Hash returns the cached receive-hash (skb_get_hash), set externally by
// the key extractor and cleared by any mutation.
func (b *Buffer) Hash() uint32 { return b.hash }

// SetHash sets the cached receive-hash; used by callers outside this
// engine (the key extractor) to seed the value HASH mixes with its basis.
func (b *Buffer) SetHash(h uint32) { b.hash = h }

// ClearHash clears the cached receive-hash (skb_clear_hash). The IPv4 and
// IPv6 address rewrites and the TCP, UDP and SCTP port rewrites call
// this; the Ethernet, VLAN and MPLS mutators, the IPv4 TOS/TTL rewrite
// and the IPv6 traffic-class/flow-label/hop-limit rewrite leave the
// cached hash unchanged.
func (b *Buffer) ClearHash() { b.hash = 0 }

// isShared reports whether another clone still references the backing array.
func (b *Buffer) isShared() bool { return atomic.LoadInt32(&b.sh.refs) > 1 }

// ensureOwned makes a private copy of the backing array if it is
// currently shared with a clone (copy-on-write), matching
// skb_clone_writable/pskb_expand_head.
func (b *Buffer) ensureOwned() error {
	if !b.isShared() {
		return nil
	}
	nr, err := b.alloc.Alloc(len(b.raw))
	if err != nil {
		return ErrOutOfMemory
	}
	copy(nr, b.raw)
	atomic.AddInt32(&b.sh.refs, -1)
	b.raw = nr
	b.sh = &shared{refs: 1}
	return nil
}

// EnsureWritable guarantees that n bytes are linearly accessible starting
// at the current head, and that the region is not shared with any other
// owner. On failure it returns ErrOutOfMemory and never frees the
// packet — that rule is load-bearing for every caller in package actions.
func (b *Buffer) EnsureWritable(n int) error {
	if b.Len() < n {
		return ErrOutOfMemory
	}
	return b.ensureOwned()
}

// PushFront grows the buffer by n bytes at the front (reallocating with
// extra headroom if none remains) and returns the freshly exposed
// leading region for the caller to fill in. The region is not cleared:
// it can still hold bytes an earlier PullFront released. Matches
// skb_cow_head + skb_push.
func (b *Buffer) PushFront(n int) ([]byte, error) {
	if err := b.ensureOwned(); err != nil {
		return nil, err
	}
	if b.head < n {
		need := n - b.head + DefaultHeadroom
		nr, err := b.alloc.Alloc(len(b.raw) + need)
		if err != nil {
			return nil, ErrOutOfMemory
		}
		newHead := b.head + need
		copy(nr[newHead:newHead+b.Len()], b.Bytes())
		b.raw = nr
		b.tail = newHead + b.Len()
		b.head = newHead
	}
	b.head -= n
	return b.raw[b.head : b.head+n], nil
}

// PullFront removes and returns the first n bytes, advancing head.
// Callers must have already confirmed Len() >= n (typically via
// EnsureWritable). Matches __skb_pull.
func (b *Buffer) PullFront(n int) []byte {
	out := make([]byte, n)
	copy(out, b.raw[b.head:b.head+n])
	b.head += n
	return out
}

// Clone returns an independent owner sharing the same backing array until
// one side mutates (copy-on-write via ensureOwned). Clone allocation is
// routed through the Allocator seam so tests can exercise the
// "clone fails under memory pressure, skip this fork" paths required by
// SAMPLE and the prev_port staging optimization.
func (b *Buffer) Clone() (*Buffer, error) {
	if _, err := b.alloc.Alloc(0); err != nil {
		return nil, ErrOutOfMemory
	}
	atomic.AddInt32(&b.sh.refs, 1)
	nb := *b
	return &nb, nil
}

// Free releases the packet with a drop notification (the common error
// path: mutator failed, packet is gone).
func (b *Buffer) Free() {
	atomic.AddInt32(&b.sh.refs, -1)
	if b.onFree != nil {
		b.onFree()
	}
}

// Consume releases the packet without a drop notification — the
// successful-completion path at the end of the executor loop. The free
// hook still fires: tests use it to count releases regardless of path.
func (b *Buffer) Consume() {
	atomic.AddInt32(&b.sh.refs, -1)
	if b.onFree != nil {
		b.onFree()
	}
}

// SetFreeHook installs a callback invoked by Free/Consume; for tests only.
func (b *Buffer) SetFreeHook(f func()) { b.onFree = f }
