package attrs

import (
	"encoding/binary"
	"errors"
)

// ErrMalformed is returned when an action list's header framing is
// truncated or internally inconsistent.
var ErrMalformed = errors.New("attrs: malformed attribute stream")

const (
	headerLen = 4
	align     = 4
)

func alignUp(n int) int { return (n + align - 1) &^ (align - 1) }

// List is a single action list: an ordered, length-prefixed stream of
// (opcode, payload) attributes, as produced upstream of this engine by
// the flow table (out of scope, per spec.md §1). It mirrors the nlattr
// stream walked by original_source's do_execute_actions via
// nla_for_each_attr.
type List struct {
	buf []byte
}

// NewList wraps buf as an action list without copying it; buf must not
// be mutated while the list or any Cursor over it is in use.
func NewList(buf []byte) List { return List{buf: buf} }

func (l List) Bytes() []byte { return l.buf }

// Cursor walks a List one attribute at a time. It exists because
// github.com/mdlayher/netlink's AttributeDecoder is built for flat,
// unordered-friendly decoding of a fully-buffered attribute set; this
// engine instead needs the exact remaining-byte bookkeeping that
// original_source's last_action(a, rem) depends on (a SAMPLE action's
// fast path takes effect only when its nested USERSPACE action is both
// the first and the last action of the sample's nested list). See
// SPEC_FULL.md §4.A.
type Cursor struct {
	rest []byte
	err  error
}

// NewCursor begins a walk at the start of l.
func NewCursor(l List) *Cursor { return &Cursor{rest: l.buf} }

// Attr is one decoded (opcode, payload) pair together with the
// point-in-stream bookkeeping last_action needs.
type Attr struct {
	Opcode Opcode
	Data   []byte

	// rem is len(stream) as observed immediately before this
	// attribute's header was consumed, mirroring nla_for_each_attr's
	// `rem` parameter at the point actions.c passes it to last_action.
	rem int
}

// IsLast reports whether this attribute exactly consumes the stream's
// remaining bytes with no padding after it, i.e. original_source's
// `a->nla_len == rem`. A single trailing attribute whose length isn't
// a multiple of 4 has trailing pad bytes counted in rem that aren't
// counted in nla_len, so in that case this (correctly) reports false.
func (a Attr) IsLast() bool { return headerLen+len(a.Data) == a.rem }

// Err returns the first error encountered by Next, sticky across
// further calls.
func (c *Cursor) Err() error { return c.err }

// Next decodes the next attribute, or returns ok=false at end of
// stream (or after the first error, which Err then reports).
func (c *Cursor) Next() (attr Attr, ok bool) {
	if c.err != nil {
		return Attr{}, false
	}
	if len(c.rest) == 0 {
		return Attr{}, false
	}
	if len(c.rest) < headerLen {
		c.err = ErrMalformed
		return Attr{}, false
	}

	nlaLen := int(binary.LittleEndian.Uint16(c.rest[0:2]))
	nlaType := binary.LittleEndian.Uint16(c.rest[2:4])

	if nlaLen < headerLen || nlaLen > len(c.rest) {
		c.err = ErrMalformed
		return Attr{}, false
	}

	rem := len(c.rest)
	data := c.rest[headerLen:nlaLen]

	consumed := alignUp(nlaLen)
	if consumed > len(c.rest) {
		// Last attribute in the stream: padding isn't guaranteed to be
		// physically present, only its unpadded length is. Matches
		// nla_for_each_attr's handling of the final entry.
		consumed = len(c.rest)
	}
	c.rest = c.rest[consumed:]

	return Attr{Opcode: Opcode(nlaType), Data: data, rem: rem}, true
}

// Remaining reports how many bytes are left to decode.
func (c *Cursor) Remaining() int { return len(c.rest) }
