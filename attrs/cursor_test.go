package attrs

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// encodeAttr appends one nlattr-shaped entry: a 4-byte header followed
// by data, padded to a 4-byte boundary.
func encodeAttr(buf []byte, op Opcode, data []byte) []byte {
	hdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(headerLen+len(data)))
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(op))
	buf = append(buf, hdr...)
	buf = append(buf, data...)
	pad := alignUp(len(data)) - len(data)
	buf = append(buf, make([]byte, pad)...)
	return buf
}

func TestCursorWalksInOrder(t *testing.T) {
	var stream []byte
	stream = encodeAttr(stream, Output, []byte{0, 0, 0, 1})
	stream = encodeAttr(stream, PopVLAN, nil)
	stream = encodeAttr(stream, Hash, []byte{0, 0, 0, 2})

	c := NewCursor(NewList(stream))

	var gotOps []Opcode
	for {
		a, ok := c.Next()
		if !ok {
			break
		}
		gotOps = append(gotOps, a.Opcode)
	}
	if c.Err() != nil {
		t.Fatalf("unexpected error: %v", c.Err())
	}
	want := []Opcode{Output, PopVLAN, Hash}
	if len(gotOps) != len(want) {
		t.Fatalf("got %v, want %v", gotOps, want)
	}
	for i := range want {
		if gotOps[i] != want[i] {
			t.Fatalf("attr %d: got %v want %v", i, gotOps[i], want[i])
		}
	}
}

func TestIsLastTrueOnlyForTrailing4ByteAlignedAttr(t *testing.T) {
	// Output (aligned) followed by a 1-byte attr (unaligned, trailing).
	var stream []byte
	stream = encodeAttr(stream, Output, []byte{0, 0, 0, 1})
	stream = encodeAttr(stream, PushVLAN, []byte{0xAB})

	c := NewCursor(NewList(stream))
	first, ok := c.Next()
	if !ok || first.IsLast() {
		t.Fatalf("first attr must not be last")
	}
	second, ok := c.Next()
	if !ok {
		t.Fatalf("expected second attr")
	}
	if second.IsLast() {
		t.Fatalf("trailing unaligned attr with pad bytes should report IsLast false")
	}
}

func TestNextDetectsTruncatedHeader(t *testing.T) {
	c := NewCursor(NewList([]byte{0, 1}))
	if _, ok := c.Next(); ok {
		t.Fatalf("expected failure on truncated header")
	}
	if c.Err() == nil {
		t.Fatalf("expected Err to be set")
	}
}

func TestNextDetectsLengthOverrun(t *testing.T) {
	hdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint16(hdr[0:2], 100)
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(Output))
	c := NewCursor(NewList(hdr))
	if _, ok := c.Next(); ok {
		t.Fatalf("expected failure on length overrun")
	}
	if c.Err() == nil {
		t.Fatalf("expected Err to be set")
	}
}

func TestDecodeSampleRoundTrips(t *testing.T) {
	var inner []byte
	inner = encodeAttr(inner, Output, []byte{0, 0, 0, 7})

	var nested []byte
	probHdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint16(probHdr[0:2], uint16(headerLen+4))
	binary.LittleEndian.PutUint16(probHdr[2:4], uint16(SampleProbability))
	nested = append(nested, probHdr...)
	probVal := make([]byte, 4)
	binary.LittleEndian.PutUint32(probVal, 1<<30)
	nested = append(nested, probVal...)

	actHdr := make([]byte, headerLen)
	binary.LittleEndian.PutUint16(actHdr[0:2], uint16(headerLen+len(inner)))
	binary.LittleEndian.PutUint16(actHdr[2:4], uint16(SampleActions))
	nested = append(nested, actHdr...)
	nested = append(nested, inner...)

	s, err := DecodeSample(nested)
	if err != nil {
		t.Fatal(err)
	}
	if s.Probability != 1<<30 {
		t.Fatalf("probability = %d", s.Probability)
	}
	if !bytes.Equal(s.Actions.Bytes(), inner) {
		t.Fatalf("actions bytes mismatch")
	}
}
