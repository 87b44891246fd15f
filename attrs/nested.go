package attrs

import (
	"fmt"

	"github.com/mdlayher/netlink"
)

// Sample is a decoded SAMPLE action: probability is a 32-bit fraction
// of MaxUint32 (matching original_source's u32 probability field), and
// Actions is the nested action list to execute when the sample fires.
type Sample struct {
	Probability uint32
	Actions     List
}

// DecodeSample decodes a SAMPLE action's nested PROBABILITY/ACTIONS
// sub-attributes. Unlike the top-level list, these are a small,
// unordered, fixed-shape set, so they go through
// github.com/mdlayher/netlink's AttributeDecoder rather than Cursor.
func DecodeSample(data []byte) (Sample, error) {
	ad, err := netlink.NewAttributeDecoder(data)
	if err != nil {
		return Sample{}, fmt.Errorf("attrs: decode sample: %w", err)
	}

	var s Sample
	var sawProbability, sawActions bool
	for ad.Next() {
		switch SampleField(ad.Type()) {
		case SampleProbability:
			s.Probability = ad.Uint32()
			sawProbability = true
		case SampleActions:
			s.Actions = NewList(ad.Bytes())
			sawActions = true
		}
	}
	if err := ad.Err(); err != nil {
		return Sample{}, fmt.Errorf("attrs: decode sample: %w", err)
	}
	if !sawProbability || !sawActions {
		return Sample{}, fmt.Errorf("%w: sample missing probability or actions", ErrMalformed)
	}
	return s, nil
}

// Userspace is a decoded USERSPACE action.
type Userspace struct {
	PID uint32
	// UserData is the opaque cookie forwarded to the Upcaller verbatim.
	UserData []byte
	// EgressTunPort, when present, names a port whose tunnel egress
	// info should be resolved and attached to the upcall (see
	// SPEC_FULL.md §9, "egress tunnel info").
	EgressTunPort    uint32
	HasEgressTunPort bool
}

// DecodeUserspace decodes a USERSPACE action's nested sub-attributes.
func DecodeUserspace(data []byte) (Userspace, error) {
	ad, err := netlink.NewAttributeDecoder(data)
	if err != nil {
		return Userspace{}, fmt.Errorf("attrs: decode userspace: %w", err)
	}

	var u Userspace
	for ad.Next() {
		switch UserspaceField(ad.Type()) {
		case UserspacePID:
			u.PID = ad.Uint32()
		case UserspaceUserData:
			u.UserData = append([]byte(nil), ad.Bytes()...)
		case UserspaceEgressTunPort:
			u.EgressTunPort = ad.Uint32()
			u.HasEgressTunPort = true
		}
	}
	if err := ad.Err(); err != nil {
		return Userspace{}, fmt.Errorf("attrs: decode userspace: %w", err)
	}
	return u, nil
}
