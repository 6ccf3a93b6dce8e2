package rfx

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// Frame is a structurally valid, length-delimited record. Payload aliases the
// caller's buffer; readings decoded from it never do.
type Frame struct {
	DeclaredLength byte
	PacketType     byte
	// Payload is every byte after the packet type, marker included.
	Payload []byte
	// Marker is the vendor tag matched at the tail of Payload, if the family has one.
	Marker []byte
}

// Subtype returns the first payload byte.
func (f Frame) Subtype() byte {
	return f.Payload[0]
}

// Body returns the payload without its trailing marker.
func (f Frame) Body() []byte {
	return f.Payload[:len(f.Payload)-len(f.Marker)]
}

// Validate checks the declared length, the minimum size and, for families that
// carry one, the trailing vendor marker. It never looks at subtype-specific fields.
// Packet types outside the dispatch table pass if they are otherwise well formed.
func Validate(raw []byte) (Frame, error) {
	if len(raw) < 2 {
		return Frame{}, &FrameError{
			Kind:   KindTooShort,
			Detail: fmt.Sprintf("%d bytes, need at least a length and packet type", len(raw)),
		}
	}

	f := Frame{
		DeclaredLength: raw[0],
		PacketType:     raw[1],
		Payload:        raw[2:],
	}

	if int(f.DeclaredLength) != 1+len(f.Payload) {
		return f, newFrameError(KindLengthMismatch, f.PacketType,
			"declared %d, frame carries %d", f.DeclaredLength, 1+len(f.Payload))
	}
	if len(f.Payload) < MinPayload {
		return f, newFrameError(KindTooShort, f.PacketType,
			"payload %d bytes, minimum %d", len(f.Payload), MinPayload)
	}

	spec, ok := lookupSpec(f.PacketType)
	if !ok {
		return f, nil
	}
	if len(f.Payload) < spec.minPayload() {
		return f, newFrameError(KindTooShort, f.PacketType,
			"payload %d bytes, family %s needs %d", len(f.Payload), spec.Family, spec.minPayload())
	}
	if spec.Marked {
		marker := matchMarker(f.Payload)
		if marker == nil {
			return f, newFrameError(KindBadMarker, f.PacketType,
				"payload does not end with %q", vendorMarker)
		}
		f.Marker = marker
		if len(f.Body()) < spec.BodyLen {
			return f, newFrameError(KindTooShort, f.PacketType,
				"body %d bytes before marker, family %s needs %d", len(f.Body()), spec.Family, spec.BodyLen)
		}
	}
	return f, nil
}

func matchMarker(payload []byte) []byte {
	switch {
	case bytes.HasSuffix(payload, vendorMarker):
		return payload[len(payload)-len(vendorMarker):]
	case bytes.HasSuffix(payload, vendorMarkerShort):
		return payload[len(payload)-len(vendorMarkerShort):]
	}
	return nil
}

// ParseHex decodes a hex frame as typed by people or logged by gateway tools.
// Whitespace, '|', '_' and ':' separators and a leading 0x are ignored.
func ParseHex(s string) ([]byte, error) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' || r == ':' {
			continue
		}
		b.WriteRune(r)
	}
	clean := b.String()
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex frame must contain an even number of digits, got %d", len(clean))
	}
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return out, nil
}
