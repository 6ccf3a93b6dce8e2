package rfx

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a frame could not be decoded.
type ErrorKind uint8

const (
	// KindTooShort means the frame or its payload is below the minimum size.
	KindTooShort ErrorKind = iota + 1
	// KindLengthMismatch means the declared length byte disagrees with the frame size.
	KindLengthMismatch
	// KindBadMarker means a required trailing vendor tag is missing or corrupt.
	KindBadMarker
	// KindUnknownFamily means the packet type/subtype pair is not in the dispatch table.
	KindUnknownFamily
	// KindUnsupportedFamily means the family is known but its field layout has not
	// been calibrated against reference packets.
	KindUnsupportedFamily
)

// Sentinel errors for use with errors.Is.
var (
	ErrTooShort          = errors.New("frame too short")
	ErrLengthMismatch    = errors.New("declared length mismatch")
	ErrBadMarker         = errors.New("bad vendor marker")
	ErrUnknownFamily     = errors.New("unknown packet family")
	ErrUnsupportedFamily = errors.New("unsupported packet family")
)

var kindNames = map[ErrorKind]string{
	KindTooShort:          "too_short",
	KindLengthMismatch:    "length_mismatch",
	KindBadMarker:         "bad_marker",
	KindUnknownFamily:     "unknown_family",
	KindUnsupportedFamily: "unsupported_family",
}

// String returns the snake_case name used in logs and API responses.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTooShort:
		return ErrTooShort
	case KindLengthMismatch:
		return ErrLengthMismatch
	case KindBadMarker:
		return ErrBadMarker
	case KindUnknownFamily:
		return ErrUnknownFamily
	case KindUnsupportedFamily:
		return ErrUnsupportedFamily
	}
	return nil
}

// FrameError is returned for every frame the decoder rejects.
type FrameError struct {
	Kind       ErrorKind
	PacketType byte
	Subtype    byte
	Detail     string
}

func (e *FrameError) Error() string {
	msg := fmt.Sprintf("rfx: packet type 0x%02X: %v", e.PacketType, e.Kind.sentinel())
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is reports whether target is the sentinel for this error's kind.
func (e *FrameError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newFrameError(kind ErrorKind, packetType byte, format string, args ...any) *FrameError {
	return &FrameError{
		Kind:       kind,
		PacketType: packetType,
		Detail:     fmt.Sprintf(format, args...),
	}
}

// KindOf extracts the ErrorKind from err, or 0 if err is not a *FrameError.
func KindOf(err error) ErrorKind {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
