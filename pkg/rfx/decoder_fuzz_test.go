//go:build fuzz
// +build fuzz

package rfx

import (
	"errors"
	"testing"
)

// FuzzDecode checks that no input panics and that every failure is a *FrameError.
func FuzzDecode(f *testing.F) {
	cl, err := Calibrate(PacketTypeTemperatureHumidity, rfxmngrLayout, []ReferenceVector{{
		Name:  "seed",
		Frame: []byte{0x0A, 0x52, 0x0D, 0x35, 0x68, 0x03, 0x00, 0xD4, 0x27, 0x02, 0x89},
		Want:  rfxmngrReading,
	}})
	if err != nil {
		f.Fatalf("calibrate: %v", err)
	}
	dec := NewDecoder(WithCalibratedLayout(cl))

	f.Add([]byte{})
	f.Add([]byte{0x0A, 0x4F, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42})
	f.Add([]byte{0x0A, 0x52, 0x0D, 0x35, 0x68, 0x03, 0x00, 0xD4, 0x27, 0x02, 0x89})
	f.Add(nodeCapture)

	f.Fuzz(func(t *testing.T, raw []byte) {
		res, err := dec.Decode(raw)
		if err != nil {
			var fe *FrameError
			if !errors.As(err, &fe) {
				t.Fatalf("error %v is %T, want *FrameError", err, err)
			}
			if res.Reading != nil {
				t.Fatalf("reading %v returned with error %v", res.Reading, err)
			}
			return
		}
		if res.Reading == nil {
			t.Fatalf("no reading and no error for % X", raw)
		}
		if res.Reading.Family() != res.Family {
			t.Fatalf("reading family %s, result family %s", res.Reading.Family(), res.Family)
		}
	})
}
