package rfx

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		raw        []byte
		wantKind   ErrorKind
		wantMarker string
		wantBody   int
	}{
		{
			name:     "temperature rain",
			raw:      frame(PacketTypeTemperatureRain, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42),
			wantBody: 9,
		},
		{
			name:     "unknown type passes structural checks",
			raw:      frame(0x30, 0, 0, 0, 0, 0, 0, 0),
			wantBody: 7,
		},
		{
			name:       "full vendor marker",
			raw:        nodeCapture,
			wantMarker: "RFXCOM",
			wantBody:   13,
		},
		{
			name:       "short vendor marker",
			raw:        frame(PacketTypeInterfaceMessage, 0, 1, 2, 3, 4, 5, 6, 7, 8, 'X', 'C', 'O', 'M'),
			wantMarker: "XCOM",
			wantBody:   9,
		},
		{
			name:     "marker required",
			raw:      frame(PacketTypeInterfaceMessage, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12),
			wantKind: KindBadMarker,
		},
		{
			name:     "length mismatch",
			raw:      []byte{0x02, 0x4F, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42},
			wantKind: KindLengthMismatch,
		},
		{
			name:     "seven byte payload for nine byte family",
			raw:      frame(PacketTypeTemperatureRain, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02),
			wantKind: KindTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Validate(tt.raw)
			if tt.wantKind != 0 {
				if got := KindOf(err); got != tt.wantKind {
					t.Fatalf("Validate() kind = %v, want %v (err %v)", got, tt.wantKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if string(f.Marker) != tt.wantMarker {
				t.Errorf("Marker = %q, want %q", f.Marker, tt.wantMarker)
			}
			if len(f.Body()) != tt.wantBody {
				t.Errorf("len(Body()) = %d, want %d", len(f.Body()), tt.wantBody)
			}
			if int(f.DeclaredLength) != len(f.Payload)+1 {
				t.Errorf("DeclaredLength = %d, payload %d", f.DeclaredLength, len(f.Payload))
			}
		})
	}
}

func TestFrameErrorMessage(t *testing.T) {
	_, err := Validate([]byte{0x05, 0x4F, 0x01})
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	want := "rfx: packet type 0x4F: declared length mismatch: declared 5, frame carries 2"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if KindLengthMismatch.String() != "length_mismatch" {
		t.Errorf("String() = %q", KindLengthMismatch.String())
	}
	if ErrorKind(42).String() != "kind(42)" {
		t.Errorf("String() = %q", ErrorKind(42).String())
	}
}
