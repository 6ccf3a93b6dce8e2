package rfx

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame prefixes payload with a correct length byte and the packet type.
func frame(packetType byte, payload ...byte) []byte {
	out := make([]byte, 0, len(payload)+2)
	out = append(out, byte(len(payload)+1), packetType)
	return append(out, payload...)
}

func TestDecodeTemperatureRain(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    TemperatureRainReading
	}{
		{
			name:    "positive temperature",
			payload: []byte{0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42},
			want: TemperatureRainReading{
				Subtype: 0x01, Sequence: 0x01, SensorID: 0xDEAD,
				Temperature: 330, Rainfall: 750, BatteryLevel: 2, SignalLevel: 4,
			},
		},
		{
			name:    "negative temperature",
			payload: []byte{0x01, 0x01, 0xDE, 0xAD, 0x80, 0x64, 0x02, 0xEE, 0x42},
			want: TemperatureRainReading{
				Subtype: 0x01, Sequence: 0x01, SensorID: 0xDEAD,
				Temperature: -100, Rainfall: 750, BatteryLevel: 2, SignalLevel: 4,
			},
		},
		{
			name:    "fractional temperature",
			payload: []byte{0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4D, 0x02, 0xEE, 0x42},
			want: TemperatureRainReading{
				Subtype: 0x01, Sequence: 0x01, SensorID: 0xDEAD,
				Temperature: 333, Rainfall: 750, BatteryLevel: 2, SignalLevel: 4,
			},
		},
	}

	dec := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := dec.Decode(frame(PacketTypeTemperatureRain, tt.payload...))
			require.NoError(t, err)
			assert.Equal(t, PacketTypeTemperatureRain, res.PacketType)
			assert.Equal(t, FamilyTemperatureRain, res.Family)
			assert.Equal(t, "WS1200", res.Model)
			assert.Equal(t, tt.want, res.Reading)
		})
	}
}

func TestTemperatureRainUnits(t *testing.T) {
	res, err := NewDecoder().DecodeHex("0A 4F 01 01 DE AD 01 4D 02 EE 42")
	require.NoError(t, err)

	r, ok := res.Reading.(TemperatureRainReading)
	require.True(t, ok, "reading is %T", res.Reading)
	assert.InDelta(t, 33.3, r.Temperature.Celsius(), 1e-9)
	assert.InDelta(t, 75.0, r.Rainfall.Millimetres(), 1e-9)
	assert.Equal(t, "33.3°C", r.Temperature.String())
	assert.Equal(t, "75.0mm", r.Rainfall.String())
	assert.Equal(t, "-10.0°C", TenthsCelsius(-100).String())
}

func TestDecodeTemperatureRainIsTotal(t *testing.T) {
	dec := NewDecoder()
	payload := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	// Every value of every field byte, one position at a time.
	for pos := 1; pos < len(payload); pos++ {
		for v := 0; v < 256; v++ {
			p := append([]byte(nil), payload...)
			p[pos] = byte(v)
			if _, err := dec.Decode(frame(PacketTypeTemperatureRain, p...)); err != nil {
				t.Fatalf("payload % X: %v", p, err)
			}
		}
	}

	// Trailing bytes beyond the fixed fields are ignored.
	long := append(append([]byte(nil), payload...), 0xFF, 0xFF)
	_, err := dec.Decode(frame(PacketTypeTemperatureRain, long...))
	assert.NoError(t, err)
}

func TestSignBit(t *testing.T) {
	for hi := 0; hi < 256; hi++ {
		for _, lo := range []byte{0x00, 0x01, 0x7F, 0x80, 0xFF} {
			got := signedTenths(byte(hi), lo)
			magnitude := int(hi&0x7F)<<8 | int(lo)

			if hi&0x80 != 0 {
				if magnitude != 0 && got >= 0 {
					t.Fatalf("hi=0x%02X lo=0x%02X: got %d, want negative", hi, lo, got)
				}
				if int(-got) != magnitude {
					t.Fatalf("hi=0x%02X lo=0x%02X: got %d, want -%d", hi, lo, got, magnitude)
				}
				continue
			}
			if int(got) != magnitude {
				t.Fatalf("hi=0x%02X lo=0x%02X: got %d, want %d", hi, lo, got, magnitude)
			}
		}
	}
}

func TestStatusNibbles(t *testing.T) {
	dec := NewDecoder()
	for s := 0; s < 256; s++ {
		res, err := dec.Decode(frame(PacketTypeTemperatureRain,
			0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, byte(s)))
		require.NoError(t, err)

		r := res.Reading.(TemperatureRainReading)
		if r.BatteryLevel > 15 || r.SignalLevel > 15 {
			t.Fatalf("status 0x%02X: battery %d signal %d out of range", s, r.BatteryLevel, r.SignalLevel)
		}
		if got := r.BatteryLevel | r.SignalLevel<<4; int(got) != s {
			t.Fatalf("status 0x%02X reconstructs to 0x%02X", s, got)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	body := []byte{0x00, 0x35, 0x68, 0x03, 0x00, 0xD4, 0x27, 0x02, 0x89}
	marked := func(tag string) []byte {
		return frame(PacketTypeInterfaceMessage, append(append([]byte(nil), body...), tag...)...)
	}

	tests := []struct {
		name           string
		raw            []byte
		wantKind       ErrorKind
		wantSentinel   error
		wantPacketType byte
	}{
		{
			name:         "empty",
			raw:          nil,
			wantKind:     KindTooShort,
			wantSentinel: ErrTooShort,
		},
		{
			name:         "length byte only",
			raw:          []byte{0x01},
			wantKind:     KindTooShort,
			wantSentinel: ErrTooShort,
		},
		{
			name:           "declared length too large",
			raw:            []byte{0x0B, 0x4F, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42},
			wantKind:       KindLengthMismatch,
			wantSentinel:   ErrLengthMismatch,
			wantPacketType: 0x4F,
		},
		{
			name:           "declared length too small",
			raw:            []byte{0x09, 0x4F, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42},
			wantKind:       KindLengthMismatch,
			wantSentinel:   ErrLengthMismatch,
			wantPacketType: 0x4F,
		},
		{
			name:           "payload below global minimum",
			raw:            frame(0x4F, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A),
			wantKind:       KindTooShort,
			wantSentinel:   ErrTooShort,
			wantPacketType: 0x4F,
		},
		{
			name:           "payload below family minimum",
			raw:            frame(0x4F, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE),
			wantKind:       KindTooShort,
			wantSentinel:   ErrTooShort,
			wantPacketType: 0x4F,
		},
		{
			name:           "unknown packet type",
			raw:            frame(0x20, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07),
			wantKind:       KindUnknownFamily,
			wantSentinel:   ErrUnknownFamily,
			wantPacketType: 0x20,
		},
		{
			name:           "unknown subtype",
			raw:            frame(0x4F, 0x02, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42),
			wantKind:       KindUnknownFamily,
			wantSentinel:   ErrUnknownFamily,
			wantPacketType: 0x4F,
		},
		{
			name:           "missing marker",
			raw:            frame(PacketTypeInterfaceMessage, append(append([]byte(nil), body...), 0, 0, 0, 0, 0, 0)...),
			wantKind:       KindBadMarker,
			wantSentinel:   ErrBadMarker,
			wantPacketType: PacketTypeInterfaceMessage,
		},
		{
			name:           "corrupt marker",
			raw:            marked("RFXCON"),
			wantKind:       KindBadMarker,
			wantSentinel:   ErrBadMarker,
			wantPacketType: PacketTypeInterfaceMessage,
		},
		{
			name:           "full marker but uncalibrated",
			raw:            marked("RFXCOM"),
			wantKind:       KindUnsupportedFamily,
			wantSentinel:   ErrUnsupportedFamily,
			wantPacketType: PacketTypeInterfaceMessage,
		},
		{
			name:           "short marker but uncalibrated",
			raw:            marked("XCOM"),
			wantKind:       KindUnsupportedFamily,
			wantSentinel:   ErrUnsupportedFamily,
			wantPacketType: PacketTypeInterfaceMessage,
		},
		{
			name:           "marked body too short",
			raw:            frame(PacketTypeInterfaceMessage, 0x00, 0x01, 0x02, 0x03, 'R', 'F', 'X', 'C', 'O', 'M'),
			wantKind:       KindTooShort,
			wantSentinel:   ErrTooShort,
			wantPacketType: PacketTypeInterfaceMessage,
		},
		{
			name:           "temperature humidity uncalibrated",
			raw:            frame(PacketTypeTemperatureHumidity, 0x0D, 0x35, 0x68, 0x03, 0x00, 0xD4, 0x27, 0x02, 0x89),
			wantKind:       KindUnsupportedFamily,
			wantSentinel:   ErrUnsupportedFamily,
			wantPacketType: PacketTypeTemperatureHumidity,
		},
	}

	dec := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := dec.Decode(tt.raw)
			require.Error(t, err)
			assert.Nil(t, res.Reading)
			assert.Equal(t, tt.wantPacketType, res.PacketType)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.True(t, errors.Is(err, tt.wantSentinel), "%v is not %v", err, tt.wantSentinel)

			var fe *FrameError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantPacketType, fe.PacketType)
		})
	}
}

func TestMarkerCheckIgnoresFieldBytes(t *testing.T) {
	dec := NewDecoder()
	for _, fill := range []byte{0x00, 0x55, 0xFF} {
		payload := []byte{0x00, fill, fill, fill, fill, fill, fill, fill, fill, 'R', 'F', 'X', 'C', 'O', 'X'}
		_, err := dec.Decode(frame(PacketTypeInterfaceMessage, payload...))
		assert.ErrorIs(t, err, ErrBadMarker, "fill 0x%02X", fill)
	}
}

func TestFailureDoesNotAffectNextFrame(t *testing.T) {
	dec := NewDecoder()
	good := frame(PacketTypeTemperatureRain, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42)

	_, err := dec.Decode([]byte{0xFF, 0x4F, 0x01})
	require.Error(t, err)

	res, err := dec.Decode(good)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xDEAD), res.Reading.Sensor())
}

func TestReadingDoesNotAliasFrame(t *testing.T) {
	raw := frame(PacketTypeTemperatureRain, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42)
	res, err := NewDecoder().Decode(raw)
	require.NoError(t, err)

	for i := range raw {
		raw[i] = 0
	}
	assert.Equal(t, TenthsCelsius(330), res.Reading.(TemperatureRainReading).Temperature)
}

func TestDecodeConcurrent(t *testing.T) {
	cl, err := Calibrate(PacketTypeTemperatureHumidity, rfxmngrLayout, []ReferenceVector{rfxmngrVector(t)})
	require.NoError(t, err)
	dec := NewDecoder(WithCalibratedLayout(cl))

	frames := [][]byte{
		frame(PacketTypeTemperatureRain, 0x01, 0x01, 0xDE, 0xAD, 0x01, 0x4A, 0x02, 0xEE, 0x42),
		frame(PacketTypeTemperatureRain, 0x01, 0x01, 0xDE, 0xAD, 0x80, 0x64, 0x02, 0xEE, 0x42),
		rfxmngrVector(t).Frame,
		{0x03, 0x4F},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				raw := frames[i%len(frames)]
				_, err := dec.Decode(raw)
				if (i%len(frames) == 3) != (err != nil) {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected decode outcome: %v", err)
	}
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "plain", in: "0A4F0101DEAD014A02EE42"},
		{name: "spaced", in: "0a 4f 01 01 de ad 01 4a 02 ee 42"},
		{name: "prefixed with separators", in: "0x0A:4F:01:01:DE:AD:01:4A:02:EE:42"},
		{name: "odd digits", in: "0A4F0", wantErr: true},
		{name: "not hex", in: "ZZ", wantErr: true},
	}

	dec := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := dec.DecodeHex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Zero(t, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint16(0xDEAD), res.Reading.Sensor())
		})
	}
}

func TestFamilies(t *testing.T) {
	fams := Families()
	require.Len(t, fams, 3)

	fams[0].Subtypes[0].Model = "changed"
	spec, err := Spec(fams[0].PacketType)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", spec.Subtypes[0].Model)

	trSpec, err := Spec(PacketTypeTemperatureRain)
	require.NoError(t, err)
	assert.Equal(t, "temperature,rainfall,battery,signal", trSpec.Measures.String())
	assert.False(t, trSpec.Calibrated)

	_, err = Spec(0x99)
	assert.Error(t, err)

	dec := NewDecoder()
	assert.True(t, dec.Supported(PacketTypeTemperatureRain))
	assert.False(t, dec.Supported(PacketTypeTemperatureHumidity))
	assert.False(t, dec.Supported(PacketTypeInterfaceMessage))
	assert.False(t, dec.Supported(0x99))
}
