package midi

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want Event
	}{
		{"note on channel 1", []byte{0x90, 60, 100}, NoteOn{Channel: 1, Note: 60, Velocity: 100}},
		{"note on channel 16", []byte{0x9F, 72, 1}, NoteOn{Channel: 16, Note: 72, Velocity: 1}},
		{"note off", []byte{0x83, 64, 40}, NoteOff{Channel: 4, Note: 64}},
		{"breath controller", []byte{0xB0, 2, 99}, ControlChange{Channel: 1, Control: 2, Value: 99}},
		{"pitch bend center", []byte{0xE0, 0x00, 0x40}, PitchBend{Channel: 1, Value: 8192}},
		{"pitch bend max", []byte{0xE1, 0x7F, 0x7F}, PitchBend{Channel: 2, Value: 16383}},
		{"pitch bend min", []byte{0xE0, 0x00, 0x00}, PitchBend{Channel: 1, Value: 0}},
		{"channel pressure", []byte{0xD5, 77}, ChannelPressure{Channel: 6, Value: 77}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Decode(tt.raw)
			if !ok {
				t.Fatalf("Decode(% X) reported false", tt.raw)
			}
			if got != tt.want {
				t.Errorf("Decode(% X) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecode_Ignored(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"program change", []byte{0xC0, 5}},
		{"poly aftertouch", []byte{0xA0, 60, 10}},
		{"timing clock", []byte{0xF8}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ev, ok := Decode(tt.raw); ok {
				t.Errorf("Decode(% X) = %#v, want ignored", tt.raw, ev)
			}
		})
	}
}

func TestDecode_ZeroVelocityNoteOnEndsNote(t *testing.T) {
	ev, ok := Decode([]byte{0x90, 60, 0})
	if !ok {
		t.Fatal("velocity-0 note-on should decode")
	}
	switch e := ev.(type) {
	case NoteOn:
		if e.Velocity != 0 || e.Note != 60 {
			t.Errorf("got %#v", e)
		}
	case NoteOff:
		if e.Note != 60 {
			t.Errorf("got %#v", e)
		}
	default:
		t.Errorf("got %T, want NoteOn or NoteOff", ev)
	}
}

func TestEncode_DefaultChannel(t *testing.T) {
	raw := Encode(NoteOff{Note: 61})
	ev, ok := Decode(raw)
	if !ok {
		t.Fatal("encoded message did not decode")
	}
	if ev != (NoteOff{Channel: 1, Note: 61}) {
		t.Errorf("got %#v", ev)
	}
}

func TestEncodeDecodeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("controller events survive the wire", prop.ForAll(
		func(ch, control, value int) bool {
			in := ControlChange{Channel: ch, Control: control, Value: value}
			out, ok := Decode(Encode(in))
			return ok && out == in
		},
		gen.IntRange(1, 16),
		gen.IntRange(0, 127),
		gen.IntRange(0, 127),
	))

	properties.Property("pitch bend survives the wire", prop.ForAll(
		func(ch, value int) bool {
			in := PitchBend{Channel: ch, Value: value}
			out, ok := Decode(Encode(in))
			return ok && out == in
		},
		gen.IntRange(1, 16),
		gen.IntRange(0, 16383),
	))

	properties.TestingRun(t)
}

func TestDispatcherFunc(t *testing.T) {
	var got []Event
	d := DispatcherFunc(func(ev Event) { got = append(got, ev) })
	d.Dispatch(NoteOn{Note: 1, Velocity: 2})
	d.Dispatch(ChannelPressure{Value: 3})
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
}
