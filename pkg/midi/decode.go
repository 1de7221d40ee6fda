package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Decode converts one raw channel-voice message into an Event. Messages
// that carry no performance data for the player (program change, poly
// aftertouch, system messages) report false.
func Decode(raw []byte) (Event, bool) {
	msg := gomidi.Message(raw)

	var channel, key, velocity, control, value, pressure uint8
	var relative int16
	var absolute uint16

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return NoteOn{Channel: int(channel) + 1, Note: int(key), Velocity: int(velocity)}, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return NoteOff{Channel: int(channel) + 1, Note: int(key)}, true
	case msg.GetControlChange(&channel, &control, &value):
		return ControlChange{Channel: int(channel) + 1, Control: int(control), Value: int(value)}, true
	case msg.GetPitchBend(&channel, &relative, &absolute):
		return PitchBend{Channel: int(channel) + 1, Value: int(absolute)}, true
	case msg.GetAfterTouch(&channel, &pressure):
		return ChannelPressure{Channel: int(channel) + 1, Value: int(pressure)}, true
	}
	return nil, false
}

// Encode is the inverse of Decode. Channel 0 encodes as channel 1.
func Encode(ev Event) []byte {
	switch e := ev.(type) {
	case NoteOn:
		return gomidi.NoteOn(wireChannel(e.Channel), uint8(e.Note), uint8(e.Velocity))
	case NoteOff:
		return gomidi.NoteOff(wireChannel(e.Channel), uint8(e.Note))
	case ControlChange:
		return gomidi.ControlChange(wireChannel(e.Channel), uint8(e.Control), uint8(e.Value))
	case PitchBend:
		return gomidi.Pitchbend(wireChannel(e.Channel), int16(e.Value-8192))
	case ChannelPressure:
		return gomidi.AfterTouch(wireChannel(e.Channel), uint8(e.Value))
	}
	return nil
}

func wireChannel(ch int) uint8 {
	if ch < 1 || ch > 16 {
		return 0
	}
	return uint8(ch - 1)
}
