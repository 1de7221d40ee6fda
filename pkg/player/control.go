package player

import (
	"github.com/zurustar/sfplayer/pkg/engine"
	"github.com/zurustar/sfplayer/pkg/midi"
)

// Control-plane calls below take 1-based channels; 0 selects the default
// channel. They do not take the render lock.

func (p *Player) channel(ch int) (int, bool) {
	if ch == 0 {
		ch = p.defaultChannel
	}
	if ch < 1 || ch > engine.Channels {
		return 0, false
	}
	return ch - 1, true
}

// Dispatch routes a decoded event to the engine. Unknown event types are
// ignored.
func (p *Player) Dispatch(ev midi.Event) {
	switch e := ev.(type) {
	case midi.NoteOn:
		p.NoteOn(e.Note, e.Velocity, e.Channel)
	case midi.NoteOff:
		p.NoteOff(e.Note, e.Channel)
	case midi.ControlChange:
		p.SetController(e.Control, e.Value, e.Channel)
	case midi.PitchBend:
		p.SetPitchBend(e.Value, e.Channel)
	case midi.ChannelPressure:
		p.SetChannelPressure(e.Value, e.Channel)
	}
}

// NoteOn starts a note. A velocity of 0 stops it instead.
func (p *Player) NoteOn(note, velocity, channel int) {
	ch, ok := p.channel(channel)
	if !ok {
		return
	}
	if velocity <= 0 {
		p.engine.NoteOff(ch, note)
		return
	}
	p.engine.NoteOn(ch, note, velocity)
}

func (p *Player) NoteOff(note, channel int) {
	if ch, ok := p.channel(channel); ok {
		p.engine.NoteOff(ch, note)
	}
}

// SetController forwards a control change. When a breath controller number
// is configured the value also becomes the breath target.
func (p *Player) SetController(control, value, channel int) {
	ch, ok := p.channel(channel)
	if !ok {
		return
	}
	if p.breathCC >= 0 && control == p.breathCC {
		p.SetBreathControl(float64(min(max(value, 0), 127)) / 127)
	}
	p.engine.SetController(ch, control, value)
}

// Controller returns the current value of a controller, or 0 for an
// out-of-range channel.
func (p *Player) Controller(control, channel int) int {
	ch, ok := p.channel(channel)
	if !ok {
		return 0
	}
	return p.engine.Controller(ch, control)
}

// SetPitchBend takes a 14-bit value; 8192 is center.
func (p *Player) SetPitchBend(value, channel int) {
	if ch, ok := p.channel(channel); ok {
		p.engine.SetPitchBend(ch, value)
	}
}

func (p *Player) PitchBend(channel int) int {
	ch, ok := p.channel(channel)
	if !ok {
		return 0
	}
	return p.engine.PitchBend(ch)
}

func (p *Player) SetPitchBendRange(semitones, channel int) {
	if ch, ok := p.channel(channel); ok {
		p.engine.SetPitchBendRange(ch, semitones)
	}
}

func (p *Player) PitchBendRange(channel int) int {
	ch, ok := p.channel(channel)
	if !ok {
		return 0
	}
	return p.engine.PitchBendRange(ch)
}

func (p *Player) SetChannelPressure(value, channel int) {
	if ch, ok := p.channel(channel); ok {
		p.engine.SetChannelPressure(ch, value)
	}
}

func (p *Player) ChannelPressure(channel int) int {
	ch, ok := p.channel(channel)
	if !ok {
		return 0
	}
	return p.engine.ChannelPressure(ch)
}
