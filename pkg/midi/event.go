// Package midi defines the performance events the player accepts, decodes
// them from raw MIDI bytes, and forwards events from hardware input ports.
//
// Channels in events are 1-based (1..16). Zero means "the receiver's default
// channel".
package midi

// Event is one inbound performance event. The set of implementations is
// closed: NoteOn, NoteOff, ControlChange, PitchBend and ChannelPressure.
type Event interface {
	event()
}

// NoteOn starts a note. A velocity of 0 is a note-off.
type NoteOn struct {
	Channel  int
	Note     int
	Velocity int
}

// NoteOff releases a note.
type NoteOff struct {
	Channel int
	Note    int
}

// ControlChange sets a continuous controller.
type ControlChange struct {
	Channel int
	Control int
	Value   int
}

// PitchBend sets the 14-bit pitch wheel, 0..16383 with 8192 at rest.
type PitchBend struct {
	Channel int
	Value   int
}

// ChannelPressure sets mono aftertouch.
type ChannelPressure struct {
	Channel int
	Value   int
}

func (NoteOn) event()          {}
func (NoteOff) event()         {}
func (ControlChange) event()   {}
func (PitchBend) event()       {}
func (ChannelPressure) event() {}

// Dispatcher receives decoded events.
type Dispatcher interface {
	Dispatch(ev Event)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ev Event)

func (f DispatcherFunc) Dispatch(ev Event) { f(ev) }
