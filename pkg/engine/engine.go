// Package engine defines the control/render facade over a sample-synthesis
// engine and provides a go-meltysynth backed implementation.
//
// Channels at this layer are 0-based (0..Channels-1). Callers that speak
// 1-based MIDI channel numbers convert before calling in.
package engine

import "errors"

const (
	// Channels is the number of MIDI channels an engine exposes.
	Channels = 16

	// Controllers is the number of continuous controllers per channel.
	Controllers = 128

	// PitchBendCenter is the 14-bit pitch wheel rest position.
	PitchBendCenter = 8192

	// PitchBendMax is the largest 14-bit pitch wheel value.
	PitchBendMax = 16383

	// DefaultPitchBendRange is the wheel sensitivity in semitones after reset.
	DefaultPitchBendRange = 2

	// DefaultPolyphony is the voice limit a new engine starts with.
	DefaultPolyphony = 256

	// MaxPolyphony is the largest voice limit an engine accepts.
	MaxPolyphony = 256

	// DefaultGain is the master gain a new engine starts with.
	DefaultGain = 1.0

	// MaxGain is the largest master gain an engine accepts.
	MaxGain = 10.0

	// DefaultSampleRate is used until a host prepares the engine.
	DefaultSampleRate = 44100
)

var (
	// ErrBankLoad is returned when a bank file cannot be made resident.
	ErrBankLoad = errors.New("bank load failed")

	// ErrBankUnload is returned when a resident bank cannot be removed.
	ErrBankUnload = errors.New("bank unload failed")

	// ErrUnknownBank is returned for a bank id the engine never issued or
	// already unloaded.
	ErrUnknownBank = errors.New("unknown bank id")

	// ErrSoundFontNotFound is returned when the bank file does not exist.
	ErrSoundFontNotFound = errors.New("SoundFont file not found")

	// ErrNoSoundFont is returned when LoadBank is called with an empty path.
	ErrNoSoundFont = errors.New("SoundFont path is required")
)

// Engine is the opaque synthesis engine. Implementations synchronize their
// own state, so note and controller calls may arrive from any goroutine
// while Render runs on the audio goroutine.
//
// Render must not allocate, block on I/O, or log.
type Engine interface {
	// SetSampleRate reconfigures the output rate in Hz.
	SetSampleRate(rate float64) error
	SampleRate() float64

	// SetGain sets the master gain, clamped to [0, MaxGain], and returns the
	// value actually applied.
	SetGain(gain float32) float32
	Gain() float32

	// SetPolyphony sets the voice limit and returns the value actually applied.
	SetPolyphony(voices int) int
	Polyphony() int

	// LoadBank makes the bank file at path resident and returns its id.
	LoadBank(path string) (int, error)
	// UnloadBank removes the bank with the given id.
	UnloadBank(id int) error
	// BankCount reports how many banks are resident.
	BankCount() int

	NoteOn(channel, note, velocity int)
	NoteOff(channel, note int)

	SetController(channel, control, value int)
	Controller(channel, control int) int

	SetPitchBend(channel, value int)
	PitchBend(channel int) int

	SetPitchBendRange(channel, semitones int)
	PitchBendRange(channel int) int

	SetChannelPressure(channel, value int)
	ChannelPressure(channel int) int

	// Reset silences every voice and returns all channels to their power-on
	// controller state.
	Reset()

	// Render synthesizes len(left) frames into left and right. The engine may
	// leave the buffers untouched when it has nothing to play.
	Render(left, right []float32)

	Close() error
}
