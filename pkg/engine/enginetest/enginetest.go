// Package enginetest provides a deterministic in-memory engine.Engine for
// exercising the player's locking and protocol logic without real DSP.
package enginetest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zurustar/sfplayer/pkg/engine"
)

// DefaultTone is the sample value written while any note sounds.
const DefaultTone = 0.5

type bank struct {
	id   int
	path string
}

type key struct {
	channel, note int
}

// Snapshot is a comparable copy of the fake's observable state.
type Snapshot struct {
	Banks    string
	Sounding string
	Channels [engine.Channels]engine.ChannelState
	Gain     float32
}

// Engine is a fake engine. Render writes Tone to every frame of both
// channels while a bank is resident and at least one note sounds, and leaves
// the buffers untouched otherwise.
//
// Bank transitions and renders are flagged with atomics so that a render
// overlapping a load or unload is counted as a violation.
type Engine struct {
	Tone float32

	// LoadErr and UnloadErr, when set, make the matching call fail.
	LoadErr   func(path string) error
	UnloadErr func(id int) error

	// TransitionDelay stretches load and unload to widen race windows.
	TransitionDelay time.Duration

	mu         sync.Mutex
	state      *engine.State
	sampleRate float64
	gain       float32
	polyphony  int
	banks      []bank
	nextID     int
	sounding   map[key]int
	resets     int
	closed     bool

	rendering   atomic.Bool
	transition  atomic.Bool
	renders     atomic.Int64
	violations  atomic.Int64
	sampleRates atomic.Int64
}

var _ engine.Engine = (*Engine)(nil)

// New returns a fake with no bank loaded.
func New() *Engine {
	return &Engine{
		Tone:       DefaultTone,
		state:      engine.NewState(),
		sampleRate: engine.DefaultSampleRate,
		gain:       engine.DefaultGain,
		polyphony:  engine.DefaultPolyphony,
		nextID:     1,
		sounding:   make(map[key]int),
	}
}

func (e *Engine) SetSampleRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid sample rate %v", rate)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sampleRate = rate
	e.sampleRates.Add(1)
	return nil
}

func (e *Engine) SampleRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sampleRate
}

func (e *Engine) SetGain(gain float32) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gain < 0 {
		gain = 0
	}
	if gain > engine.MaxGain {
		gain = engine.MaxGain
	}
	e.gain = gain
	return gain
}

func (e *Engine) Gain() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gain
}

func (e *Engine) SetPolyphony(voices int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if voices < 1 {
		voices = 1
	}
	if voices > engine.MaxPolyphony {
		voices = engine.MaxPolyphony
	}
	e.polyphony = voices
	return voices
}

func (e *Engine) Polyphony() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.polyphony
}

func (e *Engine) LoadBank(path string) (int, error) {
	e.beginTransition()
	defer e.endTransition()

	if e.LoadErr != nil {
		if err := e.LoadErr(path); err != nil {
			return -1, fmt.Errorf("%w: %w", engine.ErrBankLoad, err)
		}
	}
	if path == "" {
		return -1, fmt.Errorf("%w: %w", engine.ErrBankLoad, engine.ErrNoSoundFont)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.banks = append(e.banks, bank{id: id, path: path})
	return id, nil
}

func (e *Engine) UnloadBank(id int) error {
	e.beginTransition()
	defer e.endTransition()

	if e.UnloadErr != nil {
		if err := e.UnloadErr(id); err != nil {
			return fmt.Errorf("%w: %w", engine.ErrBankUnload, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, b := range e.banks {
		if b.id == id {
			e.banks = append(e.banks[:i], e.banks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %w: %d", engine.ErrBankUnload, engine.ErrUnknownBank, id)
}

func (e *Engine) BankCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.banks)
}

// ResidentBanks returns the paths of the resident banks, oldest first.
func (e *Engine) ResidentBanks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	paths := make([]string, len(e.banks))
	for i, b := range e.banks {
		paths[i] = b.path
	}
	return paths
}

func (e *Engine) NoteOn(channel, note, velocity int) {
	if !engine.ValidNote(channel, note) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if velocity <= 0 {
		delete(e.sounding, key{channel, note})
		return
	}
	e.sounding[key{channel, note}] = velocity
}

func (e *Engine) NoteOff(channel, note int) {
	if !engine.ValidNote(channel, note) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sounding, key{channel, note})
}

// Sounding reports whether note is held on the 0-based channel.
func (e *Engine) Sounding(channel, note int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sounding[key{channel, note}]
	return ok
}

func (e *Engine) SetController(channel, control, value int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.SetController(channel, control, value) {
		return
	}
	switch control {
	case engine.CCAllSoundOff, engine.CCAllNotesOff:
		for k := range e.sounding {
			if k.channel == channel {
				delete(e.sounding, k)
			}
		}
	}
}

func (e *Engine) Controller(channel, control int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Controller(channel, control)
}

func (e *Engine) SetPitchBend(channel, value int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetPitchBend(channel, value)
}

func (e *Engine) PitchBend(channel int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.PitchBend(channel)
}

func (e *Engine) SetPitchBendRange(channel, semitones int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetPitchBendRange(channel, semitones)
}

func (e *Engine) PitchBendRange(channel int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.PitchBendRange(channel)
}

func (e *Engine) SetChannelPressure(channel, value int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SetChannelPressure(channel, value)
}

func (e *Engine) ChannelPressure(channel int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ChannelPressure(channel)
}

func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Reset()
	clear(e.sounding)
	e.resets++
}

// Resets reports how many times Reset has been called.
func (e *Engine) Resets() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resets
}

func (e *Engine) Render(left, right []float32) {
	if !e.rendering.CompareAndSwap(false, true) {
		e.violations.Add(1)
	}
	defer e.rendering.Store(false)
	if e.transition.Load() {
		e.violations.Add(1)
	}
	e.renders.Add(1)

	e.mu.Lock()
	audible := len(e.banks) > 0 && len(e.sounding) > 0
	tone := e.Tone
	e.mu.Unlock()
	if !audible {
		return
	}
	for i := range left {
		left[i] = tone
	}
	for i := range right {
		right[i] = tone
	}
}

// Renders reports how many times Render has been called.
func (e *Engine) Renders() int64 { return e.renders.Load() }

// Violations reports how many times a render overlapped a bank transition
// or another render.
func (e *Engine) Violations() int64 { return e.violations.Load() }

// SampleRateChanges reports how many times SetSampleRate succeeded.
func (e *Engine) SampleRateChanges() int64 { return e.sampleRates.Load() }

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.banks = nil
	return nil
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Snapshot captures banks, held notes, channel state and gain.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		Banks:    fmt.Sprint(e.banks),
		Sounding: fmt.Sprint(e.sounding),
		Gain:     e.gain,
	}
	for ch := 0; ch < engine.Channels; ch++ {
		s.Channels[ch] = *e.state.Channel(ch)
	}
	return s
}

func (e *Engine) beginTransition() {
	if e.rendering.Load() {
		e.violations.Add(1)
	}
	e.transition.Store(true)
	if e.TransitionDelay > 0 {
		time.Sleep(e.TransitionDelay)
	}
}

func (e *Engine) endTransition() {
	if e.rendering.Load() {
		e.violations.Add(1)
	}
	e.transition.Store(false)
}
