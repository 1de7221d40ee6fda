package engine

import (
	"fmt"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/sfplayer/pkg/fileutil"
)

// meltysynth rejects settings outside these bounds.
const (
	meltyMinPolyphony = 8
	meltyMinRate      = 16000
	meltyMaxRate      = 192000
)

// MIDI status bytes sent to meltysynth.
const (
	statusController      = 0xB0
	statusChannelPressure = 0xD0
	statusPitchBend       = 0xE0
)

type loadedBank struct {
	id   int
	path string
	font *meltysynth.SoundFont
}

// Melty is an Engine backed by go-meltysynth. A meltysynth synthesizer is
// bound to one SoundFont at creation, so the most recently loaded bank is the
// one that sounds and the synthesizer is rebuilt whenever the bank stack,
// sample rate or polyphony changes.
type Melty struct {
	mu sync.Mutex

	fsys       fileutil.FileSystem
	sampleRate int32
	polyphony  int32
	gain       float32

	banks  []loadedBank
	nextID int
	synth  *meltysynth.Synthesizer
	state  *State
}

// MeltyOption configures a Melty engine.
type MeltyOption func(*Melty)

// WithFileSystem makes LoadBank resolve paths through fsys instead of the
// host file system.
func WithFileSystem(fsys fileutil.FileSystem) MeltyOption {
	return func(m *Melty) {
		m.fsys = fsys
	}
}

// WithPolyphony sets the initial voice limit.
func WithPolyphony(voices int) MeltyOption {
	return func(m *Melty) {
		m.polyphony = clampPolyphony(voices)
	}
}

// WithSampleRate sets the initial output rate.
func WithSampleRate(rate float64) MeltyOption {
	return func(m *Melty) {
		m.sampleRate = int32(rate)
	}
}

// NewMelty creates an engine with no bank loaded. It renders silence until
// LoadBank succeeds.
func NewMelty(opts ...MeltyOption) *Melty {
	m := &Melty{
		sampleRate: DefaultSampleRate,
		polyphony:  DefaultPolyphony,
		gain:       DefaultGain,
		nextID:     1,
		state:      NewState(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Melty) SetSampleRate(rate float64) error {
	r := int32(rate)
	if r < meltyMinRate || r > meltyMaxRate {
		return fmt.Errorf("sample rate %v out of range [%d, %d]", rate, meltyMinRate, meltyMaxRate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if r == m.sampleRate {
		return nil
	}
	prev := m.sampleRate
	m.sampleRate = r
	if err := m.rebuild(); err != nil {
		m.sampleRate = prev
		return err
	}
	return nil
}

func (m *Melty) SampleRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.sampleRate)
}

func (m *Melty) SetGain(gain float32) float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gain = clampGain(gain)
	if m.synth != nil {
		m.synth.MasterVolume = m.gain
	}
	return m.gain
}

func (m *Melty) Gain() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gain
}

func (m *Melty) SetPolyphony(voices int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := clampPolyphony(voices)
	if v == m.polyphony {
		return int(v)
	}
	prev := m.polyphony
	m.polyphony = v
	if err := m.rebuild(); err != nil {
		m.polyphony = prev
		_ = m.rebuild()
	}
	return int(m.polyphony)
}

func (m *Melty) Polyphony() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int(m.polyphony)
}

// LoadBank parses the file before taking the engine lock, so a slow read
// does not stall concurrent note calls.
func (m *Melty) LoadBank(path string) (int, error) {
	font, err := LoadSoundFontFS(m.fsys, path)
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrBankLoad, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bank := loadedBank{id: m.nextID, path: path, font: font}
	m.banks = append(m.banks, bank)
	if err := m.rebuild(); err != nil {
		m.banks = m.banks[:len(m.banks)-1]
		_ = m.rebuild()
		return -1, fmt.Errorf("%w: %s: %w", ErrBankLoad, path, err)
	}
	m.nextID++
	return bank.id, nil
}

func (m *Melty) UnloadBank(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, b := range m.banks {
		if b.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %w: %d", ErrBankUnload, ErrUnknownBank, id)
	}

	m.banks = append(m.banks[:idx], m.banks[idx+1:]...)
	if err := m.rebuild(); err != nil {
		return fmt.Errorf("%w: %w", ErrBankUnload, err)
	}
	return nil
}

func (m *Melty) BankCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.banks)
}

func (m *Melty) NoteOn(channel, note, velocity int) {
	if !ValidNote(channel, note) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.synth == nil {
		return
	}
	if velocity <= 0 {
		m.synth.NoteOff(int32(channel), int32(note))
		return
	}
	m.synth.NoteOn(int32(channel), int32(note), int32(clampInt(velocity, 1, 127)))
}

func (m *Melty) NoteOff(channel, note int) {
	if !ValidNote(channel, note) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.synth != nil {
		m.synth.NoteOff(int32(channel), int32(note))
	}
}

func (m *Melty) SetController(channel, control, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.SetController(channel, control, value) {
		return
	}
	m.send(channel, statusController, control, m.state.Controller(channel, control))
}

func (m *Melty) Controller(channel, control int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Controller(channel, control)
}

func (m *Melty) SetPitchBend(channel, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.SetPitchBend(channel, value) {
		return
	}
	m.sendBend(channel)
}

func (m *Melty) PitchBend(channel int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.PitchBend(channel)
}

func (m *Melty) SetPitchBendRange(channel, semitones int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.SetPitchBendRange(channel, semitones) {
		return
	}
	m.sendBendRange(channel)
}

func (m *Melty) PitchBendRange(channel int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.PitchBendRange(channel)
}

func (m *Melty) SetChannelPressure(channel, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.SetChannelPressure(channel, value) {
		return
	}
	m.send(channel, statusChannelPressure, m.state.ChannelPressure(channel), 0)
}

func (m *Melty) ChannelPressure(channel int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ChannelPressure(channel)
}

func (m *Melty) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Reset()
	if m.synth != nil {
		m.synth.Reset()
	}
}

func (m *Melty) Render(left, right []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.synth == nil {
		return
	}
	m.synth.Render(left, right)
}

func (m *Melty) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banks = nil
	m.synth = nil
	return nil
}

// rebuild recreates the synthesizer for the top of the bank stack and
// replays channel state onto it. Must be called with m.mu held.
func (m *Melty) rebuild() error {
	if len(m.banks) == 0 {
		m.synth = nil
		return nil
	}

	settings := meltysynth.NewSynthesizerSettings(m.sampleRate)
	settings.MaximumPolyphony = m.polyphony
	synth, err := meltysynth.NewSynthesizer(m.banks[len(m.banks)-1].font, settings)
	if err != nil {
		return fmt.Errorf("failed to create synthesizer: %w", err)
	}
	synth.MasterVolume = m.gain
	m.synth = synth

	for ch := 0; ch < Channels; ch++ {
		c := m.state.Channel(ch)
		for control := 0; control < CCAllSoundOff; control++ {
			if !c.IsDefault(control) {
				m.send(ch, statusController, control, c.Controllers[control])
			}
		}
		if c.BendRange != DefaultPitchBendRange {
			m.sendBendRange(ch)
		}
		if c.Bend != PitchBendCenter {
			m.sendBend(ch)
		}
		if c.Pressure != 0 {
			m.send(ch, statusChannelPressure, c.Pressure, 0)
		}
	}
	return nil
}

func (m *Melty) send(channel, status, data1, data2 int) {
	if m.synth == nil {
		return
	}
	m.synth.ProcessMidiMessage(int32(channel), int32(status), int32(data1), int32(data2))
}

func (m *Melty) sendBend(channel int) {
	v := m.state.PitchBend(channel)
	m.send(channel, statusPitchBend, v&0x7F, v>>7)
}

// sendBendRange selects RPN 0 and writes the sensitivity through data entry,
// then deselects the RPN so later data entry messages are inert.
func (m *Melty) sendBendRange(channel int) {
	semitones := m.state.PitchBendRange(channel)
	m.send(channel, statusController, CCRPNMSB, 0)
	m.send(channel, statusController, CCRPNLSB, 0)
	m.send(channel, statusController, CCDataEntry, semitones)
	m.send(channel, statusController, CCDataEntryLSB, 0)
	m.send(channel, statusController, CCRPNMSB, 127)
	m.send(channel, statusController, CCRPNLSB, 127)
}

func clampPolyphony(voices int) int32 {
	return int32(clampInt(voices, meltyMinPolyphony, MaxPolyphony))
}
