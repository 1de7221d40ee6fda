// Package player is the real-time core of sfplayer. A Player owns one
// synthesis engine, serializes bank changes against the audio callback, and
// post-processes every rendered block with a breath-controlled gain ramp.
//
// Two goroutine roles use a Player. The render role (the audio host's
// callback) calls Render at a fixed cadence under a hard deadline. The
// control role (UI, MIDI input, CLI) calls everything else whenever it likes.
// One mutex, the render lock, serializes Render with bank load/unload, reset
// and prepare/release. Note, controller, pitch and pressure calls go straight
// to the engine, which synchronizes itself. The breath target is a lock-free
// atomic.
package player

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zurustar/sfplayer/pkg/dsp"
	"github.com/zurustar/sfplayer/pkg/engine"
	"go.uber.org/zap"
)

// DefaultChannel is the 1-based channel used when a call or event names
// channel 0.
const DefaultChannel = 1

// Player is safe for concurrent use; see the package documentation for the
// locking discipline.
type Player struct {
	// mu is the render lock.
	mu         sync.Mutex
	prepared   bool
	blockSize  int
	sampleRate float64
	ramp       []float32

	// bankMu serializes bank operations. Lock order is bankMu then mu.
	bankMu sync.Mutex
	bankID int
	loaded atomic.Pointer[string]

	breath   atomicFloat64
	target   atomicFloat64
	exponent atomic.Int32

	engine         engine.Engine
	log            *zap.Logger
	resolver       BankResolver
	defaultChannel int
	dualMono       bool
	optimistic     bool
	breathCC       int
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger for control-plane events. The render path never
// logs.
func WithLogger(l *zap.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

// WithResolver sets the registry used by LoadNamedBank and LoadedBankName.
func WithResolver(r BankResolver) Option {
	return func(p *Player) {
		p.resolver = r
	}
}

// WithChannel changes the default channel (1..16). Out-of-range values are
// ignored.
func WithChannel(ch int) Option {
	return func(p *Player) {
		if ch >= 1 && ch <= engine.Channels {
			p.defaultChannel = ch
		}
	}
}

// WithPolyphony sets the engine voice limit.
func WithPolyphony(voices int) Option {
	return func(p *Player) {
		p.engine.SetPolyphony(voices)
	}
}

// WithGain sets the initial engine gain. The default is 1.0.
func WithGain(gain float32) Option {
	return func(p *Player) {
		p.engine.SetGain(gain)
	}
}

// WithDualMono renders both engine channels into the left buffer and mirrors
// it to the right, for hosts that can only take a mono signal.
func WithDualMono() Option {
	return func(p *Player) {
		p.dualMono = true
	}
}

// WithOptimisticBankCommit records a requested bank as loaded before the
// engine has accepted it. A failed load then leaves LoadedBank naming a bank
// that is not resident, and a retry of the same path is treated as a no-op.
// Only use this when that legacy behavior is required.
func WithOptimisticBankCommit() Option {
	return func(p *Player) {
		p.optimistic = true
	}
}

// WithPressureExponent sets the initial breath calibration exponent.
func WithPressureExponent(e int32) Option {
	return func(p *Player) {
		p.exponent.Store(e)
	}
}

// WithBreathController routes controller cc (0..127) to SetBreathControl as
// value/127, in addition to forwarding it to the engine.
func WithBreathController(cc int) Option {
	return func(p *Player) {
		if cc >= 0 && cc < engine.Controllers {
			p.breathCC = cc
		}
	}
}

// New wraps eng. The player takes ownership: Close closes the engine.
func New(eng engine.Engine, opts ...Option) *Player {
	p := &Player{
		engine:         eng,
		log:            zap.NewNop(),
		defaultChannel: DefaultChannel,
		breathCC:       -1,
	}
	p.breath.Store(1)
	p.target.Store(1)
	p.loaded.Store(new(string))

	eng.SetGain(engine.DefaultGain)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare configures the engine for sampleRate and sizes the ramp scratch
// for blocks of blockSizeHint frames. It may be called repeatedly without
// Release. On error the player keeps its previous state.
func (p *Player) Prepare(blockSizeHint int, sampleRate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.engine.SetSampleRate(sampleRate); err != nil {
		p.log.Warn("prepare failed", zap.Float64("sampleRate", sampleRate), zap.Error(err))
		return fmt.Errorf("failed to prepare player: %w", err)
	}
	if blockSizeHint > len(p.ramp) {
		p.ramp = make([]float32, blockSizeHint)
	}
	p.blockSize = blockSizeHint
	p.sampleRate = sampleRate
	p.prepared = true

	p.log.Debug("player prepared", zap.Int("blockSize", blockSizeHint), zap.Float64("sampleRate", sampleRate))
	return nil
}

// Release silences the engine, resets all controllers and returns the player
// to the unprepared state. It is safe to call at any time, any number of
// times.
func (p *Player) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.engine.Reset()
	p.prepared = false
	p.log.Debug("player released")
}

// IsPrepared reports whether Render will ask the engine for audio.
func (p *Player) IsPrepared() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prepared
}

// Render fills left and right with the next block. Both buffers are zeroed
// first, so the output is silence whenever the player is unprepared or the
// engine declines to write. Only min(len(left), len(right)) frames are
// synthesized.
//
// Render does not allocate. Blocks longer than the prepared hint fall back to
// a scalar gain loop instead of growing the scratch buffer.
func (p *Player) Render(left, right []float32) {
	dsp.Clear(left)
	dsp.Clear(right)

	n := min(len(left), len(right))
	left, right = left[:n], right[:n]

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.prepared || n == 0 {
		return
	}

	if p.dualMono {
		p.engine.Render(left, left)
		copy(right, left)
	} else {
		p.engine.Render(left, right)
	}

	p.applyBreathRamp(left, right)
}

// Close releases the player and closes the engine.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prepared = false
	if err := p.engine.Close(); err != nil {
		return fmt.Errorf("failed to close engine: %w", err)
	}
	return nil
}

// SystemReset turns every note off and returns all controllers to their
// power-on values.
func (p *Player) SystemReset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.Reset()
}

// SetGain sets the engine master gain and returns the applied value.
func (p *Player) SetGain(gain float32) float32 {
	return p.engine.SetGain(gain)
}

func (p *Player) Gain() float32 {
	return p.engine.Gain()
}

// SampleRate returns the rate passed to the last successful Prepare, or 0.
func (p *Player) SampleRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sampleRate
}

// BlockSize returns the block size hint passed to the last successful
// Prepare, or 0.
func (p *Player) BlockSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blockSize
}
