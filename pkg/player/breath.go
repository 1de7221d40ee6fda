package player

import (
	"math"
	"sync/atomic"

	"github.com/zurustar/sfplayer/pkg/dsp"
)

// curveScale is the extra gain reached at the extreme pressure exponent.
const curveScale = 5.0

type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// BreathCurve returns the calibration coefficient for a pressure exponent:
// (exponent / MaxInt32)^2 * 5.
func BreathCurve(exponent int32) float64 {
	r := float64(exponent) / math.MaxInt32
	return r * r * curveScale
}

// BreathGain maps a breath value to a linear gain factor. The mapping is
// monotonically non-decreasing in value for any exponent, and the identity
// when exponent is 0.
func BreathGain(value float64, exponent int32) float32 {
	return float32(value * (1 + BreathCurve(exponent)))
}

// SetBreathControl sets the breath target. It never blocks; the next
// rendered block ramps from the previously applied value to v. When several
// writes land between two blocks only the last one is heard.
func (p *Player) SetBreathControl(v float64) {
	p.target.Store(v)
}

// BreathControl returns the breath value the last rendered block ended on.
// A value set since then is not reported until a block has been rendered.
func (p *Player) BreathControl() float64 {
	return p.breath.Load()
}

// BreathTarget returns the most recently requested breath value.
func (p *Player) BreathTarget() float64 {
	return p.target.Load()
}

// SetPressureExponent changes the breath calibration. It takes effect on the
// next block.
func (p *Player) SetPressureExponent(e int32) {
	p.exponent.Store(e)
}

func (p *Player) PressureExponent() int32 {
	return p.exponent.Load()
}

// applyBreathRamp must be called with mu held.
func (p *Player) applyBreathRamp(left, right []float32) {
	n := len(left)
	exp := p.exponent.Load()
	target := p.target.Load()

	start := BreathGain(p.breath.Load(), exp)
	end := BreathGain(target, exp)
	delta := (end - start) / float32(n)

	if n <= len(p.ramp) {
		ramp := p.ramp[:n]
		dsp.FillRamp(ramp, start, delta)
		dsp.ApplyRamp(left, ramp)
		dsp.ApplyRamp(right, ramp)
	} else {
		dsp.ApplyLinearGain(left, start, delta)
		dsp.ApplyLinearGain(right, start, delta)
	}

	p.breath.Store(target)
}
