// Package dsp holds the small vector kernels used on the render path. Every
// function works in place or into caller-provided scratch and never
// allocates.
package dsp

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// FillRamp writes start + i*delta into ramp[i].
func FillRamp(ramp []float32, start, delta float32) {
	for i := range ramp {
		ramp[i] = start + float32(i)*delta
	}
}

// ApplyRamp multiplies buf by ramp element-wise. len(ramp) must be at least
// len(buf) and ramp must not share memory with buf.
func ApplyRamp(buf, ramp []float32) {
	if len(buf) == 0 {
		return
	}
	vek32.Mul_Inplace(buf, ramp[:len(buf)])
}

// ApplyLinearGain is ApplyRamp without a ramp buffer, for blocks longer than
// the prepared scratch.
func ApplyLinearGain(buf []float32, start, delta float32) {
	for i := range buf {
		buf[i] *= start + float32(i)*delta
	}
}

// ApplyGain scales buf by a constant.
func ApplyGain(buf []float32, gain float32) {
	if len(buf) == 0 || gain == 1 {
		return
	}
	vek32.MulNumber_Inplace(buf, gain)
}

// Clear zeroes buf.
func Clear(buf []float32) {
	clear(buf)
}

// RMS returns the root mean square of buf. scratch must hold len(buf)
// values.
func RMS(buf, scratch []float32) float32 {
	if len(buf) == 0 {
		return 0
	}
	sq := vek32.Mul_Into(scratch[:len(buf)], buf, buf)
	return float32(math.Sqrt(float64(vek32.Mean(sq))))
}

// Peak returns the largest absolute sample in buf. scratch must hold
// len(buf) values.
func Peak(buf, scratch []float32) float32 {
	if len(buf) == 0 {
		return 0
	}
	abs := vek32.Abs_Into(scratch[:len(buf)], buf)
	return vek32.Max(abs)
}

// DBFS converts a linear amplitude to decibels relative to full scale.
func DBFS(v float32) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(v))
}
