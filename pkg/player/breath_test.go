package player

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/sfplayer/pkg/engine/enginetest"
)

func TestBreathGain(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		exponent int32
		want     float32
	}{
		{"linear at zero exponent", 0.5, 0, 0.5},
		{"silence stays silent", 0, math.MaxInt32, 0},
		{"max exponent", 1, math.MaxInt32, 6},
		{"min exponent", 1, -math.MaxInt32, 6},
		{"half exponent", 1, math.MaxInt32 / 2, 1 + 1.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BreathGain(tt.value, tt.exponent); !approx(got, tt.want) {
				t.Errorf("BreathGain(%v, %d) = %v, want %v", tt.value, tt.exponent, got, tt.want)
			}
		})
	}
}

// Scenario: breath steps from 0 to 1 across a four-frame block over a
// constant 0.5 tone.
func TestBreathRamp(t *testing.T) {
	p, _ := newSoundingPlayer(t)
	if err := p.Prepare(4, testRate); err != nil {
		t.Fatal(err)
	}

	left, right := make([]float32, 4), make([]float32, 4)

	p.SetBreathControl(0)
	p.Render(left, right)
	p.SetBreathControl(1)
	p.Render(left, right)

	want := []float32{0, 0.125, 0.25, 0.375}
	for i := range want {
		if !approx(left[i], want[i]) || !approx(right[i], want[i]) {
			t.Errorf("frame %d = (%v, %v), want %v", i, left[i], right[i], want[i])
		}
	}
	if got := p.BreathControl(); got != 1 {
		t.Errorf("applied breath = %v, want 1", got)
	}

	p.Render(left, right)
	for i := range left {
		if !approx(left[i], enginetest.DefaultTone) {
			t.Errorf("steady frame %d = %v, want %v", i, left[i], enginetest.DefaultTone)
		}
	}
}

func TestBreathLastWriteWins(t *testing.T) {
	p, _ := newSoundingPlayer(t)
	left, right := make([]float32, testBlock), make([]float32, testBlock)

	p.SetBreathControl(0.2)
	p.SetBreathControl(0.9)
	p.SetBreathControl(0.4)
	if got := p.BreathTarget(); got != 0.4 {
		t.Errorf("BreathTarget = %v, want 0.4", got)
	}
	if got := p.BreathControl(); got != 1 {
		t.Errorf("BreathControl before render = %v, want the applied 1", got)
	}
	p.Render(left, right)
	if got := p.BreathControl(); got != 0.4 {
		t.Errorf("applied breath = %v, want 0.4", got)
	}
}

func TestBreathIdleWhileUnprepared(t *testing.T) {
	p, _ := newTestPlayer(t)
	p.SetBreathControl(0.3)
	p.Render(make([]float32, testBlock), make([]float32, testBlock))
	if got := p.BreathControl(); got != 1 {
		t.Errorf("applied breath = %v, want it untouched at 1", got)
	}
}

func TestPressureExponent(t *testing.T) {
	p, _ := newSoundingPlayer(t)
	p.SetPressureExponent(math.MaxInt32)

	left, right := make([]float32, testBlock), make([]float32, testBlock)
	p.Render(left, right)

	want := float32(enginetest.DefaultTone * 6)
	for i := range left {
		if !approx(left[i], want) {
			t.Fatalf("frame %d = %v, want %v", i, left[i], want)
		}
	}
}

// Every block ramps monotonically from the gain of the previously applied
// breath to the gain of the latest target, and then commits that target.
func TestProperty_BreathRampContinuity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("blocks ramp from applied to target", prop.ForAll(
		func(targets []float64, exponent int32, frames int) bool {
			eng := enginetest.New()
			eng.Tone = 1
			p := New(eng, WithPressureExponent(exponent))
			if err := p.Prepare(frames, testRate); err != nil {
				return false
			}
			if _, err := p.LoadBank("/banks/a.sf2"); err != nil {
				return false
			}
			p.NoteOn(60, 100, 0)

			left, right := make([]float32, frames), make([]float32, frames)
			for _, target := range targets {
				prev := p.BreathControl()
				p.SetBreathControl(target)
				p.Render(left, right)

				start := BreathGain(prev, exponent)
				end := BreathGain(target, exponent)
				if !approx(left[0], start) {
					return false
				}
				for i := 1; i < frames; i++ {
					step := left[i] - left[i-1]
					if end >= start && step < -1e-6 || end < start && step > 1e-6 {
						return false
					}
					if left[i] != right[i] {
						return false
					}
				}
				if p.BreathControl() != target {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 1)),
		gen.Int32(),
		gen.IntRange(1, 512),
	))

	properties.TestingRun(t)
}
