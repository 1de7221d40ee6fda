package host

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
	"github.com/zurustar/sfplayer/pkg/dsp"
)

// ErrNoFrames is returned by RenderWAV when asked for zero frames.
var ErrNoFrames = errors.New("nothing to render")

// RenderOptions configures an offline render.
type RenderOptions struct {
	SampleRate int
	BlockSize  int
	Frames     int

	// BeforeBlock, when set, runs on the render goroutine before every
	// block with the index of the block's first frame. Use it to schedule
	// notes and controller changes.
	BeforeBlock func(frame int)
}

// Stats describes a finished render.
type Stats struct {
	Frames int
	RMS    float32
	Peak   float32
}

// RenderWAV prepares src, renders opts.Frames frames in blocks and writes them
// as 16-bit stereo PCM. src is released before returning.
func RenderWAV(w io.WriteSeeker, src Source, opts RenderOptions) (Stats, error) {
	if opts.Frames <= 0 {
		return Stats{}, ErrNoFrames
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}

	if err := src.Prepare(opts.BlockSize, float64(opts.SampleRate)); err != nil {
		return Stats{}, fmt.Errorf("failed to prepare source: %w", err)
	}
	defer src.Release()

	encoder := wav.NewEncoder(w, opts.SampleRate, 16, 2, 1)

	left := make([]float32, opts.BlockSize)
	right := make([]float32, opts.BlockSize)
	scratch := make([]float32, opts.BlockSize)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  opts.SampleRate,
			NumChannels: 2,
		},
		Data:           make([]float32, opts.BlockSize*2),
		SourceBitDepth: 16,
	}

	var sumSquares float64
	var peak float32
	for frame := 0; frame < opts.Frames; frame += opts.BlockSize {
		n := min(opts.BlockSize, opts.Frames-frame)
		if opts.BeforeBlock != nil {
			opts.BeforeBlock(frame)
		}

		l, r := left[:n], right[:n]
		src.Render(l, r)

		for _, ch := range [][]float32{l, r} {
			rms := dsp.RMS(ch, scratch)
			sumSquares += float64(rms) * float64(rms) * float64(n)
			peak = max(peak, dsp.Peak(ch, scratch))
		}

		buf.Data = buf.Data[:n*2]
		for i := range n {
			buf.Data[i*2] = l[i]
			buf.Data[i*2+1] = r[i]
		}
		if err := encoder.Write(buf); err != nil {
			return Stats{}, fmt.Errorf("failed to write wav: %w", err)
		}
	}

	if err := encoder.Close(); err != nil {
		return Stats{}, fmt.Errorf("failed to finalize wav: %w", err)
	}

	return Stats{
		Frames: opts.Frames,
		RMS:    float32(math.Sqrt(sumSquares / float64(2*opts.Frames))),
		Peak:   peak,
	}, nil
}
