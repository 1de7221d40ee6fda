package host

import (
	"encoding/binary"
	"math"
	"sync"
)

// Format is the sample encoding a Stream produces. Both formats are
// interleaved stereo, little endian.
type Format int

const (
	Int16LE Format = iota
	Float32LE
)

// FrameBytes returns the size of one stereo frame.
func (f Format) FrameBytes() int {
	if f == Float32LE {
		return 8
	}
	return 4
}

// Stream implements io.Reader over a Source for pull-based audio devices.
// Requests are split into blocks of at most the configured block size, so the
// Source always sees blocks no larger than its Prepare hint.
type Stream struct {
	src       Source
	format    Format
	blockSize int
	left      []float32
	right     []float32

	frames  int64
	stopped bool
	mu      sync.Mutex
}

// NewStream allocates the planar buffers up front; Read never allocates.
func NewStream(src Source, format Format, blockSize int) *Stream {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Stream{
		src:       src,
		format:    format,
		blockSize: blockSize,
		left:      make([]float32, blockSize),
		right:     make([]float32, blockSize),
	}
}

// Read renders whole frames into p.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb := s.format.FrameBytes()
	frames := len(p) / fb
	if frames == 0 {
		return 0, nil
	}
	out := p[:frames*fb]

	if s.stopped {
		clear(out)
		return len(out), nil
	}

	for done := 0; done < frames; {
		n := min(frames-done, s.blockSize)
		left, right := s.left[:n], s.right[:n]
		s.src.Render(left, right)
		s.encode(out[done*fb:], left, right)
		done += n
	}
	s.frames += int64(frames)

	return len(out), nil
}

func (s *Stream) encode(p []byte, left, right []float32) {
	switch s.format {
	case Float32LE:
		for i := range left {
			binary.LittleEndian.PutUint32(p[i*8:], math.Float32bits(left[i]))
			binary.LittleEndian.PutUint32(p[i*8+4:], math.Float32bits(right[i]))
		}
	default:
		for i := range left {
			l := int16(clamp(left[i], -1, 1) * 32767)
			r := int16(clamp(right[i], -1, 1) * 32767)
			binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
			binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
		}
	}
}

// Stop makes Read return silence without touching the Source.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Frames returns the number of frames rendered so far.
func (s *Stream) Frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
