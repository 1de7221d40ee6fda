// Package host drives a Source from an audio device or into a file. Hosts
// own the render thread: they call Prepare once, Render for every block, and
// Release when they stop.
package host

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned by Stop on a host that is not running.
	ErrNotStarted = errors.New("host not started")

	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown audio backend")
)

// Backend names accepted by New.
const (
	BackendEbiten = "ebiten"
	BackendOto    = "oto"
)

// Default device settings.
const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 512
	DefaultLatency    = 50 * time.Millisecond
)

// Source is the render side of a player.
type Source interface {
	Prepare(blockSizeHint int, sampleRate float64) error
	Render(left, right []float32)
	Release()
}

// Host is a running audio device.
type Host interface {
	Start() error
	Stop() error
	SampleRate() int
}

// Config configures a device host.
type Config struct {
	SampleRate int
	BlockSize  int
	Latency    time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Latency <= 0 {
		c.Latency = DefaultLatency
	}
	return c
}

// New returns an unstarted host for the named backend.
func New(backend string, src Source, cfg Config, log *zap.Logger) (Host, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch backend {
	case BackendEbiten, "":
		return NewEbiten(src, cfg, log), nil
	case BackendOto:
		return NewOto(src, cfg, log), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}
