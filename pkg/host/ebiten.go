package host

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"
)

// Ebiten plays a Source through Ebitengine's audio context as 16-bit stereo.
// Ebitengine allows one context per process; an existing context is reused
// and its sample rate wins over Config.SampleRate.
type Ebiten struct {
	src Source
	cfg Config
	log *zap.Logger

	ctx    *audio.Context
	player *audio.Player
	stream *Stream
	mu     sync.Mutex
}

func NewEbiten(src Source, cfg Config, log *zap.Logger) *Ebiten {
	return &Ebiten{src: src, cfg: cfg.withDefaults(), log: log}
}

func (h *Ebiten) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.player != nil {
		return nil
	}

	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(h.cfg.SampleRate)
	}
	h.ctx = ctx

	if err := h.src.Prepare(h.cfg.BlockSize, float64(ctx.SampleRate())); err != nil {
		return fmt.Errorf("failed to prepare source: %w", err)
	}

	stream := NewStream(h.src, Int16LE, h.cfg.BlockSize)
	player, err := ctx.NewPlayer(stream)
	if err != nil {
		h.src.Release()
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	player.SetBufferSize(h.cfg.Latency)
	player.Play()

	h.stream = stream
	h.player = player
	h.log.Info("audio started",
		zap.String("backend", BackendEbiten),
		zap.Int("sampleRate", ctx.SampleRate()),
		zap.Int("blockSize", h.cfg.BlockSize),
		zap.Duration("latency", h.cfg.Latency))
	return nil
}

func (h *Ebiten) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.player == nil {
		return ErrNotStarted
	}
	h.stream.Stop()
	err := h.player.Close()
	h.player = nil
	h.stream = nil
	h.src.Release()

	h.log.Info("audio stopped", zap.String("backend", BackendEbiten))
	if err != nil {
		return fmt.Errorf("failed to close audio player: %w", err)
	}
	return nil
}

// SampleRate returns the device rate, or the configured rate before Start.
func (h *Ebiten) SampleRate() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx != nil {
		return h.ctx.SampleRate()
	}
	return h.cfg.SampleRate
}
