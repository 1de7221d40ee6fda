package host

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// otoContext is shared because oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoRate int
)

func otoContext(cfg Config) (*oto.Context, int, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.Latency,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoCtx, otoRate = ctx, cfg.SampleRate
	})
	return otoCtx, otoRate, otoErr
}

// Oto plays a Source through oto as 32-bit float stereo.
type Oto struct {
	src Source
	cfg Config
	log *zap.Logger

	rate   int
	player *oto.Player
	stream *Stream
	mu     sync.Mutex
}

func NewOto(src Source, cfg Config, log *zap.Logger) *Oto {
	return &Oto{src: src, cfg: cfg.withDefaults(), log: log}
}

func (h *Oto) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.player != nil {
		return nil
	}

	ctx, rate, err := otoContext(h.cfg)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	h.rate = rate

	if err := h.src.Prepare(h.cfg.BlockSize, float64(rate)); err != nil {
		return fmt.Errorf("failed to prepare source: %w", err)
	}

	h.stream = NewStream(h.src, Float32LE, h.cfg.BlockSize)
	h.player = ctx.NewPlayer(h.stream)
	h.player.Play()

	h.log.Info("audio started",
		zap.String("backend", BackendOto),
		zap.Int("sampleRate", rate),
		zap.Int("blockSize", h.cfg.BlockSize))
	return nil
}

func (h *Oto) Stop() error {
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

	h.log.Info("audio stopped", zap.String("backend", BackendOto))
	if err != nil {
		return fmt.Errorf("failed to close audio player: %w", err)
	}
	return nil
}

func (h *Oto) SampleRate() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rate != 0 {
		return h.rate
	}
	return h.cfg.SampleRate
}
