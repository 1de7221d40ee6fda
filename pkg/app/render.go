package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zurustar/sfplayer/pkg/dsp"
	"github.com/zurustar/sfplayer/pkg/host"
	"github.com/zurustar/sfplayer/pkg/midi"
	"go.uber.org/zap"
)

// velocity for notes sounded without a MIDI input
const noteVelocity = 100

// renderOffline 設定されたノートをWAVファイルにレンダリング
func (app *Application) renderOffline() error {
	frames := int(app.config.Duration.Seconds() * float64(app.config.SampleRate))
	if frames <= 0 {
		return host.ErrNoFrames
	}

	f, err := os.Create(app.config.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", app.config.Output, err)
	}

	app.log.Info("Rendering",
		zap.String("output", app.config.Output),
		zap.Int("frames", frames),
		zap.Ints("notes", app.config.Notes),
		zap.Bool("breathSweep", app.config.BreathSweep))

	stats, err := host.RenderWAV(f, app.player, host.RenderOptions{
		SampleRate:  app.config.SampleRate,
		BlockSize:   app.config.BlockSize,
		Frames:      frames,
		BeforeBlock: app.schedule(frames),
	})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close %s: %w", app.config.Output, cerr)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "%s: %d frames, RMS %.1f dBFS, peak %.1f dBFS\n",
		app.config.Output, stats.Frames, dsp.DBFS(stats.RMS), dsp.DBFS(stats.Peak))
	return nil
}

// schedule はブロックごとに呼ばれ、先頭でノートを鳴らし、3/4の位置で離す。
// ブレススイープ時はブレスを0から1へ動かす
func (app *Application) schedule(frames int) func(frame int) {
	releaseAt := frames * 3 / 4
	started, released := false, false

	return func(frame int) {
		if app.config.BreathSweep {
			app.player.SetBreathControl(float64(frame) / float64(frames))
		}
		if !started {
			app.noteOn()
			started = true
		}
		if !released && frame >= releaseAt {
			app.noteOff()
			released = true
		}
	}
}

func (app *Application) noteOn() {
	for _, n := range app.config.Notes {
		app.player.NoteOn(n, noteVelocity, 0)
	}
}

func (app *Application) noteOff() {
	for _, n := range app.config.Notes {
		app.player.NoteOff(n, 0)
	}
}

// runRealtime オーディオデバイスで再生する。タイムアウトまたはSIGINTで終了
func (app *Application) runRealtime() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	h, err := host.New(app.config.Backend, app.player, host.Config{
		SampleRate: app.config.SampleRate,
		BlockSize:  app.config.BlockSize,
	}, app.log)
	if err != nil {
		return err
	}
	if err := h.Start(); err != nil {
		return err
	}
	defer func() {
		if err := h.Stop(); err != nil {
			app.log.Warn("Failed to stop audio host", zap.Error(err))
		}
	}()

	if app.config.MIDIInput != "" {
		in, err := midi.OpenInput(app.config.MIDIInput, app.player, app.log)
		if err != nil {
			return err
		}
		defer func() {
			app.log.Debug("Closing MIDI input", zap.Int64("ignored", in.Ignored()))
			if err := in.Close(); err != nil {
				app.log.Warn("Failed to close MIDI input", zap.Error(err))
			}
		}()
	} else {
		// MIDI入力がない場合は設定されたノートを鳴らし続ける
		app.noteOn()
		defer app.noteOff()
	}

	app.log.Info("Playing", zap.Int("sampleRate", h.SampleRate()), zap.Duration("timeout", app.config.Timeout))
	<-ctx.Done()
	app.log.Info("Stopping", zap.NamedError("reason", context.Cause(ctx)))
	return nil
}
