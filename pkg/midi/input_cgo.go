//go:build cgo

package midi

import (
	"fmt"
	"strings"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"
)

// Input forwards events from one hardware input port to a Dispatcher. The
// driver invokes the dispatcher on its own goroutine.
type Input struct {
	driver  *rtmididrv.Driver
	in      drivers.In
	stop    func()
	log     *zap.Logger
	ignored atomic.Int64
}

// Ports lists the names of the available input ports.
func Ports() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDriver, err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// OpenInput opens the first input port whose name starts with prefix (any
// port when prefix is empty) and starts forwarding decoded events to d.
func OpenInput(prefix string, d Dispatcher, log *zap.Logger) (*Input, error) {
	if log == nil {
		log = zap.NewNop()
	}

	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoDriver, err)
	}

	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to list MIDI inputs: %w", err)
	}

	var port drivers.In
	for _, in := range ins {
		if strings.HasPrefix(in.String(), prefix) {
			port = in
			break
		}
	}
	if port == nil {
		drv.Close()
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, prefix)
	}

	if err := port.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("opening MIDI input failed: %w", err)
	}

	input := &Input{driver: drv, in: port, log: log}
	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, _ int32) {
		if ev, ok := Decode(msg); ok {
			d.Dispatch(ev)
			return
		}
		input.ignored.Add(1)
	})
	if err != nil {
		port.Close()
		drv.Close()
		return nil, fmt.Errorf("listening on MIDI input failed: %w", err)
	}
	input.stop = stop

	log.Info("MIDI input opened", zap.String("port", port.String()))
	return input, nil
}

// Name returns the port name.
func (i *Input) Name() string {
	return i.in.String()
}

// Ignored reports how many messages did not decode to an Event.
func (i *Input) Ignored() int64 {
	return i.ignored.Load()
}

func (i *Input) Close() error {
	if i.stop != nil {
		i.stop()
	}
	if i.in.IsOpen() {
		i.in.Close()
	}
	i.log.Info("MIDI input closed", zap.String("port", i.in.String()), zap.Int64("ignored", i.ignored.Load()))
	return i.driver.Close()
}
