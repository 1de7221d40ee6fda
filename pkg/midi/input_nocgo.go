//go:build !cgo

package midi

import "go.uber.org/zap"

// Input is unavailable without cgo; OpenInput always fails.
type Input struct{}

func Ports() ([]string, error) {
	return nil, ErrNoDriver
}

func OpenInput(prefix string, d Dispatcher, log *zap.Logger) (*Input, error) {
	return nil, ErrNoDriver
}

func (i *Input) Name() string { return "" }

func (i *Input) Ignored() int64 { return 0 }

func (i *Input) Close() error { return nil }
