package player

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zurustar/sfplayer/pkg/engine"
	"go.uber.org/zap"
)

// ErrEmptyBankPath is returned by LoadBank for an empty path.
var ErrEmptyBankPath = errors.New("empty bank path")

// BankResolver maps user-facing bank names to files. bank.Registry
// implements it.
type BankResolver interface {
	Resolve(name string) (string, error)
	DisplayName(path string) string
}

// LoadBank makes the bank at path the resident bank.
//
// It returns (false, nil) when path is already the loaded bank, (true, nil)
// when the bank was swapped in, and (false, err) when the swap failed. The
// swap holds the render lock for its whole duration, so at least one block
// of silence may be produced while a large bank is parsed. If the resident
// bank cannot be unloaded it stays resident and nothing else changes. If the
// new bank cannot be loaded after the old one was dropped, no bank is
// resident.
func (p *Player) LoadBank(path string) (bool, error) {
	if path == "" {
		return false, ErrEmptyBankPath
	}
	path = filepath.Clean(path)

	p.bankMu.Lock()
	defer p.bankMu.Unlock()

	prev := p.LoadedBank()
	if path == prev {
		p.log.Debug("bank already loaded", zap.String("path", path))
		return false, nil
	}
	if p.optimistic {
		p.setLoaded(path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.engine.Reset()

	if p.engine.BankCount() > 0 {
		if err := p.engine.UnloadBank(p.bankID); err != nil {
			p.log.Warn("failed to unload bank", zap.String("path", prev), zap.Error(err))
			return false, fmt.Errorf("failed to unload %s: %w", prev, err)
		}
		if !p.optimistic {
			p.setLoaded("")
		}
	}

	id, err := p.engine.LoadBank(path)
	if err != nil {
		p.log.Warn("failed to load bank", zap.String("path", path), zap.Error(err))
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	p.bankID = id
	if !p.optimistic {
		p.setLoaded(path)
	}

	p.log.Info("bank loaded", zap.String("path", path), zap.Int("id", id))
	return true, nil
}

// LoadNamedBank resolves name through the configured BankResolver and loads
// the result.
func (p *Player) LoadNamedBank(name string) (bool, error) {
	if p.resolver == nil {
		return false, fmt.Errorf("no bank registry for %q: %w", name, engine.ErrUnknownBank)
	}
	path, err := p.resolver.Resolve(name)
	if err != nil {
		return false, fmt.Errorf("failed to resolve bank %q: %w", name, err)
	}
	return p.LoadBank(path)
}

// UnloadBank drops the resident bank. It returns (false, nil) when no bank is
// resident.
func (p *Player) UnloadBank() (bool, error) {
	p.bankMu.Lock()
	defer p.bankMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine.BankCount() == 0 {
		p.setLoaded("")
		return false, nil
	}

	prev := p.LoadedBank()
	p.engine.Reset()
	if err := p.engine.UnloadBank(p.bankID); err != nil {
		p.log.Warn("failed to unload bank", zap.String("path", prev), zap.Error(err))
		return false, fmt.Errorf("failed to unload %s: %w", prev, err)
	}
	p.setLoaded("")

	p.log.Info("bank unloaded", zap.String("path", prev))
	return true, nil
}

// LoadedBank returns the path of the loaded bank, or "" when none is.
func (p *Player) LoadedBank() string {
	return *p.loaded.Load()
}

// LoadedBankName returns the display name of the loaded bank, or "" when
// none is.
func (p *Player) LoadedBankName() string {
	path := p.LoadedBank()
	if path == "" {
		return ""
	}
	if p.resolver != nil {
		return p.resolver.DisplayName(path)
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Player) setLoaded(path string) {
	p.loaded.Store(&path)
}
