// Package bank enumerates the SoundFont banks available to the player and
// maps between file paths and the names shown to users.
package bank

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/zurustar/sfplayer/pkg/fileutil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/unicode/norm"
)

// Ext is the bank file extension. Matching ignores case.
const Ext = ".sf2"

// ErrBankNotFound is returned by Resolve for a name no bank answers to.
var ErrBankNotFound = errors.New("bank not found")

// Bank is one bank file.
type Bank struct {
	Name       string // display name
	Path       string // path passed to the engine
	IsEmbedded bool
	Info       *Info // nil when the header could not be read
}

// Title returns the bank's own INAM when it has one, else its display name.
func (b *Bank) Title() string {
	if b.Info != nil && b.Info.INAM != "" {
		return b.Info.INAM
	}
	return b.Name
}

// Registry lists the banks in one directory of a FileSystem.
type Registry struct {
	fsys    fileutil.FileSystem
	dir     string
	printer *message.Printer

	mu    sync.RWMutex
	banks []Bank
}

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	lang         language.Tag
	translations map[language.Tag]map[string]string
}

// WithLanguage selects the display language for bank names.
func WithLanguage(tag language.Tag) Option {
	return func(c *registryConfig) {
		c.lang = tag
	}
}

// WithTranslations registers translated display names, keyed by language and
// then by the untranslated display name.
func WithTranslations(t map[language.Tag]map[string]string) Option {
	return func(c *registryConfig) {
		c.translations = t
	}
}

// NewRegistry scans dir on fsys.
func NewRegistry(fsys fileutil.FileSystem, dir string, opts ...Option) (*Registry, error) {
	cfg := registryConfig{lang: language.English}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, names := range cfg.translations {
		for from, to := range names {
			if err := b.SetString(tag, escape(normalize(from)), escape(to)); err != nil {
				return nil, fmt.Errorf("failed to register translation %q: %w", from, err)
			}
		}
	}

	r := &Registry{
		fsys:    fsys,
		dir:     dir,
		printer: message.NewPrinter(cfg.lang, message.Catalog(b)),
	}
	if err := r.Rescan(); err != nil {
		return nil, err
	}
	return r, nil
}

// Rescan rereads the directory and its subdirectories. Files that are not
// banks are skipped.
func (r *Registry) Rescan() error {
	var banks []Bank
	err := fileutil.WalkDir(r.fsys, r.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fileutil.HasExtFold(d.Name(), Ext) {
			return nil
		}
		banks = append(banks, Bank{
			Name:       r.DisplayName(p),
			Path:       p,
			IsEmbedded: r.fsys.IsEmbedded(),
			Info:       r.readInfo(p),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read bank directory %s: %w", r.dir, err)
	}

	sort.Slice(banks, func(i, j int) bool {
		return fold(banks[i].Name) < fold(banks[j].Name)
	})

	r.mu.Lock()
	r.banks = banks
	r.mu.Unlock()
	return nil
}

func (r *Registry) readInfo(p string) *Info {
	f, err := r.fsys.Open(p)
	if err != nil {
		return nil
	}
	defer f.Close()
	info, err := ReadInfo(f)
	if err != nil {
		return nil
	}
	return info
}

// Banks returns the banks sorted by display name.
func (r *Registry) Banks() []Bank {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Bank(nil), r.banks...)
}

// Names returns the display names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.banks))
	for i, b := range r.banks {
		names[i] = b.Name
	}
	return names
}

// Resolve returns the path of the bank whose display name, untranslated
// name or file name matches name, ignoring case.
func (r *Registry) Resolve(name string) (string, error) {
	want := fold(name)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.banks {
		base := filepath.Base(b.Path)
		raw := strings.TrimSuffix(base, filepath.Ext(base))
		for _, candidate := range []string{b.Name, stem(base), raw, base} {
			if fold(candidate) == want {
				return b.Path, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrBankNotFound, name)
}

// DisplayName derives the user-facing name of the bank at p: the file name
// without extension, underscores as spaces, translated when a translation is
// registered.
func (r *Registry) DisplayName(p string) string {
	name := stem(filepath.Base(p))
	return r.printer.Sprintf(escape(name))
}

// stem strips the extension and turns underscores into spaces.
func stem(base string) string {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return normalize(strings.ReplaceAll(name, "_", " "))
}

// fold builds a fresh Caser per call; Casers are stateful.
func fold(s string) string {
	return cases.Fold().String(normalize(s))
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// escape protects literal percent signs from the message printer.
func escape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// DefaultDirectory returns the bank directory bundled next to the
// executable: Resources/Soundfonts beside it, or inside the app bundle's
// Resources on macOS.
func DefaultDirectory() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return defaultDirectory(runtime.GOOS, filepath.Dir(exe)), nil
}

func defaultDirectory(goos, exeDir string) string {
	if goos == "darwin" {
		return filepath.Join(exeDir, "..", "Resources", "Soundfonts")
	}
	return filepath.Join(exeDir, "Resources", "Soundfonts")
}
