package bank

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/zurustar/sfplayer/pkg/fileutil"
	"golang.org/x/text/language"
)

func embeddedBanks() fstest.MapFS {
	return fstest.MapFS{
		"banks/Grand_Piano.sf2":       {Data: makeSF2(chunk("INAM", zdata("Steinway D")))},
		"banks/Jazz_Organ.SF2":        {Data: []byte("truncated")},
		"banks/100%_Strings.sf2":      {Data: makeSF2()},
		"banks/readme.txt":            {Data: []byte("not a bank")},
		"banks/nested/Choir_Aahs.sf2": {Data: makeSF2()},
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("embedded directory", func(t *testing.T) {
		r, err := NewRegistry(fileutil.NewEmbedFS(embeddedBanks(), ""), "banks")
		if err != nil {
			t.Fatalf("NewRegistry failed: %v", err)
		}
		want := []string{"100% Strings", "Choir Aahs", "Grand Piano", "Jazz Organ"}
		if got := r.Names(); !reflect.DeepEqual(got, want) {
			t.Errorf("Names = %v, want %v", got, want)
		}

		banks := r.Banks()
		if banks[1].Path != "banks/nested/Choir_Aahs.sf2" {
			t.Errorf("nested bank = %+v", banks[1])
		}
		if banks[2].Path != "banks/Grand_Piano.sf2" || !banks[2].IsEmbedded {
			t.Errorf("bank = %+v", banks[2])
		}
		if got := banks[2].Title(); got != "Steinway D" {
			t.Errorf("Title = %q, want Steinway D", got)
		}
		if banks[3].Info != nil {
			t.Error("unreadable header should leave Info nil")
		}
		if got := banks[3].Title(); got != "Jazz Organ" {
			t.Errorf("Title = %q, want Jazz Organ", got)
		}
	})

	t.Run("real directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "Pads", "Analog"), 0o755); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"Choir_Aahs.sf2", "notes.md", filepath.Join("Pads", "Analog", "Warm_Pad.sf2")} {
			if err := os.WriteFile(filepath.Join(dir, name), makeSF2(), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		r, err := NewRegistry(fileutil.NewRealFS(""), dir)
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Names(); !reflect.DeepEqual(got, []string{"Choir Aahs", "Warm Pad"}) {
			t.Errorf("Names = %v", got)
		}
		if p, err := r.Resolve("warm pad"); err != nil || p != filepath.Join(dir, "Pads", "Analog", "Warm_Pad.sf2") {
			t.Errorf("Resolve(warm pad) = (%q, %v)", p, err)
		}
		p, err := r.Resolve("Choir Aahs")
		if err != nil {
			t.Fatal(err)
		}
		if p != filepath.Join(dir, "Choir_Aahs.sf2") {
			t.Errorf("Resolve = %q", p)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewRegistry(fileutil.NewRealFS(""), filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Error("expected error for missing directory")
		}
	})
}

func TestResolve(t *testing.T) {
	r, err := NewRegistry(fileutil.NewEmbedFS(embeddedBanks(), ""), "banks")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"Grand Piano", "banks/Grand_Piano.sf2"},
		{"grand piano", "banks/Grand_Piano.sf2"},
		{"Grand_Piano", "banks/Grand_Piano.sf2"},
		{"grand_piano.SF2", "banks/Grand_Piano.sf2"},
		{"  Jazz Organ ", "banks/Jazz_Organ.SF2"},
		{"100% strings", "banks/100%_Strings.sf2"},
		{"100%_Strings", "banks/100%_Strings.sf2"},
		{"choir_aahs", "banks/nested/Choir_Aahs.sf2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.name)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := r.Resolve("Harpsichord"); !errors.Is(err, ErrBankNotFound) {
			t.Errorf("err = %v, want ErrBankNotFound", err)
		}
	})
}

func TestDisplayName(t *testing.T) {
	t.Run("untranslated", func(t *testing.T) {
		r, err := NewRegistry(fileutil.NewEmbedFS(embeddedBanks(), ""), "banks")
		if err != nil {
			t.Fatal(err)
		}
		tests := []struct {
			in, want string
		}{
			{"/x/Grand_Piano.sf2", "Grand Piano"},
			{"Flute.SF2", "Flute"},
			{"/x/100%_Strings.sf2", "100% Strings"},
			{"/x/Cafe\u0301_Bass.sf2", "Caf\u00e9 Bass"},
		}
		for _, tt := range tests {
			if got := r.DisplayName(tt.in); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("translated", func(t *testing.T) {
		r, err := NewRegistry(fileutil.NewEmbedFS(embeddedBanks(), ""), "banks",
			WithLanguage(language.Japanese),
			WithTranslations(map[language.Tag]map[string]string{
				language.Japanese: {"Grand Piano": "グランドピアノ"},
			}),
		)
		if err != nil {
			t.Fatal(err)
		}
		if got := r.DisplayName("banks/Grand_Piano.sf2"); got != "グランドピアノ" {
			t.Errorf("DisplayName = %q, want グランドピアノ", got)
		}
		if got := r.DisplayName("banks/Jazz_Organ.SF2"); got != "Jazz Organ" {
			t.Errorf("untranslated DisplayName = %q, want Jazz Organ", got)
		}
		p, err := r.Resolve("グランドピアノ")
		if err != nil || p != "banks/Grand_Piano.sf2" {
			t.Errorf("Resolve(translated) = (%q, %v)", p, err)
		}
		if p, err := r.Resolve("Grand Piano"); err != nil || p != "banks/Grand_Piano.sf2" {
			t.Errorf("Resolve(untranslated) = (%q, %v)", p, err)
		}
	})
}

func TestDefaultDirectory(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", filepath.Join("/app/MacOS", "..", "Resources", "Soundfonts")},
		{"linux", filepath.Join("/app/MacOS", "Resources", "Soundfonts")},
		{"windows", filepath.Join("/app/MacOS", "Resources", "Soundfonts")},
	}
	for _, tt := range tests {
		if got := defaultDirectory(tt.goos, "/app/MacOS"); got != tt.want {
			t.Errorf("defaultDirectory(%s) = %q, want %q", tt.goos, got, tt.want)
		}
	}

	if _, err := DefaultDirectory(); err != nil {
		t.Errorf("DefaultDirectory failed: %v", err)
	}
}
