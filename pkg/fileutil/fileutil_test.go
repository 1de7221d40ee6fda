package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"Grand_Piano.sf2",
		"STRINGS.SF2",
		"flute.sf2",
	}
	for _, filename := range testFiles {
		if err := os.WriteFile(filepath.Join(tmpDir, filename), []byte("RIFF"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "Grand_Piano.sf2", true, "Grand_Piano.sf2"},
		{"lowercase search", "grand_piano.sf2", true, "Grand_Piano.sf2"},
		{"mixed case search for uppercase file", "Strings.sf2", true, "STRINGS.SF2"},
		{"uppercase search for lowercase file", "FLUTE.SF2", true, "flute.sf2"},
		{"missing file", "organ.sf2", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFileCaseInsensitive(tmpDir, tt.searchName)
			if !tt.shouldFind {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				if !errors.Is(err, fs.ErrNotExist) {
					t.Errorf("expected fs.ErrNotExist, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := filepath.Join(tmpDir, tt.expectedMatch); got != want {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

func TestFindFileCaseInsensitive_MissingDir(t *testing.T) {
	if _, err := FindFileCaseInsensitive(filepath.Join(t.TempDir(), "nope"), "a.sf2"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestHasExtFold(t *testing.T) {
	cases := map[string]bool{
		"piano.sf2":     true,
		"PIANO.SF2":     true,
		"piano.Sf2":     true,
		"piano.sf3":     false,
		"piano":         false,
		"sf2":           false,
		"dir/piano.sf2": true,
	}
	for name, want := range cases {
		if got := HasExtFold(name, ".sf2"); got != want {
			t.Errorf("HasExtFold(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEmbedFS_ReadFileCaseInsensitive(t *testing.T) {
	mfs := fstest.MapFS{
		"soundfonts/Piano.sf2":  {Data: []byte("piano")},
		"soundfonts/readme.txt": {Data: []byte("x")},
	}
	efs := NewEmbedFS(mfs, "soundfonts")

	data, err := efs.ReadFile("PIANO.SF2")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "piano" {
		t.Errorf("got %q", data)
	}
	if !efs.IsEmbedded() {
		t.Error("EmbedFS should report embedded")
	}

	entries, err := efs.ReadDir(".")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestRealFS_ReadFileRelativeAndAbsolute(t *testing.T) {
	tmpDir := t.TempDir()
	abs := filepath.Join(tmpDir, "Bank.sf2")
	if err := os.WriteFile(abs, []byte("bank"), 0644); err != nil {
		t.Fatal(err)
	}

	rfs := NewRealFS(tmpDir)
	for _, name := range []string{"Bank.sf2", "bank.SF2", abs} {
		data, err := rfs.ReadFile(name)
		if err != nil {
			t.Fatalf("ReadFile(%q) failed: %v", name, err)
		}
		if string(data) != "bank" {
			t.Errorf("ReadFile(%q) = %q", name, data)
		}
	}
	if rfs.IsEmbedded() {
		t.Error("RealFS should not report embedded")
	}
}

func TestWalkDir_RelativePaths(t *testing.T) {
	t.Run("embedded", func(t *testing.T) {
		mfs := fstest.MapFS{
			"res/a.sf2":     {Data: []byte("a")},
			"res/sub/b.sf2": {Data: []byte("b")},
		}
		got := walkFiles(t, NewEmbedFS(mfs, "res"))
		want := []string{"a.sf2", "sub/b.sf2"}
		assertPaths(t, got, want)
	})

	t.Run("real", func(t *testing.T) {
		tmpDir := t.TempDir()
		os.MkdirAll(filepath.Join(tmpDir, "sub"), 0755)
		os.WriteFile(filepath.Join(tmpDir, "a.sf2"), []byte("a"), 0644)
		os.WriteFile(filepath.Join(tmpDir, "sub", "b.sf2"), []byte("b"), 0644)

		got := walkFiles(t, NewRealFS(tmpDir))
		want := []string{"a.sf2", filepath.Join("sub", "b.sf2")}
		assertPaths(t, got, want)
	})
}

func walkFiles(t *testing.T, fsys FileSystem) []string {
	t.Helper()
	var files []string
	err := WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir failed: %v", err)
	}
	sort.Strings(files)
	return files
}

func assertPaths(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("path %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
