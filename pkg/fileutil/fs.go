package fileutil

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem is the read-only view the bank registry and the engine loader
// use. Lookups ignore case.
type FileSystem interface {
	Open(name string) (fs.File, error)
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	IsEmbedded() bool
}

// RealFS reads from the host file system, relative to basePath when the
// requested name is not absolute.
type RealFS struct {
	basePath string
}

func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) Open(name string) (fs.File, error) {
	p, err := r.locate(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	p, err := r.locate(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (r *RealFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(r.resolve(name))
}

func (r *RealFS) IsEmbedded() bool { return false }

func (r *RealFS) resolve(name string) string {
	if filepath.IsAbs(name) || r.basePath == "" {
		return name
	}
	return filepath.Join(r.basePath, name)
}

func (r *RealFS) locate(name string) (string, error) {
	p := r.resolve(name)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

// EmbedFS reads from an fs.FS (normally an embed.FS) rooted at basePath.
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	return &EmbedFS{fsys: fsys, basePath: basePath}
}

func (e *EmbedFS) Open(name string) (fs.File, error) {
	p, err := e.locate(name)
	if err != nil {
		return nil, err
	}
	return e.fsys.Open(p)
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	p, err := e.locate(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, p)
}

func (e *EmbedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(e.fsys, e.resolve(name))
}

func (e *EmbedFS) IsEmbedded() bool { return true }

// resolve maps name onto a slash-separated path inside fsys. "." and "" name
// the base directory itself.
func (e *EmbedFS) resolve(name string) string {
	clean := strings.TrimLeft(filepath.ToSlash(name), "/")
	if clean == "" || clean == "." {
		if e.basePath == "" {
			return "."
		}
		return e.basePath
	}
	if e.basePath == "" {
		return path.Clean(clean)
	}
	return path.Join(e.basePath, clean)
}

func (e *EmbedFS) locate(name string) (string, error) {
	p := e.resolve(name)
	if f, err := e.fsys.Open(p); err == nil {
		f.Close()
		return p, nil
	}
	return FindFileCaseInsensitiveFS(e.fsys, path.Dir(p), path.Base(p))
}

// WalkDir walks root within fsys and reports paths relative to the file
// system's base path, so results can be passed back to ReadFile unchanged.
func WalkDir(fsys FileSystem, root string, fn fs.WalkDirFunc) error {
	switch v := fsys.(type) {
	case *EmbedFS:
		start := v.resolve(root)
		return fs.WalkDir(v.fsys, start, func(p string, d fs.DirEntry, err error) error {
			return fn(relSlash(v.basePath, p), d, err)
		})
	case *RealFS:
		start := v.resolve(root)
		return filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
			rel := p
			if v.basePath != "" {
				if r, relErr := filepath.Rel(v.basePath, p); relErr == nil {
					rel = r
				}
			}
			return fn(rel, d, err)
		})
	default:
		return fs.WalkDir(dirFS{fsys}, root, fn)
	}
}

func relSlash(base, p string) string {
	switch {
	case base == "":
		return p
	case p == base:
		return "."
	case strings.HasPrefix(p, base+"/"):
		return strings.TrimPrefix(p, base+"/")
	}
	return p
}

// dirFS lets fs.WalkDir drive any other FileSystem; Open and ReadDir are
// promoted.
type dirFS struct {
	FileSystem
}
