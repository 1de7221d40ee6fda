package app

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zurustar/sfplayer/pkg/bank"
	"github.com/zurustar/sfplayer/pkg/fileutil"
)

// EmbeddedBankDir is the directory inside the embedded file system that holds
// bundled banks.
const EmbeddedBankDir = "soundfonts"

// BankLocation is where the registry scans for banks.
type BankLocation struct {
	// Dir is the directory to scan, relative to FileSystem
	Dir string
	// FileSystem is the FileSystem the registry and the engine read through
	FileSystem fileutil.FileSystem
	// IsEmbedded indicates whether the banks are embedded in the binary
	IsEmbedded bool
}

// findBanks picks the bank directory in the following order:
// 1. The directory given with --bank-dir (used even when it holds no banks)
// 2. Resources/Soundfonts next to the executable
// 3. The embedded soundfonts directory
//
// It returns nil when none of them holds a bank.
func findBanks(embedFS fs.FS, bankDir, defaultDir string) *BankLocation {
	// 1. 明示的に指定されたディレクトリ
	if bankDir != "" {
		return &BankLocation{
			Dir:        bankDir,
			FileSystem: fileutil.NewRealFS(""),
		}
	}

	// 2. 実行ファイル横のディレクトリ
	if defaultDir != "" && hasBanks(os.DirFS(defaultDir), ".") {
		return &BankLocation{
			Dir:        defaultDir,
			FileSystem: fileutil.NewRealFS(""),
		}
	}

	// 3. 埋め込みディレクトリ（FileSystemのベースパスが"soundfonts"なので、Dirは"."）
	if embedFS != nil && hasBanks(embedFS, EmbeddedBankDir) {
		return &BankLocation{
			Dir:        ".",
			FileSystem: fileutil.NewEmbedFS(embedFS, EmbeddedBankDir),
			IsEmbedded: true,
		}
	}

	return nil
}

// hasBanks reports whether dir or any directory below it holds a bank.
func hasBanks(fsys fs.FS, dir string) bool {
	found := false
	_ = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && fileutil.HasExtFold(d.Name(), bank.Ext) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// isBankFile reports whether name is a path to a bank file on disk rather than
// a registry name.
func isBankFile(name string) bool {
	if !fileutil.HasExtFold(filepath.Base(name), bank.Ext) {
		return false
	}
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
