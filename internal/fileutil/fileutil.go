package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Removal describes one attempted deletion. Files and Bytes only count what
// was actually removed.
type Removal struct {
	Path  string
	Files int
	Bytes int64
	Err   error
}

// Removed reports whether anything was deleted.
func (r Removal) Removed() bool {
	return r.Files > 0
}

// Tally accumulates removal counts across many Removals.
type Tally struct {
	Files  int
	Bytes  int64
	Failed int
}

// Add folds r into the tally.
func (t *Tally) Add(r Removal) {
	t.Files += r.Files
	t.Bytes += r.Bytes
	if r.Err != nil {
		t.Failed++
	}
}

// Megabytes returns Bytes in binary megabytes.
func (t Tally) Megabytes() float64 {
	return float64(t.Bytes) / (1024 * 1024)
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// RemoveFile deletes a single regular file. A missing file is not an error
// and yields an empty Removal.
func RemoveFile(path string) Removal {
	result := Removal{Path: path}
	info, err := os.Lstat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.Err = fmt.Errorf("stat %s: %w", path, err)
		}
		return result
	}
	if info.IsDir() {
		result.Err = fmt.Errorf("remove %s: is a directory", path)
		return result
	}
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.Err = fmt.Errorf("remove %s: %w", path, err)
		}
		return result
	}
	result.Files = 1
	result.Bytes = info.Size()
	return result
}

// RemoveTree deletes path and everything below it, counting the regular
// files it contained. Directories themselves are not counted.
func RemoveTree(path string) Removal {
	result := Removal{Path: path}
	var files int
	var bytes int64
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files++
		if info, err := d.Info(); err == nil {
			bytes += info.Size()
		}
		return nil
	})
	if walkErr != nil {
		if !errors.Is(walkErr, fs.ErrNotExist) {
			result.Err = fmt.Errorf("scan %s: %w", path, walkErr)
		}
		return result
	}
	if err := os.RemoveAll(path); err != nil {
		result.Err = fmt.Errorf("remove %s: %w", path, err)
		return result
	}
	result.Files = files
	result.Bytes = bytes
	return result
}

// Remove deletes path whether it is a file or a directory tree.
func Remove(path string) Removal {
	info, err := os.Lstat(path)
	if err != nil {
		return RemoveFile(path)
	}
	if info.IsDir() {
		return RemoveTree(path)
	}
	return RemoveFile(path)
}
