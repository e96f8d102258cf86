// Package zip streams directory trees as zip archives.
package zip

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrEmpty is returned when root holds no regular files.
var ErrEmpty = errors.New("zip: nothing to archive")

// Entry is one file queued for an archive.
type Entry struct {
	Name string
	Path string
}

// Collect lists every regular file under root with slash-separated names
// relative to root, in lexical order.
func Collect(root string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: filepath.ToSlash(rel), Path: p})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return entries, nil
}

// Write streams entries into w as a zip archive.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := copyEntry(zw, e); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func copyEntry(zw *zip.Writer, e Entry) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	dst, err := zw.Create(e.Name)
	if err != nil {
		return fmt.Errorf("zip: create %s: %w", e.Name, err)
	}
	_, err = io.Copy(dst, f)
	return err
}
