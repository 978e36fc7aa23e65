package io

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateAll creates a file along with its parent directory, if missing.
//
// `dmod` effects only newly-created directories.
func CreateAll(name string, fmod os.FileMode, dmod os.FileMode) (*os.File, error) {
	dirname := filepath.Dir(name)
	if err := os.MkdirAll(dirname, dmod); err != nil {
		return nil, err
	}

	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fmod)
}

// DirCopy copies the file tree rooted at src into dest.
func DirCopy(src string, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, os.FileMode(0755))
		}

		from, err := os.Open(path)
		if err != nil {
			return err
		}
		defer from.Close()

		to, err := CreateAll(target, os.FileMode(0644), os.FileMode(0755))
		if err != nil {
			return err
		}
		defer to.Close()

		_, err = io.Copy(to, from)
		return err
	})
}
