// Package fsutil finds and reads the source files a run scans for command
// blocks.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindFilesByExtension recursively searches rootPath for files ending with
// extension, in lexical order. Directories whose path below rootPath contains
// any of skipMarkers are not entered.
func FindFilesByExtension(rootPath string, extension string, skipMarkers ...string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && skipped(rootPath, path, skipMarkers) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

func skipped(rootPath, path string, markers []string) bool {
	rel, err := filepath.Rel(rootPath, path)
	if err != nil {
		rel = path
	}
	for _, m := range markers {
		if m != "" && strings.Contains(rel, m) {
			return true
		}
	}
	return false
}
