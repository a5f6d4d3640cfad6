// Package pathfinder maps artifact and program names to filesystem paths for
// a run. It implements block.PathResolver.
package pathfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ErrMissingSearchDir is returned by New when a configured search directory
// does not exist.
var ErrMissingSearchDir = errors.New("missing search path")

// ArtifactSubdir is where outputs are written, relative to the output root.
var ArtifactSubdir = filepath.Join("Art", "Generated")

// Options configure a Finder.
type Options struct {
	// ExecDir holds the built example programs.
	ExecDir string
	// OutputRoot is the base output directory; artifacts go to
	// OutputRoot/Art/Generated.
	OutputRoot string
	// SearchDirs are looked up in order for input artifacts.
	SearchDirs []string
}

// Finder resolves paths against fixed directories. It is safe for concurrent
// use after New returns.
type Finder struct {
	execDir     string
	artifactDir string
	searchDirs  []string
}

// New creates the artifact directory and checks every search directory.
func New(opts Options) (*Finder, error) {
	if opts.ExecDir == "" {
		return nil, errors.New("pathfinder: exec dir is required")
	}
	if opts.OutputRoot == "" {
		return nil, errors.New("pathfinder: output root is required")
	}

	execDir, err := realPath(opts.ExecDir)
	if err != nil {
		return nil, fmt.Errorf("pathfinder: exec dir: %w", err)
	}

	artifactDir := filepath.Join(opts.OutputRoot, ArtifactSubdir)
	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return nil, fmt.Errorf("pathfinder: creating artifact dir: %w", err)
	}
	if artifactDir, err = realPath(artifactDir); err != nil {
		return nil, fmt.Errorf("pathfinder: artifact dir: %w", err)
	}

	f := &Finder{execDir: execDir, artifactDir: artifactDir}
	for _, dir := range opts.SearchDirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrMissingSearchDir, dir)
		}
		real, err := realPath(dir)
		if err != nil {
			return nil, fmt.Errorf("pathfinder: search dir %s: %w", dir, err)
		}
		f.searchDirs = append(f.searchDirs, real)
	}
	return f, nil
}

// ArtifactDir returns the directory outputs are written to.
func (f *Finder) ArtifactDir() string { return f.artifactDir }

// SearchDirs returns the resolved search directories in lookup order.
func (f *Finder) SearchDirs() []string {
	return append([]string(nil), f.searchDirs...)
}

// ResolveInput returns the first existing file named name in the search
// directories. An absolute name is only checked for existence.
func (f *Finder) ResolveInput(name string) (string, bool) {
	if filepath.IsAbs(name) {
		p := filepath.Clean(name)
		if _, err := os.Stat(p); err != nil {
			return "", false
		}
		return p, true
	}
	for _, dir := range f.searchDirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// ResolveOutput returns where an output named name is written. Absolute
// names are kept as they are.
func (f *Finder) ResolveOutput(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(f.artifactDir, name)
}

// ResolveProgram returns the executable built from baseName. It only builds
// the path; the caller checks that it exists.
func (f *Finder) ResolveProgram(baseName string) (string, error) {
	if baseName == "" {
		return "", errors.New("empty program name")
	}
	p := filepath.Join(f.execDir, baseName)
	if runtime.GOOS == "windows" {
		p += ".exe"
	}
	return p, nil
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
