package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/exrun/internal/block"
)

// Workspace is a temporary tree with a program dir, a data dir and an output
// dir. It implements block.PathResolver over them: inputs are looked up in
// Data, then Out, and must exist on disk.
type Workspace struct {
	Root string
	Bin  string
	Data string
	Out  string
}

// NewWorkspace creates the tree under t.TempDir().
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	root := t.TempDir()
	w := &Workspace{
		Root: root,
		Bin:  filepath.Join(root, "bin"),
		Data: filepath.Join(root, "data"),
		Out:  filepath.Join(root, "out"),
	}
	for _, dir := range []string{w.Bin, w.Data, w.Out} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return w
}

// ResolveInput implements block.PathResolver.
func (w *Workspace) ResolveInput(name string) (string, bool) {
	for _, dir := range []string{w.Data, w.Out} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// ResolveOutput implements block.PathResolver.
func (w *Workspace) ResolveOutput(name string) string {
	return filepath.Join(w.Out, name)
}

// ResolveProgram implements block.PathResolver.
func (w *Workspace) ResolveProgram(baseName string) (string, error) {
	return filepath.Join(w.Bin, baseName), nil
}

// Program writes an executable shell script named name into Bin.
func (w *Workspace) Program(t *testing.T, name, script string) string {
	t.Helper()
	p := filepath.Join(w.Bin, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+script+"\n"), 0755))
	return p
}

// WriteData creates a file in Data, as if it shipped with the source tree.
func (w *Workspace) WriteData(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(w.Data, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

// Block builds a block of source starting at line from already normalized
// declaration lines. A no-op program is created if none exists yet.
func (w *Workspace) Block(t *testing.T, source string, line int, lines ...string) *block.Block {
	t.Helper()
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if _, err := os.Stat(filepath.Join(w.Bin, name)); err != nil {
		w.Program(t, name, "exit 0")
	}
	b, err := block.New(source, block.RawBlock{Start: line, Lines: lines}, w)
	require.NoError(t, err)
	return b
}

// IDs returns the IDs of blocks in order.
func IDs(blocks []*block.Block) []block.ID {
	ids := make([]block.ID, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID()
	}
	return ids
}
