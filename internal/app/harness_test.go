package app

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/exrun/internal/testutil"
)

// tree is a throwaway source, program, data and output layout for one run.
type tree struct {
	Src  string
	Bin  string
	Data string
	Out  string
}

func newTree(t *testing.T) *tree {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	root := t.TempDir()
	tr := &tree{
		Src:  filepath.Join(root, "src"),
		Bin:  filepath.Join(root, "bin"),
		Data: filepath.Join(root, "data"),
		Out:  filepath.Join(root, "out"),
	}
	for _, dir := range []string{tr.Src, tr.Bin, tr.Data, tr.Out} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return tr
}

// source writes name under Src with one command block per entry of blocks,
// each entry being the declaration lines of that block.
func (tr *tree) source(t *testing.T, name string, blocks ...[]string) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("#include <iostream>\n")
	for _, decls := range blocks {
		sb.WriteString("//  BeginCommandLineArgs\n")
		for _, d := range decls {
			sb.WriteString("//    " + d + "\n")
		}
		sb.WriteString("//  EndCommandLineArgs\n")
		sb.WriteString("int main() { return 0; }\n")
	}
	p := filepath.Join(tr.Src, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(sb.String()), 0644))
}

func (tr *tree) program(t *testing.T, name, script string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(tr.Bin, name), []byte("#!/bin/sh\n"+script+"\n"), 0755))
}

func (tr *tree) artifact(name string) string {
	return filepath.Join(tr.Out, "Art", "Generated", name)
}

// config returns a valid Config for the tree with debug text logging.
func (tr *tree) config() *Config {
	cfg := &Config{LogLevel: "debug", LogFormat: "text"}
	cfg.Settings.SourceDir = tr.Src
	cfg.Settings.ExecDir = tr.Bin
	cfg.Settings.OutputDir = tr.Out
	cfg.Settings.SearchPaths = []string{tr.Data}
	return cfg
}

func (tr *tree) newApp(t *testing.T, cfg *Config, opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()
	out := &testutil.SafeBuffer{}
	a, err := NewApp(out, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if os.Getenv("EXRUN_TEST_LOGS") == "true" {
			t.Logf("--- Full Output for %s ---\n%s", t.Name(), out.String())
		}
	})
	return a, out
}
