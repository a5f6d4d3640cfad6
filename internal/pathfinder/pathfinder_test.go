package pathfinder

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (root string, opts Options) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for _, d := range []string{"bin", "data/a", "data/b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
	return root, Options{
		ExecDir:    filepath.Join(root, "bin"),
		OutputRoot: filepath.Join(root, "out"),
		SearchDirs: []string{filepath.Join(root, "data/a"), filepath.Join(root, "data/b")},
	}
}

func TestNew_CreatesArtifactDir(t *testing.T) {
	root, opts := setup(t)
	f, err := New(opts)
	require.NoError(t, err)

	want := filepath.Join(root, "out", "Art", "Generated")
	assert.Equal(t, want, f.ArtifactDir())
	info, err := os.Stat(want)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, []string{filepath.Join(root, "data/a"), filepath.Join(root, "data/b")}, f.SearchDirs())
}

func TestNew_MissingSearchDir(t *testing.T) {
	root, opts := setup(t)
	opts.SearchDirs = append(opts.SearchDirs, filepath.Join(root, "nope"))
	_, err := New(opts)
	require.ErrorIs(t, err, ErrMissingSearchDir)
	assert.Contains(t, err.Error(), "nope")
}

func TestNew_SearchDirIsFile(t *testing.T) {
	root, opts := setup(t)
	file := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	opts.SearchDirs = []string{file}
	_, err := New(opts)
	require.ErrorIs(t, err, ErrMissingSearchDir)
}

func TestNew_RequiredOptions(t *testing.T) {
	_, opts := setup(t)
	noExec := opts
	noExec.ExecDir = ""
	_, err := New(noExec)
	assert.ErrorContains(t, err, "exec dir is required")

	noOut := opts
	noOut.OutputRoot = ""
	_, err = New(noOut)
	assert.ErrorContains(t, err, "output root is required")
}

func TestResolveInput_SearchOrder(t *testing.T) {
	root, opts := setup(t)
	f, err := New(opts)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "data/b", "brain.png"), nil, 0644))
	p, ok := f.ResolveInput("brain.png")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "data/b", "brain.png"), p)

	// An earlier search dir shadows a later one.
	require.NoError(t, os.WriteFile(filepath.Join(root, "data/a", "brain.png"), nil, 0644))
	p, ok = f.ResolveInput("brain.png")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "data/a", "brain.png"), p)

	_, ok = f.ResolveInput("absent.png")
	assert.False(t, ok)
}

func TestResolve_AbsoluteNames(t *testing.T) {
	root, opts := setup(t)
	f, err := New(opts)
	require.NoError(t, err)

	elsewhere := filepath.Join(root, "elsewhere", "img.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(elsewhere), 0755))
	require.NoError(t, os.WriteFile(elsewhere, nil, 0644))

	p, ok := f.ResolveInput(elsewhere)
	require.True(t, ok)
	assert.Equal(t, elsewhere, p)

	p, ok = f.ResolveInput(filepath.Join(root, "elsewhere", "..", "elsewhere", "img.png"))
	require.True(t, ok)
	assert.Equal(t, elsewhere, p)

	_, ok = f.ResolveInput(filepath.Join(root, "elsewhere", "absent.png"))
	assert.False(t, ok)

	out := filepath.Join(root, "results", "neg.png")
	assert.Equal(t, out, f.ResolveOutput(out))
	assert.Equal(t, out, f.ResolveOutput(filepath.Join(root, "results", ".", "neg.png")))
}

func TestResolveOutputAndProgram(t *testing.T) {
	root, opts := setup(t)
	f, err := New(opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "out", "Art", "Generated", "x.png"), f.ResolveOutput("x.png"))

	p, err := f.ResolveProgram("NegateFilter")
	require.NoError(t, err)
	want := filepath.Join(root, "bin", "NegateFilter")
	if runtime.GOOS == "windows" {
		want += ".exe"
	}
	assert.Equal(t, want, p)

	_, err = f.ResolveProgram("")
	assert.Error(t, err)
}
