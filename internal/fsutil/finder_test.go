package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func TestFindFilesByExtension(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Examples/Filtering/B.cxx":         "",
		"Examples/Filtering/A.cxx":         "",
		"Examples/Filtering/A.h":           "",
		"Examples/IO/C.cxx":                "",
		"Modules/ThirdParty/zlib/Z.cxx":    "",
		"Modules/Core/ThirdPartyish/Q.cxx": "",
		"top.cxx":                          "",
	})

	got, err := FindFilesByExtension(root, ".cxx", "ThirdParty")
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "Examples/Filtering/A.cxx"),
		filepath.Join(root, "Examples/Filtering/B.cxx"),
		filepath.Join(root, "Examples/IO/C.cxx"),
		filepath.Join(root, "top.cxx"),
	}
	assert.Equal(t, want, got)
}

func TestFindFilesByExtension_NoMarkers(t *testing.T) {
	root := writeTree(t, map[string]string{"ThirdParty/x.cxx": "", "y.txt": ""})
	got, err := FindFilesByExtension(root, ".cxx")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "ThirdParty/x.cxx")}, got)
}

func TestFindFilesByExtension_RootContainingMarkerIsScanned(t *testing.T) {
	root := writeTree(t, map[string]string{"ThirdParty/src/x.cxx": ""})
	got, err := FindFilesByExtension(filepath.Join(root, "ThirdParty"), ".cxx", "ThirdParty")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".cxx")
	assert.Error(t, err)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}

func TestLoadSources_PreservesOrder(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		files[name+".cxx"] = "// " + name
	}
	root := writeTree(t, files)

	sources, err := LoadSources(context.Background(), root, ".cxx", nil)
	require.NoError(t, err)
	require.Len(t, sources, 10)
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		assert.Equal(t, filepath.Join(root, name+".cxx"), sources[i].ID)
		assert.Equal(t, "// "+name, sources[i].Text)
	}
}

func TestReadSources_Error(t *testing.T) {
	root := writeTree(t, map[string]string{"ok.cxx": ""})
	_, err := ReadSources(context.Background(), []string{filepath.Join(root, "ok.cxx"), filepath.Join(root, "gone.cxx")}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
