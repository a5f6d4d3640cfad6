package integration_tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/exrun/internal/app"
	"github.com/vk/exrun/internal/testutil"
)

// defaultSettings is appended to the generated roots unless a test brings
// its own exec_dir and search_paths.
const defaultSettings = `
exec_dir     = "${build_dir}/bin"
search_paths = ["${source_dir}/../data"]
`

// harnessResult holds the outcome of one integration run.
type harnessResult struct {
	Root   string
	Output string
	Err    error
}

// path joins rel onto the run's root directory.
func (r *harnessResult) path(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}

// artifact returns where a generated artifact named name is written.
func (r *harnessResult) artifact(name string) string {
	return r.path("out/Art/Generated/" + name)
}

// runIntegrationTest lays files out under a temp root, writes exrun.hcl with
// the src, build and out roots followed by settings, and runs the app on it.
// Files under build/bin/ are made executable.
func runIntegrationTest(ctx context.Context, t *testing.T, files map[string]string, settings string, mutate ...func(*app.Config)) *harnessResult {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}

	root := t.TempDir()
	for _, dir := range []string{"src", "build/bin", "data", "out"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		mode := os.FileMode(0644)
		if strings.HasPrefix(name, "build/bin/") {
			mode = 0755
		}
		require.NoError(t, os.WriteFile(p, []byte(content), mode))
	}

	if settings == "" {
		settings = defaultSettings
	}
	hcl := fmt.Sprintf("source_dir = %q\nbuild_dir = %q\noutput_dir = %q\n%s",
		filepath.Join(root, "src"), filepath.Join(root, "build"), filepath.Join(root, "out"), settings)
	configPath := filepath.Join(root, "exrun.hcl")
	require.NoError(t, os.WriteFile(configPath, []byte(hcl), 0644))

	cfg := &app.Config{ConfigPath: configPath, LogLevel: "debug", LogFormat: "text"}
	for _, m := range mutate {
		m(cfg)
	}

	out := &testutil.SafeBuffer{}
	res := &harnessResult{Root: root}
	exrunApp, err := app.NewApp(out, cfg)
	if err == nil {
		err = exrunApp.Run(ctx)
	}
	res.Err = err
	res.Output = out.String()

	if os.Getenv("EXRUN_TEST_LOGS") == "true" {
		t.Logf("--- Full Output for %s ---\n%s", t.Name(), res.Output)
	}
	return res
}

// source renders a source file holding one command block per entry.
func source(blocks ...[]string) string {
	var sb strings.Builder
	for _, decls := range blocks {
		sb.WriteString("//  BeginCommandLineArgs\n")
		for _, d := range decls {
			sb.WriteString("//    " + d + "\n")
		}
		sb.WriteString("//  EndCommandLineArgs\n")
	}
	sb.WriteString("int main() { return 0; }\n")
	return sb.String()
}

func script(body string) string {
	return "#!/bin/sh\n" + body + "\n"
}
