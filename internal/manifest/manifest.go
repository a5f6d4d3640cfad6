// Package manifest summarizes the artifacts of a run per program and writes
// them as a CMake dependency file that converts images for the guide.
package manifest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/exrun/internal/block"
	"github.com/vk/exrun/internal/ctxlog"
)

// FileName is the manifest written by WriteFile, relative to the output root.
var FileName = filepath.Join("Examples", "GeneratedDependancies.cmake")

// Group is every declared output of a program's blocks followed by their
// .png inputs, in execution order.
type Group struct {
	Program   string
	Artifacts []string
}

// Groups collects artifacts per program name. Groups appear in the order
// their program first runs.
func Groups(order []*block.Block) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, b := range order {
		i, ok := index[b.ProgramName]
		if !ok {
			i = len(groups)
			index[b.ProgramName] = i
			groups = append(groups, Group{Program: b.ProgramName})
		}
		g := &groups[i]
		g.Artifacts = append(g.Artifacts, b.Outputs...)
		for _, in := range b.Inputs {
			// Only png inputs can be converted.
			if strings.HasSuffix(in.Path, ".png") {
				g.Artifacts = append(g.Artifacts, in.Path)
			}
		}
	}
	return groups
}

// Missing is a declared artifact absent after the run.
type Missing struct {
	Program string
	Path    string
	Output  bool
}

// Audit reports every declared output and input that does not exist on disk,
// logging a warning for each.
func Audit(ctx context.Context, order []*block.Block) []Missing {
	logger := ctxlog.FromContext(ctx)
	var missing []Missing
	for _, b := range order {
		for _, out := range b.Outputs {
			if !exists(out) {
				logger.Warn("Output does not exist after the run.", "output", out, "program", b.ProgramName)
				missing = append(missing, Missing{Program: b.ProgramName, Path: out, Output: true})
			}
		}
		for _, in := range b.Inputs {
			if !exists(in.Path) {
				logger.Warn("Input does not exist after the run.", "input", in.Path, "program", b.ProgramName)
				missing = append(missing, Missing{Program: b.ProgramName, Path: in.Path})
			}
		}
	}
	return missing
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// WriteCMake writes one CONVERT_INPUT_IMG call per artifact, a
// "<program>-DEPS" list per group and the allEPS-DEPS aggregate. Converted
// images are placed in epsDir.
func WriteCMake(w io.Writer, groups []Group, epsDir string) error {
	bw := bufio.NewWriter(w)
	all := "set(allEPS-DEPS "
	for _, g := range groups {
		deps := fmt.Sprintf("set(\"%s-DEPS\" ", g.Program)
		all += " \"${" + g.Program + "-DEPS}\" "
		for _, artifact := range g.Artifacts {
			eps := filepath.Join(epsDir, filepath.Base(strings.ReplaceAll(artifact, ".png", ".eps")))
			deps += fmt.Sprintf(" \"%s\"", slashes(eps))
			fmt.Fprintf(bw, "CONVERT_INPUT_IMG(\"%s\" \"%s\" \"%s\")\n", slashes(artifact), slashes(eps), "")
		}
		deps += ")\n"
		bw.WriteString(deps)
	}
	all += ")\n"
	bw.WriteString(all)
	return bw.Flush()
}

func slashes(p string) string { return strings.ReplaceAll(p, `\`, "/") }

// WriteFile writes the manifest for order under outputRoot and returns its
// path. EPS files go next to the generated artifacts.
func WriteFile(ctx context.Context, outputRoot, epsDir string, order []*block.Block) (string, error) {
	path := filepath.Join(outputRoot, FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating manifest dir: %w", err)
	}
	if err := os.MkdirAll(epsDir, 0755); err != nil {
		return "", fmt.Errorf("creating eps dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating manifest: %w", err)
	}
	groups := Groups(order)
	if err := WriteCMake(f, groups, epsDir); err != nil {
		f.Close()
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}

	ctxlog.FromContext(ctx).Info("Wrote dependency manifest.", "path", path, "programs", len(groups))
	return path, nil
}
