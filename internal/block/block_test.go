package block

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver finds inputs from a fixed table and writes outputs to outDir.
type fakeResolver struct {
	inputs  map[string]string
	outDir  string
	progDir string
}

func (f *fakeResolver) ResolveInput(name string) (string, bool) {
	p, ok := f.inputs[name]
	return p, ok
}

func (f *fakeResolver) ResolveOutput(name string) string {
	return filepath.Join(f.outDir, name)
}

func (f *fakeResolver) ResolveProgram(baseName string) (string, error) {
	return filepath.Join(f.progDir, baseName), nil
}

// newFakeResolver creates temp dirs and an empty executable for each program.
func newFakeResolver(t *testing.T, programs ...string) *fakeResolver {
	t.Helper()
	root := t.TempDir()
	r := &fakeResolver{
		inputs:  map[string]string{},
		outDir:  filepath.Join(root, "out"),
		progDir: filepath.Join(root, "bin"),
	}
	require.NoError(t, os.MkdirAll(r.outDir, 0755))
	require.NoError(t, os.MkdirAll(r.progDir, 0755))
	for _, p := range programs {
		require.NoError(t, os.WriteFile(filepath.Join(r.progDir, p), []byte("#!/bin/sh\n"), 0755))
	}
	return r
}

const scaleSource = `#include "itkImage.h"

// Software Guide : BeginCommandLineArgs
//    INPUTS:  {foo.png}
//    OUTPUTS: {bar.png}
//    ARGUMENTS: --scale 2
// Software Guide : EndCommandLineArgs

int main(int argc, char * argv[]) { return 0; }
`

func TestParseSource_WellFormedBlock(t *testing.T) {
	r := newFakeResolver(t, "ScaleFilter")
	p := NewParser(r, false)

	blocks, err := p.ParseSource(context.Background(), Source{ID: "/src/ScaleFilter.cxx", Text: scaleSource})
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, ID{Source: "/src/ScaleFilter.cxx", Line: 3}, b.ID())
	assert.Equal(t, "ScaleFilter", b.ProgramName)
	assert.Equal(t, filepath.Join(r.progDir, "ScaleFilter"), b.Program)
	require.Len(t, b.Inputs, 1)
	assert.Equal(t, Artifact{Name: "foo.png", Path: filepath.Join(r.outDir, "foo.png")}, b.Inputs[0])
	assert.Equal(t, []string{filepath.Join(r.outDir, "bar.png")}, b.Outputs)
	assert.Equal(t, []string{"--scale", "2"}, b.Arguments)
	assert.Equal(t, []string{"INPUTS:  foo.png", "OUTPUTS: bar.png", "ARGUMENTS: --scale 2"}, b.RawLines)

	cl, unresolved := b.CommandLine(r)
	assert.True(t, strings.HasSuffix(cl.String(), "--scale 2"), "command line %q", cl.String())
	assert.Equal(t, []string{filepath.Join(r.outDir, "foo.png"), filepath.Join(r.outDir, "bar.png"), "--scale", "2"}, cl.Args)
	assert.Equal(t, []Artifact{{Name: "foo.png", Path: filepath.Join(r.outDir, "foo.png")}}, unresolved)
}

func TestParseSource_QuotedArguments(t *testing.T) {
	r := newFakeResolver(t, "Label")
	src := `
//  BeginCommandLineArgs
//    OUTPUTS: {labels.png}
//    ARGUMENTS: -title "Brain slice" 'T1 weighted'
//  EndCommandLineArgs
`
	blocks, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "Label.cxx", Text: src})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"-title", "Brain slice", "T1 weighted"}, blocks[0].Arguments)

	cl, _ := blocks[0].CommandLine(r)
	assert.Equal(t, []string{filepath.Join(r.outDir, "labels.png"), "-title", "Brain slice", "T1 weighted"}, cl.Args)
}

func TestParseSource_LocatedInput(t *testing.T) {
	r := newFakeResolver(t, "ScaleFilter")
	dataPath := filepath.Join(t.TempDir(), "foo.png")
	r.inputs["foo.png"] = dataPath

	blocks, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "ScaleFilter.cxx", Text: scaleSource})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, Artifact{Name: "foo.png", Path: dataPath, Located: true}, blocks[0].Inputs[0])

	_, unresolved := blocks[0].CommandLine(r)
	assert.Empty(t, unresolved)
}

func TestParseSource_UnknownKeyIsFatal(t *testing.T) {
	r := newFakeResolver(t, "Bogus")
	text := `// BeginCommandLineArgs
//   INPUTS: a.png
//   BOGUS: x
// EndCommandLineArgs
`
	blocks, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "Bogus.cxx", Text: text})
	require.Error(t, err)
	assert.Nil(t, blocks)
	assert.True(t, errors.Is(err, ErrParse))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Bogus.cxx", perr.Source)
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, perr.Error(), "BOGUS")
}

func TestParseAll_NoPartialResults(t *testing.T) {
	r := newFakeResolver(t, "Good", "Bad")
	sources := []Source{
		{ID: "Good.cxx", Text: "// BeginCommandLineArgs\n// OUTPUTS: a.png\n// EndCommandLineArgs\n"},
		{ID: "Bad.cxx", Text: "// BeginCommandLineArgs\n// not a declaration\n// EndCommandLineArgs\n"},
	}
	blocks, err := NewParser(r, false).ParseAll(context.Background(), sources)
	require.ErrorIs(t, err, ErrParse)
	assert.Nil(t, blocks)
}

func TestParseSource_MissingProgram(t *testing.T) {
	r := newFakeResolver(t) // no programs built
	blocks, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "ScaleFilter.cxx", Text: scaleSource})
	require.Error(t, err)
	assert.Nil(t, blocks)
	assert.ErrorIs(t, err, ErrMissingProgram)

	var merr *MissingProgramError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "ScaleFilter", merr.Program)
	assert.Equal(t, ID{Source: "ScaleFilter.cxx", Line: 3}, merr.Block)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type failingProgramResolver struct{ *fakeResolver }

func (failingProgramResolver) ResolveProgram(string) (string, error) {
	return "", errors.New("no exec dir configured")
}

func TestParseSource_ProgramResolutionError(t *testing.T) {
	r := failingProgramResolver{newFakeResolver(t)}
	_, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "ScaleFilter.cxx", Text: scaleSource})
	require.ErrorIs(t, err, ErrMissingProgram)
	assert.Contains(t, err.Error(), "no exec dir configured")
}

func TestParseSource_UnterminatedBlock(t *testing.T) {
	text := `// BeginCommandLineArgs
// OUTPUTS: first.png
// EndCommandLineArgs
// BeginCommandLineArgs
// OUTPUTS: dangling.png
`
	r := newFakeResolver(t, "Dangling")

	t.Run("dropped by default", func(t *testing.T) {
		blocks, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "Dangling.cxx", Text: text})
		require.NoError(t, err)
		require.Len(t, blocks, 1)
		assert.Equal(t, []string{filepath.Join(r.outDir, "first.png")}, blocks[0].Outputs)
	})

	t.Run("rejected in strict mode", func(t *testing.T) {
		blocks, err := NewParser(r, true).ParseSource(context.Background(), Source{ID: "Dangling.cxx", Text: text})
		require.ErrorIs(t, err, ErrParse)
		assert.Nil(t, blocks)
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 4, perr.Line)
	})
}

func TestParseSource_MultipleBlocksKeepDeclarationOrder(t *testing.T) {
	text := `/* header */
//  BeginCommandLineArgs
//    INPUTS: in.png
//    ARGUMENTS: 10
//    OUTPUTS: out1.png
//    NOT_IMPLEMENTED: yes
//
//  EndCommandLineArgs
//  BeginCommandLineArgs
//    OUTPUTS: out2.png
//    ARGUMENTS: -v
//  EndCommandLineArgs
`
	r := newFakeResolver(t, "Multi")
	blocks, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "Multi.cxx", Text: text})
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, 2, blocks[0].Line())
	assert.Equal(t, 9, blocks[1].Line())

	cl, _ := blocks[0].CommandLine(r)
	assert.Equal(t, []string{filepath.Join(r.outDir, "in.png"), "10", filepath.Join(r.outDir, "out1.png")}, cl.Args)

	kinds := make([]Kind, 0, len(blocks[0].Declarations))
	for _, d := range blocks[0].Declarations {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []Kind{KindInputs, KindArguments, KindOutputs, KindNotImplemented}, kinds)
	assert.Equal(t, 6, blocks[0].Declarations[3].Line)
}

func TestDescribe(t *testing.T) {
	r := newFakeResolver(t, "ScaleFilter")
	blocks, err := NewParser(r, false).ParseSource(context.Background(), Source{ID: "ScaleFilter.cxx", Text: scaleSource})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, blocks[0].Describe(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "ScaleFilter.cxx\n")
	assert.Contains(t, out, "4  : INPUTS:  foo.png\n")
	assert.Contains(t, out, "6  : ARGUMENTS: --scale 2\n")
	assert.Contains(t, out, "--scale 2\n"+strings.Repeat("^", 80))
}
