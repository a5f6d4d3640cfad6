package block

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver locates artifacts and programs on disk.
type PathResolver interface {
	// ResolveInput returns the on-disk location of an input artifact and
	// whether it was found.
	ResolveInput(name string) (string, bool)
	// ResolveOutput returns where an output artifact is written.
	ResolveOutput(name string) string
	// ResolveProgram returns the executable built from the given source base
	// name, or an error if it does not exist.
	ResolveProgram(baseName string) (string, error)
}

// Block is one declared unit of work.
type Block struct {
	id ID

	// RawLines are the normalized declaration lines as authored, kept for
	// diagnostic replay.
	RawLines []string
	// Declarations are the parsed lines in source order.
	Declarations []Declaration

	Inputs    []Artifact
	Outputs   []string
	Arguments []string

	// ProgramName is the source base name without its extension.
	ProgramName string
	// Program is the resolved executable path.
	Program string
}

// New builds a Block from a raw block of the given source. The program the
// block invokes must exist; otherwise a *MissingProgramError is returned.
func New(source string, raw RawBlock, r PathResolver) (*Block, error) {
	decls, err := parseDeclarations(source, raw)
	if err != nil {
		return nil, err
	}

	b := &Block{
		id:           ID{Source: source, Line: raw.Start},
		RawLines:     append([]string(nil), raw.Lines...),
		Declarations: decls,
		ProgramName:  programName(source),
	}

	program, err := r.ResolveProgram(b.ProgramName)
	if err != nil {
		return nil, &MissingProgramError{Block: b.id, Program: b.ProgramName, Err: err}
	}
	program = normalizePath(program)
	if _, err := os.Stat(program); err != nil {
		return nil, &MissingProgramError{Block: b.id, Program: b.ProgramName, Path: program, Err: err}
	}
	b.Program = program

	for _, d := range decls {
		switch d.Kind {
		case KindInputs:
			b.Inputs = append(b.Inputs, resolveInput(r, d.Value))
		case KindOutputs:
			b.Outputs = append(b.Outputs, normalizePath(r.ResolveOutput(d.Value)))
		case KindArguments:
			b.Arguments = append(b.Arguments, d.Args...)
		case KindNotImplemented:
		default:
			panic(fmt.Sprintf("block: unhandled declaration kind %v", d.Kind))
		}
	}
	return b, nil
}

// ID returns the block's identity.
func (b *Block) ID() ID { return b.id }

// Source returns the identifier of the originating source.
func (b *Block) Source() string { return b.id.Source }

// Line returns the line of the block's begin marker.
func (b *Block) Line() int { return b.id.Line }

// InputPaths returns the resolved input paths in declaration order.
func (b *Block) InputPaths() []string {
	paths := make([]string, len(b.Inputs))
	for i, in := range b.Inputs {
		paths[i] = in.Path
	}
	return paths
}

// CommandLine materializes the block's invocation. Inputs are resolved again
// because earlier blocks may have generated them since parsing; inputs that
// still cannot be found are returned so the caller can warn that they are
// assumed to be generated.
func (b *Block) CommandLine(r PathResolver) (CommandLine, []Artifact) {
	cl := CommandLine{Program: b.Program}
	var unresolved []Artifact
	for _, d := range b.Declarations {
		switch d.Kind {
		case KindInputs:
			in := resolveInput(r, d.Value)
			if !in.Located {
				unresolved = append(unresolved, in)
			}
			cl.Args = append(cl.Args, in.Path)
		case KindOutputs:
			cl.Args = append(cl.Args, normalizePath(r.ResolveOutput(d.Value)))
		case KindArguments:
			cl.Args = append(cl.Args, d.Args...)
		case KindNotImplemented:
		default:
			panic(fmt.Sprintf("block: unhandled declaration kind %v", d.Kind))
		}
	}
	return cl, unresolved
}

// Describe writes the raw declaration lines with their line numbers followed
// by the synthesized command line.
func (b *Block) Describe(w io.Writer, r PathResolver) error {
	cl, _ := b.CommandLine(r)
	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(b.id.Source + "\n")
	for i, line := range b.RawLines {
		fmt.Fprintf(&sb, "%d  : %s\n", b.id.Line+i+1, line)
	}
	sb.WriteString(cl.String() + "\n")
	sb.WriteString(strings.Repeat("^", 80) + "\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func resolveInput(r PathResolver, name string) Artifact {
	if path, ok := r.ResolveInput(name); ok {
		return Artifact{Name: name, Path: normalizePath(path), Located: true}
	}
	return Artifact{Name: name, Path: normalizePath(r.ResolveOutput(name))}
}

func programName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
