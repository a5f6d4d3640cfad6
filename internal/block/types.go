package block

import (
	"fmt"
	"strings"
)

// Source is one already-read source file handed to the parser. ID is usually
// the absolute file path and becomes part of every Block identity.
type Source struct {
	ID   string
	Text string
}

// ID is the identity of a Block: the source it came from and the 1-based line
// of its begin marker. No two blocks in a run share an ID.
type ID struct {
	Source string
	Line   int
}

// String renders the ID as "source:line".
func (id ID) String() string {
	return fmt.Sprintf("%s:%d", id.Source, id.Line)
}

// Kind is the closed set of declaration keys a command block may contain.
type Kind int

const (
	// KindInputs names one input artifact.
	KindInputs Kind = iota + 1
	// KindOutputs names one output artifact.
	KindOutputs
	// KindArguments carries literal command-line arguments.
	KindArguments
	// KindNotImplemented is a placeholder that contributes nothing.
	KindNotImplemented
)

var kindNames = map[Kind]string{
	KindInputs:         "INPUTS",
	KindOutputs:        "OUTPUTS",
	KindArguments:      "ARGUMENTS",
	KindNotImplemented: "NOT_IMPLEMENTED",
}

// String returns the declaration key as written in sources.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a declaration key to its Kind.
func ParseKind(key string) (Kind, bool) {
	for k, name := range kindNames {
		if name == key {
			return k, true
		}
	}
	return 0, false
}

// Declaration is one parsed KEY: VALUE line of a command block.
type Declaration struct {
	Kind  Kind
	Value string
	// Args holds an ARGUMENTS value split into words with shell quoting
	// rules, so `-x "a b"` is two arguments.
	Args []string
	// Line is the 1-based line number in the source file.
	Line int
}

// Artifact is a declared input together with where it was resolved.
type Artifact struct {
	// Name is the artifact as written in the declaration.
	Name string
	// Path is the absolute, cleaned path the artifact resolves to.
	Path string
	// Located is false when the resolver could not find the file on disk and
	// Path points at the output location instead, i.e. the input is expected
	// to be generated by another block.
	Located bool
}

// CommandLine is a synthesized invocation: the program followed by its
// arguments in declaration order.
type CommandLine struct {
	Program string
	Args    []string
}

// String joins the program and its arguments with single spaces.
func (c CommandLine) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}
