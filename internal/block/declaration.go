package block

import (
	"strings"

	"github.com/google/shlex"
)

// ParseDeclaration classifies one normalized line of a command block.
//
// Blank lines return ok == false and no error. Other lines are split at the
// first colon; the trimmed key must name a Kind. The returned error is a
// *ParseError without source information, which the caller fills in.
func ParseDeclaration(line string) (decl Declaration, ok bool, err error) {
	if strings.TrimSpace(line) == "" {
		return Declaration{}, false, nil
	}

	key, value, found := strings.Cut(line, ":")
	if !found {
		return Declaration{}, false, &ParseError{Text: line, Reason: "expected KEY: VALUE"}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Declaration{}, false, &ParseError{Text: line, Reason: "missing declaration key"}
	}

	kind, known := ParseKind(key)
	if !known {
		return Declaration{}, false, &ParseError{Text: line, Reason: "invalid line identifier " + key}
	}
	value = strings.TrimSpace(value)
	if value == "" && (kind == KindInputs || kind == KindOutputs) {
		return Declaration{}, false, &ParseError{Text: line, Reason: "missing artifact name"}
	}
	decl = Declaration{Kind: kind, Value: value}
	if kind == KindArguments && value != "" {
		args, err := shlex.Split(value)
		if err != nil {
			return Declaration{}, false, &ParseError{Text: line, Reason: "unbalanced quotes in arguments"}
		}
		decl.Args = args
	}
	return decl, true, nil
}

// parseDeclarations parses every line of raw, stamping source positions on
// both the declarations and any error.
func parseDeclarations(source string, raw RawBlock) ([]Declaration, error) {
	decls := make([]Declaration, 0, len(raw.Lines))
	for i, line := range raw.Lines {
		lineNo := raw.Start + i + 1
		decl, ok, err := ParseDeclaration(line)
		if err != nil {
			perr := err.(*ParseError)
			perr.Source = source
			perr.Line = lineNo
			return nil, perr
		}
		if !ok {
			continue
		}
		decl.Line = lineNo
		decls = append(decls, decl)
	}
	return decls, nil
}
