package block

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

const (
	// BeginMarker opens a command block.
	BeginMarker = "BeginCommandLineArgs"
	// EndMarker closes a command block.
	EndMarker = "EndCommandLineArgs"

	maxLineSize = 1 << 20
)

var braceStripper = strings.NewReplacer("{", "", "}", "")

// NormalizeLine strips comment markers, braces and surrounding
// whitespace/slashes from a source line.
func NormalizeLine(line string) string {
	line = strings.ReplaceAll(line, "//", "")
	line = braceStripper.Replace(line)
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	line = strings.TrimRight(line, "/")
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	line = strings.TrimLeft(line, "/")
	return strings.TrimLeftFunc(line, unicode.IsSpace)
}

// RawBlock is the normalized text between a begin and an end marker.
type RawBlock struct {
	// Start is the 1-based line of the begin marker. The i-th entry of Lines
	// sits on line Start+i+1.
	Start int
	Lines []string
}

// Scanner lazily yields the raw command blocks of a source text, one per
// call to Next, in the style of bufio.Scanner.
//
// An end marker outside a block is ignored. A begin marker inside an open
// block restarts it. A block still open at end of input is not yielded; its
// begin line is reported by Unterminated.
type Scanner struct {
	lines   *bufio.Scanner
	lineNo  int
	open    *RawBlock
	current RawBlock
	err     error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{lines: lines}
}

// Next advances to the next complete block. It returns false at end of input
// or on a read error.
func (s *Scanner) Next() bool {
	for s.lines.Scan() {
		s.lineNo++
		line := NormalizeLine(s.lines.Text())
		switch {
		case strings.Contains(line, BeginMarker):
			s.open = &RawBlock{Start: s.lineNo}
		case strings.Contains(line, EndMarker):
			if s.open == nil {
				continue
			}
			s.current = *s.open
			s.open = nil
			return true
		case s.open != nil:
			s.open.Lines = append(s.open.Lines, line)
		}
	}
	s.err = s.lines.Err()
	return false
}

// Block returns the block found by the last successful call to Next.
func (s *Scanner) Block() RawBlock { return s.current }

// Err returns the first read error, if any.
func (s *Scanner) Err() error { return s.err }

// Unterminated returns the begin line of a block left open at end of input,
// or 0. It is only meaningful once Next has returned false.
func (s *Scanner) Unterminated() int {
	if s.open == nil {
		return 0
	}
	return s.open.Start
}
