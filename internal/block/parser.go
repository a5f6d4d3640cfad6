package block

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/exrun/internal/ctxlog"
)

// Parser turns sources into Blocks using a PathResolver.
type Parser struct {
	resolver PathResolver
	// strict makes an unterminated block at end of file a ParseError instead
	// of silently dropping it.
	strict bool
}

// NewParser creates a Parser.
func NewParser(r PathResolver, strict bool) *Parser {
	return &Parser{resolver: r, strict: strict}
}

// ParseSource returns every block declared in src, in source order.
func (p *Parser) ParseSource(ctx context.Context, src Source) ([]*Block, error) {
	logger := ctxlog.FromContext(ctx)

	var blocks []*Block
	sc := NewScanner(strings.NewReader(src.Text))
	for sc.Next() {
		b, err := New(src.ID, sc.Block(), p.resolver)
		if err != nil {
			return nil, err
		}
		logger.Debug("Parsed command block.", "block", b.ID().String(), "inputs", len(b.Inputs), "outputs", len(b.Outputs))
		blocks = append(blocks, b)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.ID, err)
	}

	if start := sc.Unterminated(); start > 0 {
		if p.strict {
			return nil, &ParseError{Source: src.ID, Line: start, Reason: "unterminated command block, missing " + EndMarker}
		}
		logger.Debug("Dropping unterminated command block.", "source", src.ID, "line", start)
	}
	return blocks, nil
}

// ParseAll parses every source in order. The first error aborts the whole
// parse and no blocks are returned.
func (p *Parser) ParseAll(ctx context.Context, sources []Source) ([]*Block, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing sources.", "count", len(sources))

	var all []*Block
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		blocks, err := p.ParseSource(ctx, src)
		if err != nil {
			return nil, err
		}
		all = append(all, blocks...)
	}

	logger.Debug("Parsing complete.", "blocks", len(all))
	return all, nil
}
