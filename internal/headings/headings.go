// Package headings extracts markdown ATX headings with tree-sitter.
package headings

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
)

var lang = markdown.GetLanguage()

// Heading is one ATX heading. Line is zero-based.
type Heading struct {
	Line  int
	Level int
	Text  string
}

var markerLevels = map[string]int{
	"atx_h1_marker": 1,
	"atx_h2_marker": 2,
	"atx_h3_marker": 3,
	"atx_h4_marker": 4,
	"atx_h5_marker": 5,
	"atx_h6_marker": 6,
}

// Pool holds a fixed number of markdown parsers.
type Pool struct {
	pool chan *sitter.Parser
}

// NewPool creates a Pool with n parsers.
func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	pp := &Pool{pool: make(chan *sitter.Parser, n)}
	for i := 0; i < n; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		pp.pool <- p
	}
	return pp
}

// Extract returns the headings of content in document order.
func (pp *Pool) Extract(ctx context.Context, content []byte) ([]Heading, error) {
	if len(content) == 0 {
		return nil, ctx.Err()
	}

	var p *sitter.Parser
	select {
	case p = <-pp.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { pp.pool <- p }()

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}
	defer tree.Close()

	lines := strings.Split(string(content), "\n")
	var headings []Heading
	collect(tree.RootNode(), lines, &headings)
	return headings, nil
}

// Close frees the parsers. The pool must not be used afterwards.
func (pp *Pool) Close() {
	close(pp.pool)
	for p := range pp.pool {
		p.Close()
	}
}

func collect(n *sitter.Node, lines []string, out *[]Heading) {
	if n.Type() == "atx_heading" {
		if h, ok := heading(n, lines); ok {
			*out = append(*out, h)
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collect(n.NamedChild(i), lines, out)
	}
}

func heading(n *sitter.Node, lines []string) (Heading, bool) {
	level := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if l, ok := markerLevels[n.NamedChild(i).Type()]; ok {
			level = l
			break
		}
	}
	row := int(n.StartPoint().Row)
	if level == 0 || row >= len(lines) {
		return Heading{}, false
	}

	text := headingText(lines[row])
	if text == "" {
		return Heading{}, false
	}
	return Heading{Line: row, Level: level, Text: text}, true
}

// headingText strips the opening and closing # sequences of an ATX heading line.
func headingText(line string) string {
	text := strings.TrimSpace(strings.TrimRight(line, "\r"))
	text = strings.TrimLeft(text, "#")
	text = strings.TrimSpace(text)

	trimmed := strings.TrimRight(text, "#")
	if trimmed == "" {
		return ""
	}
	// A closing sequence must be preceded by a space.
	if len(trimmed) < len(text) && strings.HasSuffix(trimmed, " ") {
		text = strings.TrimSpace(trimmed)
	}
	return text
}
