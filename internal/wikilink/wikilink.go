// Package wikilink locates and decodes the [[target|alias]] link that surrounds
// a cursor position in a single line of text.
//
// Every editor feature that needs "the link under the cursor" goes through
// Parse so that hover, definition and completion agree on the answer.
package wikilink

import "strings"

const (
	openMarker  = "[["
	closeMarker = "]]"
	aliasSep    = "|"
)

// Link is one occurrence of link syntax in a line.
// Start and End are byte offsets into the line; End is one past the closing marker.
type Link struct {
	Start  int
	End    int
	Target string
	Alias  *string
}

// HasAlias reports whether the link carried a display alias.
func (l Link) HasAlias() bool {
	return l.Alias != nil
}

// Parse finds the link enclosing cursor, a byte offset into line.
// A miss is not an error; the second return value is false.
//
// Empty targets ("[[]]", "[[|alias]]") are returned as empty strings.
// Only malformed bracket structure is rejected.
func Parse(line string, cursor int) (Link, bool) {
	if cursor < 0 || cursor > len(line) {
		return Link{}, false
	}

	start := strings.LastIndex(line[:cursor], openMarker)
	if start < 0 {
		return Link{}, false
	}

	rel := strings.Index(line[cursor:], closeMarker)
	if rel < 0 {
		return Link{}, false
	}
	end := cursor + rel

	if cursor < start || cursor > end+len(closeMarker) {
		return Link{}, false
	}
	// The opening marker was already closed before the cursor: the nearest
	// pair spans text between two links.
	if strings.Contains(line[start+len(openMarker):cursor], closeMarker) {
		return Link{}, false
	}

	content := line[start+len(openMarker) : end]
	target, alias, found := strings.Cut(content, aliasSep)

	link := Link{
		Start:  start,
		End:    end + len(closeMarker),
		Target: strings.TrimSpace(target),
	}
	if found {
		a := strings.TrimSpace(alias)
		link.Alias = &a
	}
	return link, true
}

// Target returns only the target of the link under the cursor.
func Target(line string, cursor int) (string, bool) {
	link, ok := Parse(line, cursor)
	if !ok {
		return "", false
	}
	return link.Target, true
}
