// Package textpos converts between LSP positions, which count UTF-16 code
// units, and byte offsets into UTF-8 text.
package textpos

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ByteOffset returns the byte index in line of the UTF-16 character offset.
// Offsets past the end of the line clamp to len(line); an offset inside a
// surrogate pair resolves to the start of that rune.
func ByteOffset(line string, character uint32) int {
	var units uint32
	for i, r := range line {
		n := uint32(utf16Len(r))
		if units+n > character {
			return i
		}
		units += n
	}
	return len(line)
}

// Character returns the UTF-16 character offset of byte index offset in line.
func Character(line string, offset int) uint32 {
	if offset > len(line) {
		offset = len(line)
	}
	var units uint32
	for _, r := range line[:offset] {
		units += uint32(utf16Len(r))
	}
	return units
}

// LineLength returns the length of line in UTF-16 code units.
func LineLength(line string) uint32 {
	return Character(line, len(line))
}

// Line returns the zero-based line n of text without its line terminator.
func Line(text string, n uint32) (string, bool) {
	for i := uint32(0); i < n; i++ {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			return "", false
		}
		text = text[idx+1:]
	}
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSuffix(text, "\r"), true
}

// Offset computes the byte offset in text for an LSP position. Lines past the
// end clamp to the last line.
func Offset(text string, pos protocol.Position) int {
	offset := 0
	rest := text
	for i := uint32(0); i < pos.Line; i++ {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			break
		}
		offset += idx + 1
		rest = rest[idx+1:]
	}
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		rest = rest[:idx]
	}
	return offset + ByteOffset(rest, pos.Character)
}

// Position converts a byte offset in text into an LSP position.
func Position(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	prefix := text[:offset]
	line := uint32(strings.Count(prefix, "\n"))
	start := strings.LastIndexByte(prefix, '\n') + 1
	return protocol.Position{Line: line, Character: Character(prefix[start:], len(prefix)-start)}
}

// ApplyEdit replaces the range of text with newText.
func ApplyEdit(text string, rng protocol.Range, newText string) string {
	start := Offset(text, rng.Start)
	end := Offset(text, rng.End)
	if end < start {
		start, end = end, start
	}
	return text[:start] + newText + text[end:]
}

func utf16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
