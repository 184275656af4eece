package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gnosis/internal/database"
	"gnosis/internal/resolver"
	"gnosis/internal/textpos"
	"gnosis/internal/wikilink"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

var errNotReady = errors.New("server not initialized")

// ready returns the initialized state or errNotReady.
func (s *Server) ready() (DocumentStore, ReferenceCounter, error) {
	_, docs, index := s.state()
	if docs == nil || index == nil {
		return nil, nil, errNotReady
	}
	return docs, index, nil
}

// linkAt returns the wiki-link under an LSP position of an open document
// together with the line it was found on.
func (s *Server) linkAt(uri protocol.DocumentUri, pos protocol.Position) (wikilink.Link, string, bool) {
	line, ok := s.manager.Line(uri, pos.Line)
	if !ok {
		return wikilink.Link{}, "", false
	}
	link, ok := wikilink.Parse(line, textpos.ByteOffset(line, pos.Character))
	return link, line, ok
}

// linkRange converts the byte span of link on line into an LSP range.
func linkRange(line string, lineNo uint32, link wikilink.Link) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: lineNo, Character: textpos.Character(line, link.Start)},
		End:   protocol.Position{Line: lineNo, Character: textpos.Character(line, link.End)},
	}
}

// documentAt finds the document stored at the local path of uri.
func documentAt(ctx context.Context, docs DocumentStore, uri protocol.DocumentUri) (database.Document, error) {
	path, err := resolver.URIToPath(uri)
	if err != nil {
		return database.Document{}, err
	}

	doc, err := docs.LookupByPath(ctx, path)
	if !errors.Is(err, database.ErrNotFound) {
		return doc, err
	}

	// Stored paths may be relative or unclean.
	all, err := docs.ListDocuments(ctx)
	if err != nil {
		return database.Document{}, err
	}
	for _, d := range all {
		if resolver.SamePath(d.Path, path) {
			return d, nil
		}
	}
	return database.Document{}, database.ErrNotFound
}

// text returns the content of an open document, or reads it from disk.
func (s *Server) text(uri protocol.DocumentUri) (string, error) {
	if text, ok := s.manager.Get(uri); ok {
		return text, nil
	}
	path, err := resolver.URIToPath(uri)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readLines returns at most n lines from the start of the file at path.
func readLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	lines := make([]string, 0, n)
	for len(lines) < n {
		line, err := r.ReadString('\n')
		if line != "" || err == nil {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return lines, nil
}

func referencedLabel(count int) string {
	return fmt.Sprintf("Referenced %d times", count)
}
