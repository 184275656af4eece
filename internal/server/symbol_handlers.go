package server

import (
	"context"
	"os"
	"runtime"
	"strings"

	"gnosis/internal/database"
	"gnosis/internal/headings"
	"gnosis/internal/resolver"
	"gnosis/internal/textpos"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"
)

func (s *Server) textDocumentDocumentSymbol(
	ctx *glsp.Context,
	params *protocol.DocumentSymbolParams,
) (any, error) {
	text, err := s.text(params.TextDocument.URI)
	if err != nil {
		log.Warningf("no text for %s: %v", params.TextDocument.URI, err)
		return []protocol.DocumentSymbol{}, nil
	}

	found, err := s.headings.Extract(s.requestContext(), []byte(text))
	if err != nil {
		return nil, err
	}

	symbols := make([]protocol.DocumentSymbol, 0, len(found))
	for _, h := range found {
		rng := headingRange(text, h)
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           h.Text,
			Kind:           protocol.SymbolKindString,
			Range:          rng,
			SelectionRange: rng,
		})
	}
	return symbols, nil
}

// headingRange spans the whole line of a heading.
func headingRange(text string, h headings.Heading) protocol.Range {
	line, _ := textpos.Line(text, uint32(h.Line))
	return protocol.Range{
		Start: protocol.Position{Line: uint32(h.Line), Character: 0},
		End:   protocol.Position{Line: uint32(h.Line), Character: textpos.LineLength(line)},
	}
}

func (s *Server) workspaceSymbol(
	ctx *glsp.Context,
	params *protocol.WorkspaceSymbolParams,
) ([]protocol.SymbolInformation, error) {
	docs, _, err := s.ready()
	if err != nil {
		return nil, err
	}

	reqCtx := s.requestContext()
	documents, err := docs.ListDocuments(reqCtx)
	if err != nil {
		log.Errorf("failed to list documents: %v", err)
		return []protocol.SymbolInformation{}, nil
	}

	perDoc := make([][]protocol.SymbolInformation, len(documents))
	g, gctx := errgroup.WithContext(reqCtx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, doc := range documents {
		g.Go(func() error {
			perDoc[i] = s.documentSymbols(gctx, doc)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	query := strings.ToLower(params.Query)
	symbols := []protocol.SymbolInformation{}
	for _, list := range perDoc {
		for _, sym := range list {
			if query == "" || strings.Contains(strings.ToLower(sym.Name), query) {
				symbols = append(symbols, sym)
			}
		}
	}
	return symbols, nil
}

// documentSymbols lists the headings of doc, or the document itself when its
// file can't be read or parsed.
func (s *Server) documentSymbols(ctx context.Context, doc database.Document) []protocol.SymbolInformation {
	uri := resolver.PathToURI(doc.Path)
	container := doc.Title

	fallback := []protocol.SymbolInformation{{
		Name:     doc.Title,
		Kind:     protocol.SymbolKindFile,
		Location: protocol.Location{URI: uri, Range: origin},
	}}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		log.Debugf("unreadable document %s: %v", doc.Path, err)
		return fallback
	}
	text := string(data)
	found, err := s.headings.Extract(ctx, data)
	if err != nil {
		return fallback
	}

	symbols := make([]protocol.SymbolInformation, 0, len(found))
	for _, h := range found {
		symbols = append(symbols, protocol.SymbolInformation{
			Name:          h.Text,
			Kind:          protocol.SymbolKindString,
			Location:      protocol.Location{URI: uri, Range: headingRange(text, h)},
			ContainerName: &container,
		})
	}
	return symbols
}
