package server

import (
	"errors"

	"gnosis/internal/database"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var origin = protocol.Range{
	Start: protocol.Position{Line: 0, Character: 0},
	End:   protocol.Position{Line: 0, Character: 0},
}

// referenceCount resolves the document behind uri and counts its references.
// ok is false when the document is unknown to the metadata database.
func (s *Server) referenceCount(uri protocol.DocumentUri) (doc database.Document, count int, ok bool) {
	docs, index, err := s.ready()
	if err != nil {
		return database.Document{}, 0, false
	}

	ctx := s.requestContext()
	doc, err = documentAt(ctx, docs, uri)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Errorf("failed to resolve %s: %v", uri, err)
		}
		return database.Document{}, 0, false
	}
	return doc, index.Count(ctx, doc.VirtualPath), true
}

func (s *Server) textDocumentCodeLens(
	context *glsp.Context,
	params *protocol.CodeLensParams,
) ([]protocol.CodeLens, error) {
	doc, count, ok := s.referenceCount(params.TextDocument.URI)
	if !ok {
		return []protocol.CodeLens{}, nil
	}

	return []protocol.CodeLens{{
		Range: origin,
		Command: &protocol.Command{
			Title:     referencedLabel(count),
			Command:   CommandShowReferences,
			Arguments: []any{doc.VirtualPath},
		},
	}}, nil
}

func (s *Server) textDocumentInlayHint(
	context *glsp.Context,
	params *InlayHintParams,
) ([]InlayHint, error) {
	_, count, ok := s.referenceCount(params.TextDocument.URI)
	if !ok {
		return []InlayHint{}, nil
	}

	return []InlayHint{{
		Position:     origin.Start,
		Label:        referencedLabel(count),
		PaddingRight: true,
	}}, nil
}
