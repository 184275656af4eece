package server

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCompletion offers every known document as a link target. The
// inserted text is "virtual_path|title" so that the link gets an alias.
func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	docs, _, err := s.ready()
	if err != nil {
		return nil, err
	}

	documents, err := docs.ListDocuments(s.requestContext())
	if err != nil {
		log.Errorf("failed to list documents: %v", err)
		return []protocol.CompletionItem{}, nil
	}

	kind := protocol.CompletionItemKindFile
	items := make([]protocol.CompletionItem, 0, len(documents))
	for _, doc := range documents {
		insert := doc.VirtualPath + "|" + doc.Title
		detail := doc.Path
		items = append(items, protocol.CompletionItem{
			Label:      fmt.Sprintf("%s (%s)", doc.Title, doc.VirtualPath),
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &insert,
		})
	}
	return items, nil
}
