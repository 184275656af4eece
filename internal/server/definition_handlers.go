package server

import (
	"errors"
	"strings"

	"gnosis/internal/database"
	"gnosis/internal/resolver"

	"github.com/mitchellh/go-wordwrap"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	msgTargetNotFound = "Wiki-link target not found in database."
	msgUnreadable     = "Unable to read file content."
)

func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	docs, _, err := s.ready()
	if err != nil {
		return nil, err
	}

	link, _, ok := s.linkAt(params.TextDocument.URI, params.Position)
	if !ok || link.Target == "" {
		return nil, nil
	}

	doc, err := docs.Lookup(s.requestContext(), link.Target)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		log.Errorf("definition lookup of %q failed: %v", link.Target, err)
		return nil, nil
	}

	return protocol.Location{
		URI: resolver.PathToURI(doc.Path),
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 0},
		},
	}, nil
}

func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	docs, _, err := s.ready()
	if err != nil {
		return nil, err
	}
	cfg, _, _ := s.state()

	link, line, ok := s.linkAt(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}
	rng := linkRange(line, params.Position.Line, link)

	hover := func(value string) *protocol.Hover {
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: value,
			},
			Range: &rng,
		}
	}

	doc, err := docs.Lookup(s.requestContext(), link.Target)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Errorf("hover lookup of %q failed: %v", link.Target, err)
		}
		return hover(msgTargetNotFound), nil
	}

	lines, err := readLines(doc.Path, cfg.PreviewLines)
	if err != nil {
		log.Warningf("failed to read %s: %v", doc.Path, err)
		return hover(msgUnreadable), nil
	}
	return hover(preview(lines, cfg.PreviewWidth)), nil
}

// preview wraps lines to width and fences them as markdown.
func preview(lines []string, width int) string {
	var b strings.Builder
	b.WriteString("```markdown\n")
	for _, line := range lines {
		b.WriteString(wordwrap.WrapString(line, uint(width)))
		b.WriteByte('\n')
	}
	b.WriteString("```")
	return b.String()
}
