package server

import (
	"encoding/json"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// protocol_3_16 predates inlay hints; the request and the capability are
// declared here and routed by handler.

const MethodTextDocumentInlayHint = "textDocument/inlayHint"

type InlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

type InlayHint struct {
	Position     protocol.Position `json:"position"`
	Label        string            `json:"label"`
	PaddingRight bool              `json:"paddingRight,omitempty"`
}

type serverCapabilities struct {
	protocol.ServerCapabilities
	InlayHintProvider bool `json:"inlayHintProvider,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities                   `json:"capabilities"`
	ServerInfo   *protocol.InitializeResultServerInfo `json:"serverInfo,omitempty"`
}

// handler serves textDocument/inlayHint and hands everything else to the
// protocol handler.
type handler struct {
	*protocol.Handler
	inlayHint func(context *glsp.Context, params *InlayHintParams) ([]InlayHint, error)
}

func (h *handler) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	if context.Method != MethodTextDocumentInlayHint {
		return h.Handler.Handle(context)
	}
	if !h.IsInitialized() {
		return nil, true, true, errors.New("server not initialized")
	}

	var params InlayHintParams
	if err := json.Unmarshal(context.Params, &params); err != nil {
		return nil, true, false, err
	}
	r, err = h.inlayHint(context, &params)
	return r, true, true, err
}
