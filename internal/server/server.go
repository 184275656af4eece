package server

import (
	"context"
	"sync"

	"gnosis/internal/config"
	"gnosis/internal/database"
	"gnosis/internal/headings"
	"gnosis/internal/manager"
	"gnosis/internal/scheduler"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const name = "gnosis"

var log = commonlog.GetLogger("gnosis.server")

// DocumentStore is the metadata provider mapping virtual paths to documents.
type DocumentStore interface {
	ListDocuments(ctx context.Context) ([]database.Document, error)
	Lookup(ctx context.Context, virtualPath string) (database.Document, error)
	LookupByPath(ctx context.Context, localPath string) (database.Document, error)
	Close() error
}

// ReferenceCounter answers how often a virtual path is linked in the workspace.
type ReferenceCounter interface {
	Count(ctx context.Context, target string) int
}

type Server struct {
	handler *protocol.Handler
	version string
	base    config.Config

	mu        sync.RWMutex
	config    config.Config
	root      string
	docs      DocumentStore
	index     ReferenceCounter
	scheduler *scheduler.Scheduler

	manager  *manager.DocumentManager
	headings *headings.Pool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer builds the language server. base holds settings read before the
// client connects; the client's initialization options override them.
func NewServer(base config.Config, version string) (*server.Server, error) {
	ls := newLanguageServer(base, version)
	h := &handler{
		Handler:   ls.handler,
		inlayHint: ls.textDocumentInlayHint,
	}
	return server.NewServer(h, name, false), nil
}

func newLanguageServer(base config.Config, version string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	ls := &Server{
		ctx:      ctx,
		cancel:   cancel,
		version:  version,
		base:     base,
		config:   base,
		manager:  manager.NewDocumentManager(),
		headings: headings.NewPool(4),
	}
	ls.handler = &protocol.Handler{
		Initialize:                 ls.initialize,
		Initialized:                ls.initialized,
		Shutdown:                   ls.shutdown,
		SetTrace:                   ls.setTrace,
		TextDocumentDidOpen:        ls.textDocumentDidOpen,
		TextDocumentDidChange:      ls.textDocumentDidChange,
		TextDocumentDidClose:       ls.textDocumentDidClose,
		TextDocumentCompletion:     ls.textDocumentCompletion,
		TextDocumentHover:          ls.textDocumentHover,
		TextDocumentDefinition:     ls.textDocumentDefinition,
		TextDocumentDocumentSymbol: ls.textDocumentDocumentSymbol,
		TextDocumentCodeLens:       ls.textDocumentCodeLens,
		WorkspaceSymbol:            ls.workspaceSymbol,
		WorkspaceExecuteCommand:    ls.workspaceExecuteCommand,
	}
	return ls
}

// state returns what initialize set up.
func (s *Server) state() (config.Config, DocumentStore, ReferenceCounter) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.docs, s.index
}

// requestContext bounds request work by the server lifetime.
func (s *Server) requestContext() context.Context {
	return s.ctx
}
