package server

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"gnosis/internal/database"
	"gnosis/internal/refindex"
	"gnosis/internal/resolver"
	"gnosis/internal/scheduler"
	"gnosis/internal/search"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Busy timeout for the read-only metadata database.
const dbTimeoutMs = 5000

const (
	CommandShowReferences = "gnosis.showReferences"
	CommandReferenceCount = "gnosis.referenceCount"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	// Config
	cfg, err := s.base.Overlay(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	cfg = cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Root
	root := workspaceRoot(cfg.WorkspaceRoot, params)
	log.Infof("workspace root: %s", root)

	backend, err := search.New(cfg.Backend, search.Options{
		RipgrepPath: cfg.RipgrepPath,
		Include:     cfg.Include,
		Workers:     runtime.GOMAXPROCS(0),
	})
	if err != nil {
		return nil, err
	}

	opts := []refindex.Option{refindex.WithTimeout(cfg.SearchTimeout.Std())}
	if cfg.Coalesce {
		opts = append(opts, refindex.WithCoalescing())
	}
	index := refindex.New(root, cfg.Freshness.Std(), backend, opts...)

	dbPath := database.ResolvePath(cfg.DBPath)
	log.Infof("metadata database: %s", dbPath)
	docs := database.OpenReadonly(dbPath, dbTimeoutMs)

	s.mu.Lock()
	if s.docs != nil {
		s.docs.Close()
	}
	s.config = cfg
	s.root = root
	s.docs = docs
	s.index = index
	s.mu.Unlock()

	return initializeResult{
		Capabilities: s.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) capabilities() serverCapabilities {
	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"["},
	}
	capabilities.CodeLensProvider = &protocol.CodeLensOptions{}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandReferenceCount},
	}

	return serverCapabilities{
		ServerCapabilities: capabilities,
		InlayHintProvider:  true,
	}
}

// workspaceRoot picks the configured root, then the client's root, then the
// working directory.
func workspaceRoot(configured string, params *protocol.InitializeParams) string {
	root := configured
	if root == "" && params.RootURI != nil && *params.RootURI != "" {
		if path, err := resolver.URIToPath(*params.RootURI); err == nil {
			root = path
		}
	}
	if root == "" && params.RootPath != nil {
		root = *params.RootPath
	}
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return root
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("client initialized")

	cfg, docs, index := s.state()
	if !cfg.WarmOnStart {
		return nil
	}

	sched := scheduler.NewScheduler(1)
	sched.RunScheduler()
	sched.SchedulePeriodicTask(cfg.Freshness.Std(), scheduler.Task{
		Name:    "warm reference counts",
		Execute: func() error { return warm(s.requestContext(), docs, index) },
	})

	s.mu.Lock()
	s.scheduler = sched
	s.mu.Unlock()
	return nil
}

// warm counts the references of every known document so that later lens and
// hint requests are answered from the cache.
func warm(ctx context.Context, docs DocumentStore, index ReferenceCounter) error {
	documents, err := docs.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	for _, doc := range documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		index.Count(ctx, doc.VirtualPath)
	}
	log.Debugf("warmed %d reference counts", len(documents))
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	log.Info("shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.cancel()

	s.mu.Lock()
	sched, docs := s.scheduler, s.docs
	s.scheduler = nil
	s.mu.Unlock()

	if sched != nil {
		sched.StopScheduler()
	}
	if docs != nil {
		return docs.Close()
	}
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
