package manager

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gnosis/internal/textpos"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

var ErrNotOpen = errors.New("document is not open")

// DocumentManager holds the text of every open document keyed by URI.
type DocumentManager struct {
	mu   sync.RWMutex
	docs map[string]string
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs: make(map[string]string),
	}
}

// Open stores the initial text of a document, replacing any previous version.
func (dm *DocumentManager) Open(uri, text string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs[uri] = text
}

// Get returns the current text for a URI.
func (dm *DocumentManager) Get(uri string) (string, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	text, ok := dm.docs[uri]
	return text, ok
}

// Line returns line n of an open document.
func (dm *DocumentManager) Line(uri string, n uint32) (string, bool) {
	text, ok := dm.Get(uri)
	if !ok {
		return "", false
	}
	return textpos.Line(text, n)
}

// ApplyChanges applies didChange content changes in order. Each change is
// either a ranged edit or a whole-document replacement.
func (dm *DocumentManager) ApplyChanges(uri string, changes []any) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	text, ok := dm.docs[uri]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOpen, uri)
	}

	for _, change := range changes {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text = c.Text
				continue
			}
			text = textpos.ApplyEdit(text, *c.Range, c.Text)
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		default:
			return fmt.Errorf("unsupported content change %T for %s", change, uri)
		}
	}
	dm.docs[uri] = text
	return nil
}

// Release forgets a document.
func (dm *DocumentManager) Release(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.docs, uri)
}

// URIs returns the open documents in sorted order.
func (dm *DocumentManager) URIs() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	uris := make([]string, 0, len(dm.docs))
	for uri := range dm.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
