package manager_test

import (
	"errors"
	"testing"

	"gnosis/internal/manager"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const uri = "file:///ws/a.md"

func edit(sl, sc, el, ec uint32, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: sl, Character: sc},
			End:   protocol.Position{Line: el, Character: ec},
		},
		Text: text,
	}
}

func TestOpenGetRelease(t *testing.T) {
	dm := manager.NewDocumentManager()
	if _, ok := dm.Get(uri); ok {
		t.Fatal("expected no document before open")
	}

	dm.Open(uri, "# Title\nsee [[x]]\n")
	text, ok := dm.Get(uri)
	if !ok || text != "# Title\nsee [[x]]\n" {
		t.Fatalf("Get() = %q, %v", text, ok)
	}
	line, ok := dm.Line(uri, 1)
	if !ok || line != "see [[x]]" {
		t.Errorf("Line(1) = %q, %v", line, ok)
	}
	if _, ok := dm.Line(uri, 5); ok {
		t.Error("expected no line 5")
	}

	dm.Release(uri)
	if _, ok := dm.Line(uri, 0); ok {
		t.Error("expected document to be released")
	}
}

func TestApplyChanges(t *testing.T) {
	dm := manager.NewDocumentManager()
	dm.Open(uri, "see [[x]]\n")

	err := dm.ApplyChanges(uri, []any{
		edit(0, 6, 0, 7, "y/z"),
		edit(1, 0, 1, 0, "more"),
	})
	if err != nil {
		t.Fatalf("ApplyChanges() error = %v", err)
	}
	if text, _ := dm.Get(uri); text != "see [[y/z]]\nmore" {
		t.Errorf("text = %q", text)
	}

	err = dm.ApplyChanges(uri, []any{protocol.TextDocumentContentChangeEventWhole{Text: "replaced"}})
	if err != nil {
		t.Fatalf("ApplyChanges(whole) error = %v", err)
	}
	if text, _ := dm.Get(uri); text != "replaced" {
		t.Errorf("text = %q", text)
	}
}

func TestApplyChangesErrors(t *testing.T) {
	dm := manager.NewDocumentManager()
	if err := dm.ApplyChanges(uri, nil); !errors.Is(err, manager.ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}

	dm.Open(uri, "keep")
	if err := dm.ApplyChanges(uri, []any{edit(0, 0, 0, 0, "x"), "bogus"}); err == nil {
		t.Fatal("expected error for unsupported change")
	}
	if text, _ := dm.Get(uri); text != "keep" {
		t.Errorf("failed batch must not be applied, got %q", text)
	}
}

func TestURIs(t *testing.T) {
	dm := manager.NewDocumentManager()
	dm.Open("file:///b.md", "")
	dm.Open("file:///a.md", "")
	uris := dm.URIs()
	if len(uris) != 2 || uris[0] != "file:///a.md" {
		t.Errorf("URIs() = %v", uris)
	}
}
