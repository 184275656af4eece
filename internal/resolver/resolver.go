package resolver

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// PathToURI turns a local path into a file:// URI. Relative paths are made
// absolute against the working directory.
func PathToURI(path string) protocol.DocumentUri {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	slashed := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(slashed, "/") {
		// Windows drive letters
		slashed = "/" + slashed
	}
	u := url.URL{
		Scheme: "file",
		Path:   slashed,
	}
	return protocol.DocumentUri(u.String())
}

// URIToPath returns the local path of a file:// URI. A bare path is returned
// cleaned.
func URIToPath(uri protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", fmt.Errorf("invalid document uri %q: %w", uri, err)
	}
	switch u.Scheme {
	case "file":
	case "":
		return filepath.Clean(string(uri)), nil
	default:
		return "", fmt.Errorf("unsupported uri scheme %q in %q", u.Scheme, uri)
	}

	path := u.Path
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.Clean(filepath.FromSlash(path)), nil
}

// SamePath reports whether two local paths name the same file once cleaned
// and made absolute.
func SamePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
