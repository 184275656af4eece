// Package search counts wiki-link occurrences of a target across a workspace.
//
// The reference index treats a Backend as a slow, fallible black box. Two
// implementations exist: Ripgrep spawns the external rg tool, Scan walks the
// workspace in-process.
package search

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"

	"github.com/tliron/commonlog"
)

// Backend counts the links to target below root.
type Backend interface {
	Count(ctx context.Context, root, target string) (int, error)
}

// Predefined errors returned by backends.
var (
	ErrUnavailable = errors.New("search: backend unavailable")
	ErrTimeout     = errors.New("search: timed out")
	ErrUnknownKind = errors.New("search: unknown backend kind")
)

// Backend kinds accepted by New.
const (
	KindAuto    = "auto"
	KindRipgrep = "ripgrep"
	KindScan    = "scan"
)

var log = commonlog.GetLogger("gnosis.search")

// Pattern returns the regular expression matching [[target]] and
// [[target|anything]]. The target is escaped so it only matches literally.
// The escaped form is valid for both RE2 and ripgrep's regex dialect.
// Leading blanks are limited to spaces and tabs so that a match never spans
// lines, whether the backend searches line by line or whole files.
func Pattern(target string) string {
	return `\[\[[ \t]*` + regexp.QuoteMeta(target) + `(\||\]\])`
}

// Options configure the backend built by New.
type Options struct {
	RipgrepPath string
	Include     []string
	Workers     int
}

// New builds the backend named by kind. KindAuto prefers ripgrep when it can be
// found and falls back to the in-process scanner.
func New(kind string, opts Options) (Backend, error) {
	switch kind {
	case KindRipgrep:
		return NewRipgrep(opts.RipgrepPath, opts.Include), nil
	case KindScan:
		return NewScan(opts.Include, opts.Workers)
	case KindAuto, "":
		bin := opts.RipgrepPath
		if bin == "" {
			bin = defaultRipgrep
		}
		if _, err := exec.LookPath(bin); err == nil {
			log.Infof("using ripgrep backend (%s)", bin)
			return NewRipgrep(bin, opts.Include), nil
		}
		log.Infof("ripgrep not found, using in-process scan backend")
		return NewScan(opts.Include, opts.Workers)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// contextError maps a finished context to the package errors.
func contextError(ctx context.Context) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return nil
}
