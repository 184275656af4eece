package search

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude selects the documents the in-process scanner reads.
var DefaultInclude = []string{"**/*.md", "**/*.markdown"}

// Scan counts link occurrences without leaving the process. It walks the
// workspace, skipping anything whose name begins with ".", and reads the
// files matching the include globs on a small worker pool.
type Scan struct {
	include []string
	workers int
}

// NewScan validates the include globs and returns a scanner.
func NewScan(include []string, workers int) (*Scan, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scan{include: include, workers: workers}, nil
}

func (s *Scan) selected(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Count implements Backend.
func (s *Scan) Count(ctx context.Context, root, target string) (int, error) {
	re, err := regexp.Compile(Pattern(target))
	if err != nil {
		return 0, fmt.Errorf("failed to compile pattern: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	fileCh := make(chan string, 100)
	var total atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileCh {
				data, err := os.ReadFile(path)
				if err != nil {
					log.Debugf("scan: read error %s: %v", path, err)
					continue
				}
				total.Add(int64(len(re.FindAllIndex(data, -1))))
			}
		}()
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			log.Debugf("scan: walk error: %v", err)
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || !s.selected(rel) {
			return nil
		}
		select {
		case fileCh <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	close(fileCh)
	wg.Wait()

	if cerr := contextError(ctx); cerr != nil {
		return 0, cerr
	}
	if walkErr != nil {
		return 0, fmt.Errorf("scan of %s failed: %w", root, walkErr)
	}
	return int(total.Load()), nil
}
