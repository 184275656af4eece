package search

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultRipgrep = "rg"
	waitDelay      = time.Second
)

// Ripgrep counts link occurrences by spawning rg. With --only-matching every
// occurrence is printed on its own line, so the count is the number of lines.
// Include globs are handed to rg as --glob filters; without any, rg searches
// every file it does not ignore.
type Ripgrep struct {
	bin     string
	include []string
}

func NewRipgrep(bin string, include []string) *Ripgrep {
	if bin == "" {
		bin = defaultRipgrep
	}
	return &Ripgrep{bin: bin, include: include}
}

func (r *Ripgrep) args(root, target string) []string {
	args := []string{
		"--only-matching",
		"--no-heading",
		"--line-number",
		"--color", "never",
	}
	for _, glob := range r.include {
		args = append(args, "--glob", glob)
	}
	return append(args, "--regexp", Pattern(target), root)
}

// Count implements Backend.
func (r *Ripgrep) Count(ctx context.Context, root, target string) (int, error) {
	cmd := exec.CommandContext(ctx, r.bin, r.args(root, target)...)
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if cerr := contextError(ctx); cerr != nil {
			return 0, cerr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// rg exits with 1 when nothing matched.
			if exitErr.ExitCode() == 1 {
				return 0, nil
			}
			return 0, fmt.Errorf(
				"rg exited with %d: %s",
				exitErr.ExitCode(),
				strings.TrimSpace(stderr.String()),
			)
		}
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return countLines(out)
}

func countLines(out []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read rg output: %w", err)
	}
	return count, nil
}
