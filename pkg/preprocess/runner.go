// Package preprocess runs the external executable that transforms a serialized request before
// it is forwarded. Each call spawns one short-lived child process bound to the caller's context.
package preprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cli/safeexec"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
)

const (
	// waitDelay bounds how long Wait blocks on inherited pipes after the process was killed
	waitDelay = 2 * time.Second
	// maxStderr caps the stderr kept for error messages
	maxStderr = 4 << 10
)

var (
	ErrNotFound = errors.New("preprocess executable not found")
	ErrTimeout  = errors.New("preprocess executable timed out")
)

// Runner executes the configured command, writing input to stdin and returning stdout
type Runner struct {
	command  string
	args     []string
	env      []string
	timeout  time.Duration
	lookPath func(string) (string, error)
}

// New creates a Runner from configuration. A zero timeout leaves the call bounded only by ctx.
func New(cfg backendtypes.PreprocessConfig) *Runner {
	return &Runner{
		command:  cfg.Command,
		args:     append([]string(nil), cfg.Args...),
		env:      append([]string(nil), cfg.Env...),
		timeout:  cfg.Timeout,
		lookPath: safeexec.LookPath,
	}
}

// Command returns the configured executable name
func (r *Runner) Command() string {
	return r.command
}

// Process runs the executable once. The child is killed when ctx ends or the timeout elapses
// and is always reaped before Process returns.
func (r *Runner) Process(ctx context.Context, input []byte) ([]byte, error) {
	path, err := r.lookPath(r.command)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, r.command, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	stderr := &limitedBuffer{limit: maxStderr}

	cmd := exec.CommandContext(ctx, path, r.args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, r.timeout, ctxErr)
			}
			return nil, fmt.Errorf("preprocess cancelled: %w", ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("preprocess %s failed: %w: %s", r.command, err, msg)
		}
		return nil, fmt.Errorf("preprocess %s failed: %w", r.command, err)
	}

	return stdout.Bytes(), nil
}

// limitedBuffer keeps the first limit bytes and silently drops the rest
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
