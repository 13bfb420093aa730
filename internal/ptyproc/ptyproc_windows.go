//go:build windows

package ptyproc

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Options configures a spawned process.
type Options struct {
	Command string
	Dir     string
	Env     []string
	Cols    int
	Rows    int
}

// ExitStatus is the terminal state of the child.
type ExitStatus struct {
	Code *int
}

// SpawnError wraps a failure to start the child process.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Process is unsupported on this platform.
type Process struct{}

var errUnsupported = errors.New("pty processes require a POSIX platform")

func Spawn(opts Options, log *zap.Logger) (*Process, error) {
	return nil, &SpawnError{Command: opts.Command, Err: errUnsupported}
}

func BuildChildEnv(base []string) []string {
	if base == nil {
		base = os.Environ()
	}
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if strings.HasPrefix(kv, "TERM=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "TERM=xterm-256color")
}

func (p *Process) Data() <-chan []byte { return nil }

func (p *Process) Exit() <-chan ExitStatus { return nil }

func (p *Process) Write(b []byte) error { return errUnsupported }

func (p *Process) Resize(cols, rows int) error { return errUnsupported }

func (p *Process) Kill() {}

func (p *Process) Close() {}
