//go:build !windows

// Package ptyproc runs a shell command attached to a pseudo-terminal and
// exposes its output and exit status over channels.
package ptyproc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"go.uber.org/zap"
)

const readBufSize = 32 * 1024

// Options configures a spawned process.
type Options struct {
	Command string
	Dir     string
	Env     []string // base environment; defaults to os.Environ()
	Cols    int
	Rows    int
}

// ExitStatus is the terminal state of the child. Code is nil when the
// process was killed by a signal rather than exiting on its own.
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

// Process is a child process attached to a PTY.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File
	log  *zap.Logger

	datac chan []byte
	exitc chan ExitStatus

	mu     sync.Mutex
	exited bool
	killed bool
	closed bool
}

// Spawn starts command under $SHELL -c (falling back to sh) on a PTY of the
// given size. The returned process's Data channel carries raw output and is
// closed when the PTY read loop ends; Exit then delivers exactly one status.
func Spawn(opts Options, log *zap.Logger) (*Process, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(opts.Command) == "" {
		return nil, &SpawnError{Command: opts.Command, Err: fmt.Errorf("empty command")}
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.Command(shell, "-c", opts.Command)
	cmd.Dir = opts.Dir
	cmd.Env = BuildChildEnv(opts.Env)

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	})
	if err != nil {
		return nil, &SpawnError{Command: opts.Command, Err: err}
	}
	log.Debug("spawned pty process",
		zap.String("shell", shell),
		zap.Int("pid", cmd.Process.Pid),
		zap.Int("cols", cols),
		zap.Int("rows", rows))

	p := &Process{
		cmd:   cmd,
		ptmx:  ptmx,
		log:   log,
		datac: make(chan []byte, 64),
		exitc: make(chan ExitStatus, 1),
	}
	go p.readLoop()
	go p.waitLoop()
	return p, nil
}

// BuildChildEnv copies base (os.Environ() when nil) and forces
// TERM=xterm-256color so the child emits full-color output.
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

// Data yields raw PTY output chunks. Closed when the read loop ends.
func (p *Process) Data() <-chan []byte { return p.datac }

// Exit yields the child's exit status, once, after Data closes.
func (p *Process) Exit() <-chan ExitStatus { return p.exitc }

func (p *Process) readLoop() {
	defer close(p.datac)
	buf := make([]byte, readBufSize)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.answerQueries(chunk)
			p.datac <- chunk
		}
		if err != nil {
			if err != io.EOF {
				p.log.Debug("pty read ended", zap.Error(err))
			}
			return
		}
	}
}

// answerQueries replies to terminal status queries the child may block on.
// We are the terminal here, so nobody else will.
func (p *Process) answerQueries(chunk []byte) {
	if bytes.Contains(chunk, []byte("\x1b[6n")) { // DSR cursor position
		_, _ = p.ptmx.Write([]byte("\x1b[1;1R"))
	}
	if bytes.Contains(chunk, []byte("\x1b[c")) { // DA1 device attributes
		_, _ = p.ptmx.Write([]byte("\x1b[?6c"))
	}
}

func (p *Process) waitLoop() {
	err := p.cmd.Wait()
	status := ExitStatus{}
	if err == nil {
		code := 0
		status.Code = &code
	} else if exitErr, ok := err.(*exec.ExitError); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			p.log.Debug("process signaled", zap.String("signal", ws.Signal().String()))
			// Code stays nil for signal deaths.
		} else {
			code := exitErr.ExitCode()
			status.Code = &code
		}
	} else {
		code := -1
		status.Code = &code
	}

	p.mu.Lock()
	p.exited = true
	p.mu.Unlock()

	p.exitc <- status
	close(p.exitc)
}

// Write sends input bytes to the child. Writes after exit are dropped
// silently; late keystrokes against a dead process are not an error.
func (p *Process) Write(b []byte) error {
	p.mu.Lock()
	dead := p.exited || p.closed
	p.mu.Unlock()
	if dead {
		return nil
	}
	_, err := p.ptmx.Write(b)
	return err
}

// Resize propagates a new terminal size to the PTY.
func (p *Process) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid size %dx%d", cols, rows)
	}
	p.mu.Lock()
	dead := p.exited || p.closed
	p.mu.Unlock()
	if dead {
		return nil
	}
	return pty.Setsize(p.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

// Kill sends SIGKILL to the child. Idempotent; the exit status still
// arrives through Exit.
func (p *Process) Kill() {
	p.mu.Lock()
	if p.killed || p.exited {
		p.mu.Unlock()
		return
	}
	p.killed = true
	p.mu.Unlock()
	p.log.Debug("killing process", zap.Int("pid", p.cmd.Process.Pid))
	_ = p.cmd.Process.Kill()
}

// Close releases the PTY file descriptor. Idempotent.
func (p *Process) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	_ = p.ptmx.Close()
}
