// Package session runs one PTY-backed command to completion: it owns the
// process, the terminal buffer, and the overlay state, and turns whichever
// of exit, timeout, dismiss, or cancellation fires first into exactly one
// capture-and-teardown pass.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/DeprecatedLuke/oh-my-pi/internal/overlay"
	"github.com/DeprecatedLuke/oh-my-pi/internal/ptyproc"
	"github.com/DeprecatedLuke/oh-my-pi/internal/term"
)

// ErrAborted is returned by Result when the session ended because the
// caller's context was canceled, as opposed to timeout or user dismiss.
var ErrAborted = errors.New("session aborted by caller")

const (
	minTimeout = 1 * time.Second
	maxTimeout = 3600 * time.Second
)

// Request describes one session. A zero Timeout means the session runs
// until the child exits, is dismissed, or is canceled.
type Request struct {
	Command string
	Dir     string
	Timeout time.Duration
	Cols    int
	Rows    int
}

// Validate checks the request before any resources are created.
func (r *Request) Validate() error {
	if r.Command == "" {
		return fmt.Errorf("command is required")
	}
	if r.Dir != "" {
		info, err := os.Stat(r.Dir)
		if err != nil {
			return fmt.Errorf("working directory %q: %w", r.Dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("working directory %q is not a directory", r.Dir)
		}
	}
	if r.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if r.Timeout > 0 {
		if r.Timeout < minTimeout {
			r.Timeout = minTimeout
		}
		if r.Timeout > maxTimeout {
			r.Timeout = maxTimeout
		}
	}
	if r.Cols <= 0 {
		r.Cols = 80
	}
	if r.Rows <= 0 {
		r.Rows = 24
	}
	return nil
}

// Run executes a session headless: no overlay host, no input. It blocks
// until the child exits, the timeout fires, or ctx is canceled.
func Run(ctx context.Context, req Request, log *zap.Logger) (*CaptureResult, error) {
	o, err := New(req, log)
	if err != nil {
		return nil, err
	}
	o.Start(ctx)
	<-o.Done()
	return o.Result()
}

// event is one input to the finalize state machine. Exactly one of the
// fields is meaningful per event.
type event struct {
	data []byte
	exit *ptyproc.ExitStatus
}

// Orchestrator owns one session's process, buffer, and overlay. Create with
// New, then Start; Done closes once the result is ready.
type Orchestrator struct {
	req  Request
	log  *zap.Logger
	view *overlay.View
	buf  *term.Buffer
	proc *ptyproc.Process

	events   chan event
	dismissc chan struct{}
	done     chan struct{}

	result *CaptureResult
	err    error
}

// New validates the request and builds an orchestrator. Validation failures
// are the only errors that abort before spawn.
func New(req Request, log *zap.Logger) (*Orchestrator, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		req:      req,
		log:      log,
		view:     overlay.NewView(req.Command),
		buf:      term.NewBuffer(req.Cols, req.Rows),
		events:   make(chan event, 64),
		dismissc: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// View exposes the overlay for rendering.
func (o *Orchestrator) View() *overlay.View { return o.view }

// Buffer exposes the terminal buffer for rendering.
func (o *Orchestrator) Buffer() *term.Buffer { return o.buf }

// Done closes once the session is finalized and Result is available.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Result returns the capture, or ErrAborted when the caller's context
// canceled the session. Valid only after Done closes.
func (o *Orchestrator) Result() (*CaptureResult, error) {
	return o.result, o.err
}

// Start spawns the child and begins the event loop. A spawn failure does
// not return an error: it degrades into an immediately-finalized synthetic
// result so the caller always gets a well-formed capture.
func (o *Orchestrator) Start(ctx context.Context) {
	proc, err := ptyproc.Spawn(ptyproc.Options{
		Command: o.req.Command,
		Dir:     o.req.Dir,
		Cols:    o.req.Cols,
		Rows:    o.req.Rows,
	}, o.log)
	if err != nil {
		o.log.Warn("spawn failed", zap.Error(err))
		o.finalizeSpawnFailure(err)
		return
	}
	o.proc = proc
	go o.pump()
	go o.loop(ctx)
}

// pump forwards PTY output into the event channel and, only after the data
// channel closes, forwards the exit status. This ordering is what lets the
// finalize path trust that every output byte precedes the exit event.
func (o *Orchestrator) pump() {
	for chunk := range o.proc.Data() {
		o.events <- event{data: chunk}
	}
	status := <-o.proc.Exit()
	o.events <- event{exit: &status}
}

// loop is the single finalize state machine. Timeout, abort, and dismiss
// all reduce to a SIGKILL plus a pending-reason flag; the kill produces the
// normal exit event, so finalize runs on exactly one code path.
func (o *Orchestrator) loop(ctx context.Context) {
	// no timer is armed when the request has no timeout
	var timerC <-chan time.Time
	if o.req.Timeout > 0 {
		timer := time.NewTimer(o.req.Timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	var timedOut, dismissed, aborted bool
	killed := false
	kill := func() {
		if !killed {
			killed = true
			o.proc.Kill()
		}
	}

	for {
		select {
		case ev := <-o.events:
			if ev.exit != nil {
				o.finalize(*ev.exit, timedOut, dismissed, aborted)
				return
			}
			o.buf.Feed(ev.data)
		case <-timerC:
			if !timedOut && !dismissed && !aborted {
				o.log.Info("session timed out", zap.Duration("timeout", o.req.Timeout))
				timedOut = true
				o.view.SetTimedOut()
				kill()
			}
		case <-o.dismissc:
			if !timedOut && !dismissed && !aborted {
				dismissed = true
				o.view.SetKilled()
				kill()
			}
		case <-ctx.Done():
			if !timedOut && !dismissed && !aborted {
				aborted = true
				kill()
			}
			// keep draining events until the kill produces exit
			ctx = context.Background()
		}
	}
}

// Dismiss requests a user-initiated close. Safe to call any number of
// times; only the first has an effect.
func (o *Orchestrator) Dismiss() {
	select {
	case o.dismissc <- struct{}{}:
	default:
	}
}

// WriteInput forwards raw bytes to the child's stdin.
func (o *Orchestrator) WriteInput(b []byte) {
	if o.proc == nil || len(b) == 0 {
		return
	}
	if err := o.proc.Write(b); err != nil {
		o.log.Debug("input write failed", zap.Error(err))
	}
}

// Resize propagates a new size to both the PTY and the buffer.
func (o *Orchestrator) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	o.buf.Resize(cols, rows)
	if o.proc != nil {
		if err := o.proc.Resize(cols, rows); err != nil {
			o.log.Debug("pty resize failed", zap.Error(err))
		}
	}
}

// finalize runs the capture-and-teardown sequence. It executes exactly
// once: the loop returns right after calling it, and it is the only caller
// besides the spawn-failure path, which never starts the loop.
func (o *Orchestrator) finalize(status ptyproc.ExitStatus, timedOut, dismissed, aborted bool) {
	exitCode := status.Code
	if timedOut {
		// a forcibly terminated process's status is not meaningful
		exitCode = nil
	}

	switch {
	case timedOut, dismissed:
		// view already transitioned when the kill was issued
	default:
		o.view.SetComplete(exitCode)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.buf.Flush(flushCtx); err != nil {
		o.log.Warn("flush before capture failed", zap.Error(err))
	}

	lines, truncated := o.buf.ScrollbackText()
	result := buildCapture(lines, truncated)
	result.ExitCode = exitCode
	result.TimedOut = timedOut
	result.DismissedByUser = dismissed
	result.AbortedBySignal = aborted

	o.proc.Kill()
	o.proc.Close()
	o.buf.Close()

	o.result = result
	if aborted {
		o.err = ErrAborted
	}
	o.log.Debug("session finalized",
		zap.Bool("timed_out", timedOut),
		zap.Bool("dismissed", dismissed),
		zap.Bool("aborted", aborted))
	close(o.done)
}

// finalizeSpawnFailure produces the synthetic result for a child that never
// started: the failure message becomes the captured output.
func (o *Orchestrator) finalizeSpawnFailure(spawnErr error) {
	o.view.SetComplete(nil)
	o.buf.Close()
	o.result = &CaptureResult{
		ScrollbackText: spawnErr.Error(),
	}
	close(o.done)
}
