package session

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"minimal valid", Request{Command: "true", Timeout: 5 * time.Second}, false},
		{"missing command", Request{Timeout: 5 * time.Second}, true},
		{"no timeout is valid", Request{Command: "true"}, false},
		{"negative timeout", Request{Command: "true", Timeout: -time.Second}, true},
		{"nonexistent dir", Request{Command: "true", Dir: "/no/such/dir", Timeout: time.Second}, true},
		{"dir is a file", Request{Command: "true", Dir: "/etc/hostname", Timeout: time.Second}, true},
		{"valid dir", Request{Command: "true", Dir: "/tmp", Timeout: time.Second}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestValidateClamps(t *testing.T) {
	req := Request{Command: "true", Timeout: 100 * time.Millisecond}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Timeout != minTimeout {
		t.Errorf("short timeout clamped to %v, want %v", req.Timeout, minTimeout)
	}

	req = Request{Command: "true"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Timeout != 0 {
		t.Errorf("absent timeout must stay zero, got %v", req.Timeout)
	}

	req = Request{Command: "true", Timeout: 10000 * time.Second}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Timeout != maxTimeout {
		t.Errorf("long timeout clamped to %v, want %v", req.Timeout, maxTimeout)
	}

	req = Request{Command: "true", Timeout: time.Second}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Cols != 80 || req.Rows != 24 {
		t.Errorf("default size = %dx%d, want 80x24", req.Cols, req.Rows)
	}
}

func runSession(t *testing.T, req Request, during func(o *Orchestrator)) (*CaptureResult, error) {
	t.Helper()
	o, err := New(req, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	o.Start(context.Background())
	if during != nil {
		during(o)
	}
	select {
	case <-o.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("session did not finish")
	}
	return o.Result()
}

func TestSessionNaturalExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	result, err := runSession(t, Request{
		Command: "printf 'hi\\n'",
		Timeout: 2 * time.Second,
		Cols:    80,
		Rows:    24,
	}, nil)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.ExitCode == nil || *result.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", result.ExitCode)
	}
	if result.TimedOut || result.DismissedByUser || result.AbortedBySignal {
		t.Errorf("unexpected flags: %+v", result)
	}
	if !strings.Contains(result.ScrollbackText, "hi") {
		t.Errorf("scrollback missing output: %q", result.ScrollbackText)
	}
	if !strings.Contains(result.ScreenSnapshot, "hi") {
		t.Errorf("snapshot missing output: %q", result.ScreenSnapshot)
	}
}

func TestSessionWithoutTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	result, err := runSession(t, Request{
		Command: "printf 'no timer\\n'",
	}, nil)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.ExitCode == nil || *result.ExitCode != 0 {
		t.Errorf("exit code = %v, want 0", result.ExitCode)
	}
	if result.TimedOut {
		t.Error("a session without a timeout can never time out")
	}
	if !strings.Contains(result.ScrollbackText, "no timer") {
		t.Errorf("scrollback missing output: %q", result.ScrollbackText)
	}
}

func TestSessionNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	result, err := Run(context.Background(), Request{
		Command: "exit 7",
		Timeout: 2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode == nil || *result.ExitCode != 7 {
		t.Errorf("exit code = %v, want 7", result.ExitCode)
	}
}

func TestSessionTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	result, err := runSession(t, Request{
		Command: "sleep 5",
		Timeout: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if !result.TimedOut {
		t.Error("timedOut flag not set")
	}
	if result.ExitCode != nil {
		t.Errorf("timeout must force a nil exit code, got %d", *result.ExitCode)
	}
	if result.DismissedByUser {
		t.Error("timeout must not look like a user dismiss")
	}
}

func TestSessionDismiss(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	result, err := runSession(t, Request{
		Command: "cat",
		Timeout: 30 * time.Second,
	}, func(o *Orchestrator) {
		time.Sleep(300 * time.Millisecond)
		o.Dismiss()
	})
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if !result.DismissedByUser {
		t.Error("dismissedByUser flag not set")
	}
	if result.TimedOut {
		t.Error("dismiss must not report a timeout")
	}
	if result.ExitCode != nil {
		t.Errorf("SIGKILLed child should report no exit code, got %d", *result.ExitCode)
	}
}

func TestSessionAbort(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	ctx, cancel := context.WithCancel(context.Background())
	o, err := New(Request{Command: "cat", Timeout: 30 * time.Second}, nil)
	if err != nil {
		t.Fatal(err)
	}
	o.Start(ctx)
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case <-o.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish after cancel")
	}
	result, resErr := o.Result()
	if resErr != ErrAborted {
		t.Errorf("Result error = %v, want ErrAborted", resErr)
	}
	if result == nil || !result.AbortedBySignal {
		t.Errorf("abortedBySignal flag not set: %+v", result)
	}
}

func TestSessionFinalizesOnce(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	// dismiss repeatedly while the timeout is also about to fire; Done must
	// close exactly once without panics on double-finalize
	result, err := runSession(t, Request{
		Command: "sleep 2",
		Timeout: time.Second,
	}, func(o *Orchestrator) {
		for i := 0; i < 5; i++ {
			o.Dismiss()
		}
	})
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if !result.DismissedByUser && !result.TimedOut {
		t.Error("one of the racing triggers must win")
	}
	if result.DismissedByUser && result.TimedOut {
		t.Error("only the first trigger may set its flag")
	}
}

func TestSessionFlushBeforeCapture(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX pty")
	}
	// output written immediately before exit must survive into the capture
	result, err := runSession(t, Request{
		Command: "printf 'early\\n'; printf 'last line'",
		Timeout: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if !strings.Contains(result.ScrollbackText, "last line") {
		t.Errorf("final write lost, scrollback = %q", result.ScrollbackText)
	}
	if !strings.Contains(result.ScreenSnapshot, "last line") {
		t.Errorf("final write missing from snapshot = %q", result.ScreenSnapshot)
	}
}

func TestSessionSpawnFailureDegrades(t *testing.T) {
	o, err := New(Request{Command: "true", Timeout: time.Second}, nil)
	if err != nil {
		t.Fatal(err)
	}
	o.finalizeSpawnFailure(errSpawn{})
	select {
	case <-o.Done():
	default:
		t.Fatal("spawn failure must finalize immediately")
	}
	result, resErr := o.Result()
	if resErr != nil {
		t.Errorf("spawn failure must not surface as an error: %v", resErr)
	}
	if result.ExitCode != nil {
		t.Error("spawn failure reports no exit code")
	}
	if !strings.Contains(result.ScrollbackText, "boom") {
		t.Errorf("failure message must be embedded in output: %q", result.ScrollbackText)
	}
}

type errSpawn struct{}

func (errSpawn) Error() string { return "boom" }
