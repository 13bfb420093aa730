package session

import (
	"strconv"
	"strings"
)

const (
	scrollbackByteBudget = 400 * 1024
	snapshotMaxLines     = 200
	snapshotByteBudget   = 40 * 1024
)

// CaptureResult is everything the caller gets back from a finished session.
type CaptureResult struct {
	ExitCode            *int
	ScrollbackText      string
	ScreenSnapshot      string
	TimedOut            bool
	DismissedByUser     bool
	ScrollbackTruncated bool
	AbortedBySignal     bool
}

// buildCapture derives scrollback text and the plain-text screen snapshot
// from the replayed history lines. The snapshot is the tail of the same
// lines under stricter bounds; both have blank edges trimmed.
func buildCapture(lines []string, truncated bool) *CaptureResult {
	scrollback := trimBlankEdges(lines)
	snapshot := trimBlankEdges(lastN(lines, snapshotMaxLines))
	return &CaptureResult{
		ScrollbackText:      tailBytes(strings.Join(scrollback, "\n"), scrollbackByteBudget),
		ScreenSnapshot:      tailBytes(strings.Join(snapshot, "\n"), snapshotByteBudget),
		ScrollbackTruncated: truncated,
	}
}

// trimBlankEdges drops leading and trailing lines that are empty or
// whitespace-only.
func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// lastN returns the final n entries of lines.
func lastN(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// tailBytes keeps at most budget bytes from the end of s, cutting at a line
// boundary when one exists inside the kept region.
func tailBytes(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	s = s[len(s)-budget:]
	if i := strings.IndexByte(s, '\n'); i >= 0 && i+1 < len(s) {
		s = s[i+1:]
	}
	return s
}

// Text renders the result into the human-readable report consumed by the
// invoking side.
func (r *CaptureResult) Text() string {
	var sb strings.Builder
	if r.ExitCode != nil {
		sb.WriteString("Exit code: ")
		sb.WriteString(strconv.Itoa(*r.ExitCode))
		sb.WriteString("\n")
	} else {
		sb.WriteString("Exit code: none (terminated)\n")
	}
	if r.TimedOut {
		sb.WriteString("Timed out: yes\n")
	}
	if r.DismissedByUser {
		sb.WriteString("Dismissed by user: yes\n")
	}
	if r.ScrollbackTruncated {
		sb.WriteString("Note: output exceeded the scrollback limit and was truncated.\n")
	}
	sb.WriteString("\nCaptured stdout:\n")
	if r.ScrollbackText == "" {
		sb.WriteString("(no output)\n")
	} else {
		sb.WriteString(r.ScrollbackText)
		sb.WriteString("\n")
	}
	sb.WriteString("\nFinal screen snapshot:\n")
	if r.ScreenSnapshot == "" {
		sb.WriteString("(blank screen)\n")
	} else {
		sb.WriteString(r.ScreenSnapshot)
		sb.WriteString("\n")
	}
	return sb.String()
}
