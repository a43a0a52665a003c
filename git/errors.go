package git

import (
	"fmt"
	"strings"
)

// ToolError reports a failed git invocation, embedding the captured output
// so callers can surface the actual tool message to the user.
type ToolError struct {
	Op     string // Operation description, e.g. "worktree add"
	Output string // Captured stdout+stderr from git
	Err    error  // Underlying exec error (usually *exec.ExitError)
}

func (e *ToolError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("git %s failed: %s: %v", e.Op, out, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
