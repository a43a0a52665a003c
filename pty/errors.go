package pty

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound indicates a write or resize against an unknown agent ID.
// Kill and CountRunning tolerate unknown IDs silently.
var ErrSessionNotFound = errors.New("session not found")

// AllocError indicates the pseudo-terminal could not be created.
type AllocError struct {
	Err error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("failed to allocate pty: %v", e.Err)
}

func (e *AllocError) Unwrap() error {
	return e.Err
}

// SpawnError indicates the child process could not be started. It carries
// both the command as requested and the path it resolved to, since the two
// differing is the usual cause.
type SpawnError struct {
	Requested string
	Resolved  string
	Err       error
}

func (e *SpawnError) Error() string {
	if e.Requested != e.Resolved {
		return fmt.Sprintf("failed to spawn %q (resolved to %q): %v", e.Requested, e.Resolved, e.Err)
	}
	return fmt.Sprintf("failed to spawn %q: %v", e.Requested, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
