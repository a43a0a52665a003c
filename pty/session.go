package pty

import (
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExitInfo is the terminal diagnostic for a session. Exactly one is pushed
// to the sink, after all Data messages.
type ExitInfo struct {
	// ExitCode is the process exit status, nil if the process was signaled.
	ExitCode *int `json:"exit_code,omitempty"`

	// Signal is the name of the terminating signal (e.g. "SIGKILL"), empty
	// if the process exited normally.
	Signal string `json:"signal,omitempty"`

	// LastOutput holds the trailing non-empty output lines at exit, capped
	// at maxTailLines.
	LastOutput []string `json:"last_output"`
}

// OutputSink receives a session's output stream: zero or more Data calls
// followed by exactly one Exit call. Implementations are called from the
// session's reader goroutine and should not block for long.
type OutputSink interface {
	// Data delivers one base64-encoded batch of raw terminal output.
	Data(encoded string)

	// Exit delivers the terminal diagnostic. Nothing follows it.
	Exit(info ExitInfo)
}

// SpawnOptions describes a process to attach to a new pty session.
type SpawnOptions struct {
	TaskID  string
	AgentID string

	// Command is the executable to run; empty means the platform default
	// shell. Bare names are resolved against the process and login-shell
	// PATH before spawning.
	Command string
	Args    []string

	// Dir is the child's working directory; empty inherits the parent's.
	Dir string

	// Env holds caller overrides applied on top of the merged base
	// environment.
	Env map[string]string

	Cols uint16
	Rows uint16
}

// Session is one live agent process attached to a pseudo-terminal.
//
// The write, resize, and process handles are independently lock-guarded so
// a slow write never blocks a concurrent resize or kill. The reader
// goroutine owns all reads from ptmx and closes it when the stream ends.
type Session struct {
	AgentID string
	TaskID  string

	writeMu  sync.Mutex
	resizeMu sync.Mutex
	procMu   sync.Mutex

	ptmx *os.File
	cmd  *exec.Cmd

	// waitDone is closed by the wait goroutine once the process has been
	// reaped; cmd.ProcessState is valid afterwards.
	waitDone chan struct{}
}

// write sends raw bytes to the child's input. os.File writes are unbuffered,
// so a successful write is already flushed.
func (s *Session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.ptmx.Write(data)
	return err
}

// terminate force-kills the child process. Errors are ignored: the process
// may already be gone, and the reader observes stream end either way.
func (s *Session) terminate() {
	s.procMu.Lock()
	defer s.procMu.Unlock()

	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// alive is a non-blocking liveness poll. A failed poll counts as dead.
func (s *Session) alive() bool {
	select {
	case <-s.waitDone:
		return false
	default:
	}

	s.procMu.Lock()
	defer s.procMu.Unlock()

	if s.cmd.Process == nil {
		return false
	}
	return s.cmd.Process.Signal(syscall.Signal(0)) == nil
}

// wait blocks until the process has been reaped and returns its exit
// diagnostic (without LastOutput, which the reader fills in).
func (s *Session) wait() ExitInfo {
	<-s.waitDone

	var info ExitInfo
	state := s.cmd.ProcessState
	if state == nil {
		return info
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		info.Signal = unix.SignalName(ws.Signal())
		return info
	}

	code := state.ExitCode()
	info.ExitCode = &code
	return info
}
