package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"

	"github.com/zhubert/parallel-core/logger"
	"github.com/zhubert/parallel-core/shell"
)

// nestedSessionVars are stripped from child environments so an agent spawned
// inside another agent's session does not mistake itself for that session.
var nestedSessionVars = []string{
	"CLAUDECODE",
	"CLAUDE_CODE_SESSION",
	"CLAUDE_CODE_ENTRYPOINT",
}

// Manager is the registry of live pty sessions, keyed by agent ID.
//
// Insertion, removal, and drain are exclusive operations; per-agent lookups
// for write and resize are shared reads, so operations on different sessions
// proceed concurrently. Spawning under an agent ID that is already live
// silently replaces the registry entry — callers must keep IDs unique.
type Manager struct {
	resolver shell.Resolver

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager backed by the default command resolver.
func NewManager() *Manager {
	return NewManagerWithResolver(shell.NewResolver())
}

// NewManagerWithResolver creates a Manager with a custom resolver.
// This is primarily used for testing.
func NewManagerWithResolver(resolver shell.Resolver) *Manager {
	return &Manager{
		resolver: resolver,
		sessions: make(map[string]*Session),
	}
}

// Spawn allocates a pty sized cols×rows, starts the command attached to it,
// registers the session under opts.AgentID, and starts its reader goroutine
// streaming to sink.
//
// An empty command spawns the platform default shell. Returns *AllocError
// if the pty cannot be created and *SpawnError if the child cannot start.
func (m *Manager) Spawn(opts SpawnOptions, sink OutputSink) (*Session, error) {
	log := logger.WithAgent(opts.AgentID)

	requested := opts.Command
	if requested == "" {
		requested = shell.DefaultShell()
	}
	resolved := m.resolver.ResolveCommand(requested)

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, &AllocError{Err: err}
	}

	ws := &pty.Winsize{Cols: opts.Cols, Rows: opts.Rows}
	if err := pty.Setsize(ptmx, ws); err != nil {
		log.Warn("failed to set initial pty size", "error", err)
	}

	cmd := exec.Command(resolved, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = m.buildEnv(opts.Env)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		tty.Close()
		return nil, &SpawnError{Requested: requested, Resolved: resolved, Err: err}
	}

	// The child holds the secondary side now; the parent's copy is released
	// so the reader sees stream end when the child exits.
	tty.Close()

	session := &Session{
		AgentID:  opts.AgentID,
		TaskID:   opts.TaskID,
		ptmx:     ptmx,
		cmd:      cmd,
		waitDone: make(chan struct{}),
	}

	// Sole Wait caller; everyone else observes waitDone.
	go func() {
		_ = cmd.Wait()
		close(session.waitDone)
	}()

	go func() {
		defer ptmx.Close()
		streamOutput(ptmx, sink, session.wait)
	}()

	m.mu.Lock()
	m.sessions[opts.AgentID] = session
	m.mu.Unlock()

	log.Info("session spawned", "task", opts.TaskID, "command", resolved, "pid", cmd.Process.Pid)
	return session, nil
}

// buildEnv merges, in order: the parent environment, terminal capability
// variables, the login-shell PATH, removal of nested-session markers, and
// caller overrides.
func (m *Manager) buildEnv(overrides map[string]string) []string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}

	env["TERM"] = "xterm-256color"
	env["COLORTERM"] = "truecolor"

	if path, ok := m.resolver.LoginPath(); ok {
		env["PATH"] = path
	}

	for _, name := range nestedSessionVars {
		delete(env, name)
	}

	for k, v := range overrides {
		env[k] = v
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(env))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// Write sends raw bytes to a session's input. Returns ErrSessionNotFound for
// an unknown agent ID.
func (m *Manager) Write(agentID string, data []byte) error {
	m.mu.RLock()
	session, ok := m.sessions[agentID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("write to agent %s: %w", agentID, ErrSessionNotFound)
	}

	if err := session.write(data); err != nil {
		return fmt.Errorf("write to agent %s: %w", agentID, err)
	}
	return nil
}

// Resize updates a session's terminal window size in place. Returns
// ErrSessionNotFound for an unknown agent ID.
func (m *Manager) Resize(agentID string, cols, rows uint16) error {
	m.mu.RLock()
	session, ok := m.sessions[agentID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("resize agent %s: %w", agentID, ErrSessionNotFound)
	}

	session.resizeMu.Lock()
	defer session.resizeMu.Unlock()

	if err := pty.Setsize(session.ptmx, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		return fmt.Errorf("resize agent %s: %w", agentID, err)
	}
	return nil
}

// Kill removes the session and terminates its process. Unknown agent IDs
// are a silent no-op. Kill does not wait for the reader to drain; the
// reader emits its Exit message asynchronously once the stream ends.
func (m *Manager) Kill(agentID string) {
	m.mu.Lock()
	session, ok := m.sessions[agentID]
	if ok {
		delete(m.sessions, agentID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	session.terminate()
	logger.WithAgent(agentID).Info("session killed")
}

// CountRunning evicts sessions whose process has already exited, then
// returns the number remaining.
func (m *Manager) CountRunning() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		if !session.alive() {
			delete(m.sessions, id)
			logger.WithAgent(id).Debug("evicted dead session")
		}
	}
	return len(m.sessions)
}

// KillAll atomically drains the registry and terminates every removed
// process. Used at shutdown.
func (m *Manager) KillAll() {
	m.mu.Lock()
	drained := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, session := range drained {
		session.terminate()
		logger.WithAgent(id).Info("session killed")
	}
}
