package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhubert/parallel-core/git"
	"github.com/zhubert/parallel-core/logger"
)

// Manager owns the live task table and provisions/destroys worktree
// isolation through the git service. Lookups are shared reads; create and
// delete are exclusive.
type Manager struct {
	gitService *git.GitService

	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewManager creates a task manager.
func NewManager(gitSvc *git.GitService) *Manager {
	return &Manager{
		gitService: gitSvc,
		tasks:      make(map[string]*Task),
	}
}

// CreateOptions describes a new task.
type CreateOptions struct {
	Name     string
	RepoRoot string

	// Branch overrides the branch name derived from Name.
	Branch string
}

// Create provisions a worktree for a new task and registers it.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*Task, error) {
	log := logger.WithComponent("task")

	branch := opts.Branch
	if branch == "" {
		branch = BranchNameFromTask(opts.Name)
	}
	if err := ValidateBranchName(branch); err != nil {
		return nil, fmt.Errorf("invalid branch for task %q: %w", opts.Name, err)
	}

	info, err := m.gitService.CreateWorktree(ctx, opts.RepoRoot, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to create worktree for task %q: %w", opts.Name, err)
	}

	t := &Task{
		ID:           uuid.New().String(),
		Name:         opts.Name,
		Branch:       info.Branch,
		WorktreePath: info.Path,
		RepoRoot:     opts.RepoRoot,
		CreatedAt:    time.Now(),
	}

	m.mu.Lock()
	m.tasks[t.ID] = t
	m.mu.Unlock()

	log.Info("task created", "id", t.ID, "name", t.Name, "branch", t.Branch)
	return t, nil
}

// Delete removes a task and its worktree. If deleteBranch is set the branch
// is deleted too (best-effort). Unknown IDs are an error; the worktree may
// hold unmerged work, so deletion is never silent.
func (m *Manager) Delete(ctx context.Context, id string, deleteBranch bool) error {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if ok {
		delete(m.tasks, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("task %s not found", id)
	}

	if err := m.gitService.RemoveWorktree(ctx, t.RepoRoot, t.Branch, deleteBranch); err != nil {
		return fmt.Errorf("failed to remove worktree for task %q: %w", t.Name, err)
	}

	logger.WithComponent("task").Info("task deleted", "id", id, "branch", t.Branch)
	return nil
}

// Get returns the task with the given ID.
func (m *Manager) Get(id string) (*Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	return t, ok
}

// List returns all tasks ordered by creation time.
func (m *Manager) List() []*Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// AttachAgent records an agent session as belonging to a task.
func (m *Manager) AttachAgent(taskID, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}
	for _, id := range t.AgentIDs {
		if id == agentID {
			return nil
		}
	}
	t.AgentIDs = append(t.AgentIDs, agentID)
	return nil
}

// DetachAgent removes an agent session from a task. Unknown task or agent
// IDs are a no-op.
func (m *Manager) DetachAgent(taskID, agentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return
	}
	for i, id := range t.AgentIDs {
		if id == agentID {
			t.AgentIDs = append(t.AgentIDs[:i], t.AgentIDs[i+1:]...)
			return
		}
	}
}

// Restore replaces the task table with previously persisted tasks. Used at
// startup before any Create/Delete runs.
func (m *Manager) Restore(tasks []*Task) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks = make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
}
