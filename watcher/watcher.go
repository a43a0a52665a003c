// Package watcher detects plan files written by agents into a task's
// worktree. It watches <worktree>/.claude/plans for markdown files and
// pushes debounced events to a channel.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zhubert/parallel-core/logger"
)

// debounceInterval suppresses bursts: editors and agents typically produce
// several write events per save.
const debounceInterval = time.Second

// PlanEvent reports a plan file created or modified in a watched worktree.
type PlanEvent struct {
	TaskID   string `json:"task_id"`
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

// PlansDir returns the watched directory for a worktree.
func PlansDir(worktreePath string) string {
	return filepath.Join(worktreePath, ".claude", "plans")
}

// planWatcher is one running fsnotify watcher bound to a task.
type planWatcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// Registry tracks at most one plan watcher per task.
type Registry struct {
	events chan PlanEvent

	mu       sync.Mutex
	watchers map[string]*planWatcher
}

// NewRegistry creates a watcher registry. Events for all watched tasks are
// delivered on a single channel.
func NewRegistry() *Registry {
	return &Registry{
		events:   make(chan PlanEvent, 16),
		watchers: make(map[string]*planWatcher),
	}
}

// Events returns the shared delivery channel.
func (r *Registry) Events() <-chan PlanEvent {
	return r.events
}

// Watch starts watching a task's plans directory, creating it if needed.
// Watching the same task again replaces the previous watcher.
func (r *Registry) Watch(taskID, worktreePath string) error {
	dir := PlansDir(worktreePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plans directory %s: %w", dir, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &planWatcher{fw: fw, done: make(chan struct{})}

	r.mu.Lock()
	if prev, ok := r.watchers[taskID]; ok {
		prev.stop()
	}
	r.watchers[taskID] = w
	r.mu.Unlock()

	go r.run(taskID, w)

	logger.WithComponent("watcher").Info("watching for plans", "task", taskID, "dir", dir)
	return nil
}

// run forwards debounced markdown create/write events until the watcher is
// stopped.
func (r *Registry) run(taskID string, w *planWatcher) {
	log := logger.WithComponent("watcher")
	var lastEmit time.Time

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".md") {
				continue
			}
			if time.Since(lastEmit) < debounceInterval {
				continue
			}
			lastEmit = time.Now()

			select {
			case r.events <- PlanEvent{
				TaskID:   taskID,
				FilePath: event.Name,
				FileName: filepath.Base(event.Name),
			}:
			default:
				log.Warn("plan event dropped, channel full", "task", taskID, "file", event.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "task", taskID, "error", err)
		}
	}
}

func (w *planWatcher) stop() {
	close(w.done)
	w.fw.Close()
}

// Stop stops the watcher for a task. Unknown task IDs are a no-op.
func (r *Registry) Stop(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.watchers[taskID]; ok {
		w.stop()
		delete(r.watchers, taskID)
	}
}

// StopAll stops every watcher. Used at shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, w := range r.watchers {
		w.stop()
		delete(r.watchers, id)
	}
}

// ReadPlanFile returns a plan file's contents.
func ReadPlanFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read plan file %s: %w", path, err)
	}
	return string(data), nil
}

// WritePlanFile writes a plan file's contents.
func WritePlanFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write plan file %s: %w", path, err)
	}
	return nil
}
