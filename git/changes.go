package git

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// ChangedFile is one entry in a worktree's change set.
type ChangedFile struct {
	Path         string `json:"path"`
	LinesAdded   int    `json:"lines_added"`
	LinesRemoved int    `json:"lines_removed"`
	Status       string `json:"status"` // Single-letter code: M, A, D, R, ?, ...
}

// GetChangedFiles reconciles `git status --porcelain` and
// `git diff --numstat HEAD` into one ordered change list for a worktree.
//
// Status codes come from the porcelain XY columns: untracked entries map to
// "?", otherwise the index column wins when set, falling back to the
// working-tree column. Paths with line counts but no status entry default to
// "M"; status-only paths (untracked files, binaries) get zero line counts.
//
// The result is computed fresh on every call and sorted ascending by path.
// This is a pure read and safe to run concurrently with other read-only git
// operations.
func (s *GitService) GetChangedFiles(ctx context.Context, worktreePath string) ([]ChangedFile, error) {
	statusOutput, err := s.executor.Output(ctx, worktreePath, "git", "status", "--porcelain")
	if err != nil {
		return nil, &ToolError{Op: "status", Output: string(statusOutput), Err: err}
	}

	statusMap := parsePorcelainStatus(string(statusOutput))

	diffOutput, err := s.executor.Output(ctx, worktreePath, "git", "diff", "--numstat", "HEAD")
	if err != nil {
		return nil, &ToolError{Op: "diff --numstat", Output: string(diffOutput), Err: err}
	}

	var files []ChangedFile
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(diffOutput), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		added := parseNumstatCount(parts[0])
		removed := parseNumstatCount(parts[1])
		path := parts[2]

		status, ok := statusMap[path]
		if !ok {
			// Both views are taken against HEAD, so this should be rare
			// (rename/conflict states aside). Treat as modified.
			status = "M"
		}
		seen[path] = true
		files = append(files, ChangedFile{
			Path:         path,
			LinesAdded:   added,
			LinesRemoved: removed,
			Status:       status,
		})
	}

	// Untracked files and binaries carry no numstat line; report them with
	// zero counts so the change set is complete.
	for path, status := range statusMap {
		if !seen[path] {
			files = append(files, ChangedFile{Path: path, Status: status})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// parsePorcelainStatus maps each path in porcelain output to a single-letter
// status code. Leading whitespace in the XY columns is significant, so lines
// are sliced by position rather than trimmed.
func parsePorcelainStatus(output string) map[string]string {
	statusMap := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 3 {
			continue
		}
		xy := line[:2]
		path := strings.TrimLeft(line[3:], " ")

		var status string
		switch {
		case xy[0] == '?':
			status = "?"
		case xy[0] != ' ':
			status = string(xy[0])
		case xy[1] != ' ':
			status = string(xy[1])
		default:
			status = "M"
		}
		statusMap[path] = status
	}
	return statusMap
}

// parseNumstatCount parses one numstat column. Binary files report "-",
// which counts as zero lines.
func parseNumstatCount(field string) int {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0
	}
	return n
}

// GetFileDiff returns the diff for a single file against HEAD. Untracked
// files (status "?") are rendered via --no-index against /dev/null so they
// still produce a reviewable diff.
func (s *GitService) GetFileDiff(ctx context.Context, worktreePath, path, status string) (string, error) {
	if status == "?" {
		// --no-index exits 1 when the files differ, which is the normal
		// case here; only an empty result is a real failure.
		output, err := s.executor.Output(ctx, worktreePath, "git", "diff", "--no-ext-diff", "--no-index", "/dev/null", path)
		if err != nil && len(output) == 0 {
			return "", &ToolError{Op: "diff --no-index", Output: string(output), Err: err}
		}
		return strings.TrimRight(string(output), "\n"), nil
	}

	output, err := s.executor.Output(ctx, worktreePath, "git", "diff", "--no-ext-diff", "HEAD", "--", path)
	if err != nil {
		return "", &ToolError{Op: "diff", Output: string(output), Err: err}
	}
	return strings.TrimRight(string(output), "\n"), nil
}

// GetGitignoredDirs filters candidates down to the ones git would ignore in
// the given worktree. Used to skip heavy build/dependency directories when
// scanning. check-ignore exits 1 when nothing matches, which is not an error.
func (s *GitService) GetGitignoredDirs(ctx context.Context, worktreePath string, candidates []string) []string {
	if len(candidates) == 0 {
		return nil
	}

	args := append([]string{"check-ignore"}, candidates...)
	output, err := s.executor.Output(ctx, worktreePath, "git", args...)
	if err != nil && len(output) == 0 {
		return nil
	}

	var ignored []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line != "" {
			ignored = append(ignored, line)
		}
	}
	return ignored
}
