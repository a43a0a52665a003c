// Package shell resolves bare command names to absolute paths and supplies
// the user's login-shell PATH.
//
// GUI-launched processes (e.g. a .desktop entry) inherit a minimal PATH, so
// commands installed via nvm, homebrew or ~/.local/bin are invisible to a
// plain LookPath. The resolver compensates by sourcing the login shell's
// PATH once and searching it as a fallback.
package shell

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	pexec "github.com/zhubert/parallel-core/exec"
	"github.com/zhubert/parallel-core/logger"
)

// loginPathTimeout bounds the one-time login shell invocation.
const loginPathTimeout = 5 * time.Second

// Resolver maps bare executable names to absolute paths and exposes the
// login-shell PATH for child environments.
type Resolver interface {
	// ResolveCommand returns an absolute path for name when one can be
	// found; otherwise it returns name unchanged.
	ResolveCommand(name string) string

	// LoginPath returns the login shell's PATH value and whether it could
	// be determined.
	LoginPath() (string, bool)
}

// PathResolver is the default Resolver. The login-shell PATH is resolved at
// most once and cached for the process lifetime.
type PathResolver struct {
	executor pexec.CommandExecutor

	mu        sync.Mutex
	loginPath string
	attempted bool
}

// NewResolver creates a PathResolver backed by real command execution.
func NewResolver() *PathResolver {
	return &PathResolver{executor: pexec.NewRealExecutor()}
}

// NewResolverWithExecutor creates a PathResolver with a custom executor.
// This is primarily used for testing.
func NewResolverWithExecutor(executor pexec.CommandExecutor) *PathResolver {
	return &PathResolver{executor: executor}
}

// DefaultShell returns the platform default shell used when a spawn request
// carries an empty command.
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// LoginPath returns the PATH of an interactive login shell.
// The shell is invoked once; subsequent calls return the cached value.
func (r *PathResolver) LoginPath() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.attempted {
		return r.loginPath, r.loginPath != ""
	}
	r.attempted = true

	if runtime.GOOS == "windows" {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginPathTimeout)
	defer cancel()

	sh := DefaultShell()
	output, err := r.executor.Output(ctx, "", sh, "-l", "-c", "echo $PATH")
	if err != nil {
		logger.WithComponent("shell").Warn("failed to read login shell PATH", "shell", sh, "error", err)
		return "", false
	}

	// Login shells may print banners before the PATH line; take the last
	// non-empty line.
	var path string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			path = line
		}
	}
	if path == "" {
		return "", false
	}

	r.loginPath = path
	logger.WithComponent("shell").Debug("resolved login shell PATH", "shell", sh)
	return path, true
}

// ResolveCommand resolves a bare command name to an absolute path.
// Commands already containing a path separator are returned unchanged.
// The process PATH is tried first, then the login-shell PATH; if neither
// yields a hit the original name is returned so the spawn error names it.
func (r *PathResolver) ResolveCommand(name string) string {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) {
		return name
	}

	if path, err := exec.LookPath(name); err == nil {
		return path
	}

	loginPath, ok := r.LoginPath()
	if !ok {
		return name
	}

	for _, dir := range filepath.SplitList(loginPath) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate
		}
	}

	return name
}

// Ensure PathResolver satisfies the interface.
var _ Resolver = (*PathResolver)(nil)
