package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTreeDepth bounds recursive listing and search snapshots.
	DefaultTreeDepth = 3
	// DefaultCommandTimeout bounds shell command execution.
	DefaultCommandTimeout = 60 * time.Second
)

// Entry is one node of a directory tree, tagged file or directory.
type Entry struct {
	Path  string `json:"path"` // relative to the listed directory
	IsDir bool   `json:"is_dir"`
}

// ExecResult holds the outcome of a shell command.
type ExecResult struct {
	Output   string `json:"output"` // combined stdout and stderr, in arrival order
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// Local runs tool operations on the local machine, every path gated by the
// workspace boundary.
type Local struct {
	boundary Boundary
	logger   *zap.Logger
}

// NewLocal creates a local adapter rooted at root. A nil logger disables
// logging.
func NewLocal(root string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{boundary: NewBoundary(root), logger: logger}
}

// Boundary returns the adapter's workspace boundary.
func (l *Local) Boundary() Boundary { return l.boundary }

// Root returns the workspace root.
func (l *Local) Root() string { return l.boundary.Root() }

// ReadFile returns the raw contents of a boundary-checked file.
func (l *Local) ReadFile(path string) (string, error) {
	resolved, err := l.boundary.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", resolved, err)
	}
	l.logger.Debug("read file", zap.String("path", resolved), zap.Int("bytes", len(data)))
	return string(data), nil
}

// WriteFile writes content to a boundary-checked path, creating parent
// directories as needed, then re-stats the target to confirm the write
// landed. Verification failure is reported rather than silently ignored
// because a sandboxed host can swallow writes without an error.
func (l *Local) WriteFile(path, content string) error {
	resolved, err := l.boundary.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", resolved, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", resolved, err)
	}
	if _, err := os.Stat(resolved); err != nil {
		return fmt.Errorf("write to %s reported success but the file is not readable afterwards; "+
			"this usually means a permission or sandbox restriction blocked the write: %w", resolved, err)
	}
	l.logger.Debug("wrote file", zap.String("path", resolved), zap.Int("bytes", len(content)))
	return nil
}

// ListTree lists a boundary-checked directory. depth 1 produces a flat
// listing; larger depths recurse, with entries tagged file or directory.
func (l *Local) ListTree(path string, depth int) ([]Entry, error) {
	if path == "" {
		path = "."
	}
	resolved, err := l.boundary.Resolve(path)
	if err != nil {
		return nil, err
	}
	if depth <= 0 {
		depth = DefaultTreeDepth
	}

	var entries []Entry
	if err := l.walk(resolved, "", depth, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Snapshot captures every path under the workspace root up to depth, for
// pattern search. The returned paths are root-relative.
func (l *Local) Snapshot(depth int) ([]string, error) {
	entries, err := l.ListTree(".", depth)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir {
			paths = append(paths, e.Path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Local) walk(dir, prefix string, depth int, out *[]Entry) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	for _, entry := range entries {
		rel := entry.Name()
		if prefix != "" {
			rel = filepath.Join(prefix, entry.Name())
		}
		*out = append(*out, Entry{Path: rel, IsDir: entry.IsDir()})
		if entry.IsDir() && depth > 1 {
			// Unreadable subtrees are skipped, not fatal.
			_ = l.walk(filepath.Join(dir, entry.Name()), rel, depth-1, out)
		}
	}
	return nil
}

// Run executes a shell command. dir defaults to the workspace root and is
// boundary-checked when overridden. The command runs in its own process
// group so timeout or cancellation kills the whole tree; on expiry the
// timeout is reported in the result, not as an error.
func (l *Local) Run(ctx context.Context, command, dir string, timeout time.Duration) (*ExecResult, error) {
	if dir == "" {
		if l.boundary.Root() == "" {
			return nil, ErrNoWorkspace
		}
		dir = l.boundary.Root()
	} else {
		resolved, err := l.boundary.Resolve(dir)
		if err != nil {
			return nil, err
		}
		dir = resolved
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/bash", "-c", command)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	l.logger.Debug("run command", zap.String("command", command), zap.String("dir", dir))

	err := cmd.Run()
	result := &ExecResult{Output: combined.String()}

	if err != nil {
		if ctx.Err() != nil {
			result.TimedOut = ctx.Err() == context.DeadlineExceeded
			result.ExitCode = -1
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
			return result, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("exec %q: %w", command, err)
	}
	return result, nil
}
