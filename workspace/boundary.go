// Package workspace confines agent tool operations to a single directory
// subtree and provides the local filesystem and process adapters the tool
// executor runs against.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoWorkspace is returned when a relative path operation runs without a
// configured workspace root.
var ErrNoWorkspace = errors.New("no workspace folder configured: open a workspace before using file or command tools")

// BoundaryViolationError reports a path that resolves outside the workspace.
// The remedy is to change the configured workspace, not to retry.
type BoundaryViolationError struct {
	Root string
	Path string
}

func (e *BoundaryViolationError) Error() string {
	return fmt.Sprintf("path %q is outside the workspace %q; change the workspace folder to access it", e.Path, e.Root)
}

// Boundary is the single subtree the agent may read, write, list, search, or
// execute commands within.
type Boundary struct {
	root string
}

// NewBoundary creates a boundary rooted at root. An empty root produces a
// boundary that rejects every relative-path operation.
func NewBoundary(root string) Boundary {
	if root != "" {
		root = filepath.Clean(root)
	}
	return Boundary{root: root}
}

// Root returns the configured workspace root, or "" if none is set.
func (b Boundary) Root() string { return b.root }

// Check is the one predicate applied by every path-touching operation. Both
// the root and the candidate are normalized as plain strings; symlinks are
// deliberately not resolved, so the test is purely lexical.
func (b Boundary) Check(path string) error {
	if b.root == "" {
		return ErrNoWorkspace
	}
	candidate := filepath.Clean(path)
	prefix := b.root + string(filepath.Separator)
	if b.root == string(filepath.Separator) {
		// A root of "/" already ends in the separator.
		prefix = b.root
	}
	if candidate == b.root || strings.HasPrefix(candidate, prefix) {
		return nil
	}
	return &BoundaryViolationError{Root: b.root, Path: candidate}
}

// Resolve maps a tool-supplied path to a boundary-checked absolute path.
// Paths starting with "/" or "~" are treated as already absolute and go
// straight to the check; anything else joins onto the root first.
func (b Boundary) Resolve(path string) (string, error) {
	var resolved string
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "~") {
		resolved = path
	} else {
		if b.root == "" {
			return "", ErrNoWorkspace
		}
		resolved = filepath.Join(b.root, path)
	}
	if err := b.Check(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}
