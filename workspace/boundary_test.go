package workspace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryCheck(t *testing.T) {
	b := NewBoundary("/ws")

	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{"root itself", "/ws", true},
		{"direct child", "/ws/package.json", true},
		{"nested child", "/ws/src/lib/util.go", true},
		{"unnormalized inside", "/ws/src/../package.json", true},
		{"parent", "/", false},
		{"sibling with shared prefix", "/wsx/file", false},
		{"outside absolute", "/etc/passwd", false},
		{"traversal escape", "/ws/../../etc/passwd", false},
		{"home path", "~/secrets", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Check(tt.path)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var violation *BoundaryViolationError
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, "/ws", violation.Root)
			assert.Contains(t, err.Error(), "/ws")
			assert.Contains(t, err.Error(), violation.Path)
		})
	}
}

func TestBoundaryResolve(t *testing.T) {
	b := NewBoundary("/ws")

	t.Run("relative joins onto root", func(t *testing.T) {
		resolved, err := b.Resolve("package.json")
		require.NoError(t, err)
		assert.Equal(t, "/ws/package.json", resolved)
	})

	t.Run("absolute inside passes through", func(t *testing.T) {
		resolved, err := b.Resolve("/ws/src/main.go")
		require.NoError(t, err)
		assert.Equal(t, "/ws/src/main.go", resolved)
	})

	t.Run("relative traversal escape rejected", func(t *testing.T) {
		_, err := b.Resolve("../../etc/passwd")
		var violation *BoundaryViolationError
		require.ErrorAs(t, err, &violation)
		assert.Contains(t, err.Error(), "/ws")
	})

	t.Run("absolute outside rejected", func(t *testing.T) {
		_, err := b.Resolve("/etc/passwd")
		var violation *BoundaryViolationError
		require.ErrorAs(t, err, &violation)
	})

	t.Run("tilde treated as absolute and rejected", func(t *testing.T) {
		_, err := b.Resolve("~/notes.txt")
		var violation *BoundaryViolationError
		require.ErrorAs(t, err, &violation)
	})
}

func TestBoundaryRootIsFilesystemRoot(t *testing.T) {
	b := NewBoundary("/")

	assert.NoError(t, b.Check("/"))
	assert.NoError(t, b.Check("/etc/passwd"))
	assert.NoError(t, b.Check("/deep/nested/file"))

	resolved, err := b.Resolve("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "/notes.txt", resolved)
}

func TestBoundaryNoWorkspace(t *testing.T) {
	b := NewBoundary("")

	_, err := b.Resolve("package.json")
	assert.True(t, errors.Is(err, ErrNoWorkspace))

	err = b.Check("/anything")
	assert.True(t, errors.Is(err, ErrNoWorkspace))
}
