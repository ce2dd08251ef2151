package inspector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
}

func TestInspect(t *testing.T) {
	insp := New(hclog.NewNullLogger())

	t.Run("node project with dockerfile", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "Dockerfile")
		writeFile(t, root, "package.json")
		writeFile(t, root, "src/index.ts")

		result, err := insp.Inspect(root)
		require.NoError(t, err)

		assert.True(t, result.HasDockerfile)
		assert.True(t, result.HasDependencies)
		assert.Equal(t, []string{"package.json"}, result.DependencyFiles)
		assert.Equal(t, []string{"javascript"}, result.Languages)
	})

	t.Run("compose file counts as container manifest", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "docker-compose.yml")

		result, err := insp.Inspect(root)
		require.NoError(t, err)
		assert.True(t, result.HasDockerfile)
	})

	t.Run("nested dockerfile is not a root manifest", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "deploy/Dockerfile")

		result, err := insp.Inspect(root)
		require.NoError(t, err)
		assert.False(t, result.HasDockerfile)
	})

	t.Run("first match per dependency pattern", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a/package.json")
		writeFile(t, root, "b/package.json")
		writeFile(t, root, "go.mod")

		result, err := insp.Inspect(root)
		require.NoError(t, err)

		// One path per pattern, catalog order.
		assert.Equal(t, []string{filepath.Join("a", "package.json"), "go.mod"}, result.DependencyFiles)
		assert.True(t, result.HasDependencies)
	})

	t.Run("empty tree", func(t *testing.T) {
		root := t.TempDir()

		result, err := insp.Inspect(root)
		require.NoError(t, err)

		assert.False(t, result.HasDockerfile)
		assert.False(t, result.HasDependencies)
		assert.Empty(t, result.DependencyFiles)
		assert.Empty(t, result.Languages)
		// The manifest invariant: flag mirrors the path list.
		assert.Equal(t, len(result.DependencyFiles) > 0, result.HasDependencies)
	})

	t.Run("multi extension language", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "lib/native.hpp")

		result, err := insp.Inspect(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"cpp"}, result.Languages)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := insp.Inspect(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})
}

func TestInspectIdempotent(t *testing.T) {
	insp := New(hclog.NewNullLogger())

	root := t.TempDir()
	writeFile(t, root, "Dockerfile")
	writeFile(t, root, "requirements.txt")
	writeFile(t, root, "app/main.py")
	writeFile(t, root, "app/util.go")

	first, err := insp.Inspect(root)
	require.NoError(t, err)
	second, err := insp.Inspect(root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestInspectSymlinkCycle(t *testing.T) {
	insp := New(hclog.NewNullLogger())

	root := t.TempDir()
	writeFile(t, root, "main.go")
	// A directory symlink pointing back at the root must not loop the walk.
	if err := os.Symlink(root, filepath.Join(root, "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result, err := insp.Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, result.Languages)
}
