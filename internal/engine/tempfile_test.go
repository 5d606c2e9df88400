package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempCoordinator_CreateAndRemove(t *testing.T) {
	root := t.TempDir()
	tc := newTempCoordinator(root, "task-1")

	require.NoError(t, tc.create())
	info, err := os.Stat(filepath.Join(root, "task-1"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, filepath.Join(root, "task-1", "part-2.bin"), tc.partPath(2))

	tc.remove()
	_, err = os.Stat(filepath.Join(root, "task-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestTempCoordinator_RemoveIsIdempotent(t *testing.T) {
	tc := newTempCoordinator(t.TempDir(), "task-2")
	tc.remove()
	tc.remove()
}

func TestEnsureParentDir_CreatesMissingParent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "nested", "deeper", "out.bin")

	require.NoError(t, ensureParentDir(target))
	info, err := os.Stat(filepath.Join(root, "nested", "deeper"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRemoveIfExists_SwallowsMissingFile(t *testing.T) {
	removeIfExists(filepath.Join(t.TempDir(), "nope.bin"))
	removeIfExists("")
}
