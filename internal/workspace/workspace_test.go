package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_EphemeralMode(t *testing.T) {
	mgr := NewManager(t.TempDir())
	require.Empty(t, mgr.GetPath())
	require.NoError(t, mgr.Create())

	ws := mgr.GetPath()
	require.True(t, strings.HasPrefix(filepath.Base(ws), "postbuilder-"), ws)
	require.DirExists(t, ws)

	require.NoError(t, mgr.Cleanup())
	require.NoDirExists(t, ws)
	require.Empty(t, mgr.GetPath())
	require.NoError(t, mgr.Cleanup(), "second cleanup is a no-op")
}

func TestManager_EphemeralDirectoriesAreDistinct(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base), NewManager(base)
	require.NoError(t, a.Create())
	require.NoError(t, b.Create())
	require.NotEqual(t, a.GetPath(), b.GetPath())
}

func TestManager_PersistentMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clone")
	mgr := NewPersistentManager(dir)
	require.NoError(t, mgr.Create())
	require.Equal(t, dir, mgr.GetPath())

	marker := filepath.Join(dir, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o600))
	require.NoError(t, mgr.Cleanup())
	require.FileExists(t, marker)
}

func TestManager_CreateSubdir(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := mgr.CreateSubdir("repo")
	require.Error(t, err)

	require.NoError(t, mgr.Create())
	sub, err := mgr.CreateSubdir("repo")
	require.NoError(t, err)
	require.DirExists(t, sub)
	require.Equal(t, mgr.GetPath(), filepath.Dir(sub))
}
