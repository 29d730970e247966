package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "home", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInstallLifecycle(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.InsertInstall(InstallRecord{InstallID: "inst-1", Platform: "linux/amd64"}))
	require.NoError(t, s.SetPython("inst-1", "python3 3.11.4"))
	require.NoError(t, s.AppendStep(StepRecord{InstallID: "inst-1", Step: "python.discover", Status: "ok", Detail: "python3"}))
	require.NoError(t, s.AppendStep(StepRecord{InstallID: "inst-1", Step: "pip.install", Status: "failed", Detail: "exit 1"}))

	got, err := s.GetInstall("inst-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, "python3 3.11.4", got.Python)
	assert.Empty(t, got.EndedAt)

	require.NoError(t, s.CompleteInstall("inst-1", StatusSucceededWithWarning, "pip.install: exit 1"))
	got, err = s.GetInstall("inst-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceededWithWarning, got.Status)
	assert.NotEmpty(t, got.EndedAt)
	assert.Equal(t, "pip.install: exit 1", got.LastError)

	steps, err := s.Steps("inst-1")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "python.discover", steps[0].Step)
	assert.Equal(t, "failed", steps[1].Status)
}

func TestListInstallsNewestFirst(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.InsertInstall(InstallRecord{InstallID: "a", Platform: "linux", StartedAt: "2026-01-01T00:00:00Z"}))
	require.NoError(t, s.InsertInstall(InstallRecord{InstallID: "b", Platform: "linux", StartedAt: "2026-02-01T00:00:00Z"}))
	require.NoError(t, s.InsertInstall(InstallRecord{InstallID: "c", Platform: "linux", StartedAt: "2026-03-01T00:00:00Z"}))

	got, err := s.ListInstalls(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].InstallID)
	assert.Equal(t, "b", got[1].InstallID)
}

func TestNotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.GetInstall("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.CompleteInstall("missing", StatusFailed, ""), ErrNotFound)

	steps, err := s.Steps("missing")
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.InsertInstall(InstallRecord{InstallID: "persist", Platform: "darwin"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetInstall("persist")
	require.NoError(t, err)
	assert.Equal(t, "darwin", got.Platform)
}
