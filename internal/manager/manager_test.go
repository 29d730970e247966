package manager

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/launcher"
	"github.com/deepcode-ai/deepcode/internal/paths"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/python"
	"github.com/deepcode-ai/deepcode/internal/runtime"
	"github.com/deepcode-ai/deepcode/internal/runtime/spec"
	store "github.com/deepcode-ai/deepcode/internal/store/sqlite"
)

type fakeProber struct{ fail bool }

func (f fakeProber) Probe(context.Context, string) (string, error) {
	if f.fail {
		return "", errors.New("not found")
	}
	return "Python 3.11.4", nil
}

type fakeRunner struct {
	cmds []proc.Command
	err  error
}

func (f *fakeRunner) Run(_ context.Context, c proc.Command) (proc.Result, error) {
	f.cmds = append(f.cmds, c)
	if f.err != nil {
		return proc.Result{ExitCode: 1}, f.err
	}
	return proc.Result{}, nil
}

type fakeRuntime struct {
	outcome runtime.Outcome
	err     error
	calls   int
}

func (f *fakeRuntime) Ensure(context.Context, io.Writer) (runtime.Outcome, error) {
	f.calls++
	return f.outcome, f.err
}

type fakeService struct {
	startErr error
	pullErr  error
	pulled   []string
	started  int
}

func (f *fakeService) Start(context.Context) (bool, error) {
	f.started++
	return f.startErr == nil, f.startErr
}

func (f *fakeService) Pull(_ context.Context, model string) (bool, error) {
	if f.pullErr != nil {
		return false, f.pullErr
	}
	f.pulled = append(f.pulled, model)
	return true, nil
}

type fixture struct {
	home    paths.Home
	runner  *fakeRunner
	runtime *fakeRuntime
	service *fakeService
	prober  fakeProber
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv(python.OverrideEnv, "")
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, launcher.EntryScript), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "requirements.txt"), []byte("rich\n"), 0o644))
	t.Setenv(launcher.SourceEnv, src)
	return &fixture{
		home:    paths.NewHome(filepath.Join(t.TempDir(), ".conflict-deepcode")),
		runner:  &fakeRunner{},
		runtime: &fakeRuntime{outcome: runtime.Outcome{Method: spec.MethodScript}},
		service: &fakeService{},
	}
}

func (f *fixture) manager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(f.home, Deps{Prober: f.prober, Runner: f.runner, Runtime: f.runtime, Service: f.service}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func stepStatus(r InstallReport) map[string]string {
	out := map[string]string{}
	for _, s := range r.Steps {
		out[s.Step] = s.Status
	}
	return out
}

func TestInstallHappyPath(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)

	var out bytes.Buffer
	report, err := m.Install(context.Background(), InstallOptions{Out: &out})
	require.NoError(t, err)
	assert.Equal(t, store.StatusSucceeded, report.Install.Status)
	assert.Equal(t, map[string]string{
		StepPython: StatusOK, StepPip: StatusOK, StepRuntime: StatusOK,
		StepStart: StatusOK, StepModel: StatusOK, StepPostInstall: StatusOK,
	}, stepStatus(report))

	require.Len(t, f.runner.cmds, 1)
	assert.Equal(t, "-r", f.runner.cmds[0].Args[3])
	assert.Equal(t, []string{config.DefaultModel}, f.service.pulled)

	_, err = os.Stat(f.home.ConfigPath())
	require.NoError(t, err)
	_, err = os.Stat(f.home.BackupsDir())
	require.NoError(t, err)

	steps, err := m.Steps(report.Install.InstallID)
	require.NoError(t, err)
	assert.Len(t, steps, 6)
	events, err := m.ReadEvents(report.Install.InstallID)
	require.NoError(t, err)
	assert.Len(t, events, 6)
	assert.Equal(t, StepPython, events[0].Step)
}

func TestInstallFailuresAreNonFatal(t *testing.T) {
	f := newFixture(t)
	f.runner.err = errors.New("python3 exited with code 1")
	f.runtime.err = errors.New("download failed: 503")
	m := f.manager(t)

	var out bytes.Buffer
	report, err := m.Install(context.Background(), InstallOptions{Out: &out})
	require.NoError(t, err)
	assert.Equal(t, store.StatusSucceededWithWarning, report.Install.Status)
	st := stepStatus(report)
	assert.Equal(t, StatusFailed, st[StepPip])
	assert.Equal(t, StatusFailed, st[StepRuntime])
	assert.Equal(t, StatusSkipped, st[StepStart])
	assert.Equal(t, StatusSkipped, st[StepModel])
	assert.Equal(t, StatusOK, st[StepPostInstall])
	assert.Zero(t, f.service.started)
	assert.Contains(t, out.String(), "https://ollama.com/download")
	assert.Contains(t, out.String(), "Run manually: python")
	assert.Len(t, report.Warnings(), 2)
	assert.Contains(t, report.Install.LastError, StepRuntime)
}

func TestInstallWithoutPython(t *testing.T) {
	f := newFixture(t)
	f.prober = fakeProber{fail: true}
	m := f.manager(t)

	report, err := m.Install(context.Background(), InstallOptions{})
	require.NoError(t, err)
	st := stepStatus(report)
	assert.Equal(t, StatusFailed, st[StepPython])
	assert.Equal(t, StatusSkipped, st[StepPip])
	assert.Equal(t, StatusOK, st[StepModel])
	assert.Empty(t, f.runner.cmds)
	assert.Equal(t, store.StatusSucceededWithWarning, report.Install.Status)
}

func TestInstallSkips(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)

	report, err := m.Install(context.Background(), InstallOptions{SkipPip: true, SkipRuntime: true, SkipModel: true})
	require.NoError(t, err)
	st := stepStatus(report)
	for _, step := range []string{StepPip, StepRuntime, StepStart, StepModel} {
		assert.Equal(t, StatusSkipped, st[step], step)
	}
	assert.Zero(t, f.runtime.calls)
	assert.Equal(t, store.StatusSucceeded, report.Install.Status)
}

func TestInstallUsesConfiguredModel(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, paths.EnsureHome(f.home))
	require.NoError(t, os.WriteFile(f.home.ConfigPath(), []byte("ollama:\n  model: codellama:7b\n"), 0o644))
	m := f.manager(t)

	_, err := m.Install(context.Background(), InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"codellama:7b"}, f.service.pulled)

	_, err = m.Install(context.Background(), InstallOptions{Model: "qwen2.5-coder"})
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder", f.service.pulled[1])

	b, err := os.ReadFile(f.home.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "ollama:\n  model: codellama:7b\n", string(b))
}

func TestPostInstallIsIdempotent(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)

	res, err := m.PostInstall()
	require.NoError(t, err)
	assert.True(t, res.Created)
	first, err := os.ReadFile(res.ConfigPath)
	require.NoError(t, err)

	res, err = m.PostInstall()
	require.NoError(t, err)
	assert.False(t, res.Created)
	second, err := os.ReadFile(res.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListInstalls(t *testing.T) {
	f := newFixture(t)
	m := f.manager(t)
	for i := 0; i < 3; i++ {
		_, err := m.Install(context.Background(), InstallOptions{SkipPip: true, SkipRuntime: true, SkipModel: true})
		require.NoError(t, err)
	}
	got, err := m.ListInstalls(2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	one, err := m.GetInstall(got[0].InstallID)
	require.NoError(t, err)
	assert.Equal(t, got[0].InstallID, one.InstallID)
}

func TestInstallLogsPythonRecordFailure(t *testing.T) {
	f := newFixture(t)
	var logBuf bytes.Buffer
	m, err := New(f.home, Deps{Prober: f.prober, Runner: f.runner, Runtime: f.runtime, Service: f.service},
		slog.New(slog.NewTextHandler(&logBuf, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	db, err := sql.Open("sqlite", f.home.StateDBPath())
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TRIGGER lock_python BEFORE UPDATE OF python ON installs
		BEGIN SELECT RAISE(ABORT, 'python column locked'); END`)
	require.NoError(t, err)

	report, err := m.Install(context.Background(), InstallOptions{Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, store.StatusSucceeded, report.Install.Status)
	assert.Contains(t, logBuf.String(), "record python")
	assert.Contains(t, logBuf.String(), "python column locked")
}
