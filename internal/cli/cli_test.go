package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepcode-ai/deepcode/internal/launcher"
	"github.com/deepcode-ai/deepcode/internal/ollama"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/python"
	"github.com/deepcode-ai/deepcode/internal/runtime"
	"github.com/deepcode-ai/deepcode/internal/runtime/spec"
)

type fakeProber struct{}

func (fakeProber) Probe(context.Context, string) (string, error) { return "Python 3.12.1", nil }

type fakeRunner struct{}

func (fakeRunner) Run(_ context.Context, c proc.Command) (proc.Result, error) {
	if len(c.Args) >= 3 && c.Args[2] == "--version" {
		return proc.Result{Stdout: "pip 24.0 from /usr/lib/python3/site-packages/pip (python 3.12)\n"}, nil
	}
	return proc.Result{}, nil
}

type fakeInstaller struct{ err error }

func (f fakeInstaller) Ensure(context.Context, io.Writer) (runtime.Outcome, error) {
	if f.err != nil {
		return runtime.Outcome{}, f.err
	}
	return runtime.Outcome{Method: spec.MethodScript}, nil
}

type fakeService struct{}

func (fakeService) Start(context.Context) (bool, error)        { return true, nil }
func (fakeService) Pull(context.Context, string) (bool, error) { return true, nil }

type harness struct {
	app    *app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	home   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv(python.OverrideEnv, "")
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, launcher.EntryScript), nil, 0o644))
	t.Setenv(launcher.SourceEnv, src)

	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, home: filepath.Join(t.TempDir(), ".conflict-deepcode")}
	h.app = h.fresh()
	return h
}

// fresh returns a new app sharing the harness writers, as a second process
// invocation would.
func (h *harness) fresh() *app {
	return &app{
		stdout:      h.stdout,
		stderr:      h.stderr,
		interactive: func() bool { return false },
		prober:      fakeProber{},
		runner:      fakeRunner{},
		installer:   fakeInstaller{},
		service:     fakeService{},
		lookPath:    func(string) bool { return true },
	}
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	a := h.fresh()
	a.installer = h.app.installer
	return a.execute(context.Background(), append([]string{"--home", h.home}, args...))
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 0, h.run("version"))
	assert.Equal(t, "deepcode-setup dev\n", h.stdout.String())
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, 1, h.run("frobnicate"))
	assert.Contains(t, h.stderr.String(), "unknown command")
}

func TestPostinstall(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("postinstall"))
	assert.Contains(t, h.stdout.String(), "created config")
	_, err := os.Stat(filepath.Join(h.home, "config.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(h.home, "backups"))
	require.NoError(t, err)

	require.Equal(t, 0, h.run("postinstall"))
	assert.Contains(t, h.stdout.String(), "left unchanged")
}

func TestInstallAndHistory(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("install", "--yes"))
	assert.Contains(t, h.stdout.String(), "DeepCode is ready")

	require.Equal(t, 0, h.run("history", "--json"))
	var installs []struct {
		InstallID string `json:"installId"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &installs))
	require.Len(t, installs, 1)
	assert.Equal(t, "succeeded", installs[0].Status)

	require.Equal(t, 0, h.run("history", "show", installs[0].InstallID))
	out := h.stdout.String()
	assert.Contains(t, out, "status: succeeded")
	assert.Contains(t, out, "python.discover")
	assert.Contains(t, out, "postinstall")

	assert.Equal(t, 1, h.run("history", "show", "does-not-exist"))
	assert.Contains(t, h.stderr.String(), "install not found")
}

func TestInstallWithWarnings(t *testing.T) {
	h := newHarness(t)
	h.app.installer = fakeInstaller{err: errors.New("download failed: 503 Service Unavailable")}
	require.Equal(t, 0, h.run("install", "--yes"))
	out := h.stdout.String()
	assert.Contains(t, out, "Installed with warnings")
	assert.Contains(t, out, "Install Ollama manually from https://ollama.com/download")
}

func TestInstallJSON(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("install", "--yes", "--json", "--skip-model"))
	var report struct {
		Install struct {
			Status string `json:"status"`
		} `json:"install"`
		Steps []struct {
			Step   string `json:"step"`
			Status string `json:"status"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &report))
	assert.Equal(t, "succeeded", report.Install.Status)
	assert.Len(t, report.Steps, 6)
}

func ollamaServer(t *testing.T, models ...string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			fmt.Fprint(w, `{"version":"0.4.1"}`)
		case "/api/tags":
			entries := make([]string, 0, len(models))
			for _, m := range models {
				entries = append(entries, fmt.Sprintf(`{"name":%q}`, m))
			}
			fmt.Fprintf(w, `{"models":[%s]}`, strings.Join(entries, ","))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	t.Setenv(ollama.HostEnv, srv.URL)
}

func TestDoctorPasses(t *testing.T) {
	h := newHarness(t)
	ollamaServer(t, "deepseek-coder-v2:latest")
	require.Equal(t, 0, h.run("postinstall"))

	require.Equal(t, 0, h.run("doctor", "--json"))
	var report doctorReport
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &report))
	statuses := map[string]string{}
	for _, c := range report.Checks {
		statuses[c.Name] = c.Status
	}
	assert.Equal(t, statusPass, statuses["python"])
	assert.Equal(t, statusPass, statuses["pip"])
	assert.Equal(t, statusPass, statuses["sources"])
	assert.Equal(t, statusPass, statuses["ollama_binary"])
	assert.Equal(t, statusPass, statuses["ollama_server"])
	assert.Equal(t, statusPass, statuses["model"])
	assert.Equal(t, statusPass, statuses["config"])
	assert.Equal(t, "python3 3.12.1", report.Python)
}

func TestDoctorFailsWithoutOllama(t *testing.T) {
	h := newHarness(t)
	ollamaServer(t)
	h.run("postinstall")

	a := h.fresh()
	a.lookPath = func(string) bool { return false }
	h.stdout.Reset()
	code := a.execute(context.Background(), []string{"--home", h.home, "doctor"})
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stdout.String(), "ollama_binary")
	assert.Contains(t, h.stdout.String(), "deepseek-coder-v2 not pulled")
	assert.Contains(t, h.stderr.String(), "failing checks: ollama_binary")
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 0, h.run("config", "path"))
	assert.Equal(t, filepath.Join(h.home, "config.yaml")+"\n", h.stdout.String())

	require.Equal(t, 0, h.run("postinstall"))
	require.Equal(t, 0, h.run("config", "validate"))
	assert.Contains(t, h.stdout.String(), "is valid")

	require.Equal(t, 0, h.run("config", "diff"))
	assert.Contains(t, h.stdout.String(), "matches the defaults")

	cfgPath := filepath.Join(h.home, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("ollama:\n  temperature: 7\n"), 0o644))
	assert.Equal(t, 1, h.run("config", "validate"))
	assert.Contains(t, h.stdout.String(), "ollama.temperature")

	require.Equal(t, 0, h.run("config", "show", "--json"))
	assert.Contains(t, h.stdout.String(), `"temperature": 7`)

	require.Equal(t, 0, h.run("config", "reset", "--yes"))
	assert.Contains(t, h.stdout.String(), "backed up to")
	require.Equal(t, 0, h.run("config", "diff"))
	assert.Contains(t, h.stdout.String(), "matches the defaults")
}

func TestProjectInitAndStatus(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), nil, 0o644))

	require.Equal(t, 0, h.run("project", "status", dir))
	assert.Contains(t, h.stdout.String(), "not initialised")

	require.Equal(t, 0, h.run("project", "init", dir))
	assert.Contains(t, h.stdout.String(), "added .deepcode/ to .gitignore")

	require.Equal(t, 0, h.run("project", "init", dir))
	assert.NotContains(t, h.stdout.String(), ".gitignore")

	require.Equal(t, 0, h.run("project", "status", dir))
	assert.Contains(t, h.stdout.String(), "project: initialised")
	assert.Contains(t, h.stdout.String(), "1 .py")
}

func TestPrintJSONReportsEncodeErrors(t *testing.T) {
	var out bytes.Buffer
	a := &app{stdout: &out}

	require.NoError(t, a.printJSON(map[string]int{"files": 3}))
	assert.JSONEq(t, `{"files":3}`, out.String())

	out.Reset()
	err := a.printJSON(map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode json")
	assert.Empty(t, out.String())
}

func TestLoadDotEnvFillsEmptyVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepcode.env")
	require.NoError(t, os.WriteFile(path, []byte("DEEPCODE_TEST_EMPTY=from-file\nDEEPCODE_TEST_SET=from-file\n"), 0o644))
	t.Setenv("DEEPCODE_TEST_EMPTY", "")
	t.Setenv("DEEPCODE_TEST_SET", "process")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("DEEPCODE_TEST_EMPTY"))
	assert.Equal(t, "process", os.Getenv("DEEPCODE_TEST_SET"))

	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
