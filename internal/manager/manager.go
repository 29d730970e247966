// Package manager orchestrates an install: Python deps, the Ollama runtime,
// the model, and the per-user config. Every step is recorded in the history
// store and the install's event log.
package manager

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	goruntime "runtime"
	"time"

	"github.com/google/uuid"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/launcher"
	"github.com/deepcode-ai/deepcode/internal/logs"
	"github.com/deepcode-ai/deepcode/internal/paths"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/python"
	"github.com/deepcode-ai/deepcode/internal/runtime"
	store "github.com/deepcode-ai/deepcode/internal/store/sqlite"
)

// Step names, in execution order.
const (
	StepPython      = "python.discover"
	StepPip         = "pip.install"
	StepRuntime     = "runtime.install"
	StepStart       = "runtime.start"
	StepModel       = "model.pull"
	StepPostInstall = "postinstall"
)

// Step statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// RuntimeInstaller is satisfied by *runtime.Resolver.
type RuntimeInstaller interface {
	Ensure(ctx context.Context, out io.Writer) (runtime.Outcome, error)
}

// ModelService is satisfied by *runtime.Service.
type ModelService interface {
	Start(ctx context.Context) (bool, error)
	Pull(ctx context.Context, model string) (bool, error)
}

// Deps are the collaborators an install drives.
type Deps struct {
	Prober  python.Prober
	Runner  proc.Runner
	Runtime RuntimeInstaller
	Service ModelService
	// Executable locates the bundled sources; empty means os.Executable.
	Executable string
}

type Manager struct {
	home  paths.Home
	store *store.Store
	deps  Deps
	log   *slog.Logger
}

type InstallOptions struct {
	SkipPip     bool
	SkipRuntime bool
	SkipModel   bool
	// Model overrides the configured model.
	Model   string
	PipUser bool
	Out     io.Writer
}

// StepResult is one step of a finished install. Recovery holds the command
// a user can run by hand when the step failed.
type StepResult struct {
	Step     string `json:"step"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Recovery string `json:"recovery,omitempty"`
}

type InstallReport struct {
	Install store.InstallRecord `json:"install"`
	Steps   []StepResult        `json:"steps"`
}

// Warnings returns the failed steps.
func (r InstallReport) Warnings() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

type PostInstallResult struct {
	ConfigPath string `json:"configPath"`
	Created    bool   `json:"created"`
}

func New(home paths.Home, deps Deps, log *slog.Logger) (*Manager, error) {
	if err := paths.EnsureHome(home); err != nil {
		return nil, err
	}
	s, err := store.Open(home.StateDBPath())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Prober == nil {
		deps.Prober = python.ExecProber{Runner: deps.Runner}
	}
	return &Manager{home: home, store: s, deps: deps, log: log}, nil
}

func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	return m.store.Close()
}

func (m *Manager) Home() paths.Home { return m.home }

// Install runs every step. Failures of the pip, runtime and model steps are
// recorded and reported as warnings; only a post-install failure fails the
// whole install.
func (m *Manager) Install(ctx context.Context, opts InstallOptions) (InstallReport, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	rec := store.InstallRecord{
		InstallID: makeInstallID(),
		Status:    store.StatusRunning,
		Platform:  goruntime.GOOS + "/" + goruntime.GOARCH,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := m.store.InsertInstall(rec); err != nil {
		return InstallReport{}, err
	}
	run := &installRun{m: m, id: rec.InstallID, out: out}
	m.log.Debug("install started", "install_id", rec.InstallID, "platform", rec.Platform)

	// python + pip
	interp, pyErr := python.Discover(ctx, m.deps.Prober)
	if pyErr != nil {
		run.record(StepPython, StatusFailed, pyErr.Error(), "Install Python 3.8+ from https://www.python.org/downloads/ and rerun: deepcode-setup install")
	} else {
		desc := interp.Command + " " + interp.Version.String()
		run.record(StepPython, StatusOK, desc, "")
		rec.Python = desc
		if err := m.store.SetPython(rec.InstallID, desc); err != nil {
			m.log.Warn("record python", "install_id", rec.InstallID, "err", err)
		}
	}
	switch {
	case opts.SkipPip:
		run.record(StepPip, StatusSkipped, "--skip-pip", "")
	case pyErr != nil:
		run.record(StepPip, StatusSkipped, "no python interpreter", "")
	default:
		pipOpts := m.pipOptions(opts, out)
		fmt.Fprintln(out, "==> Installing Python dependencies")
		if err := python.PipInstall(ctx, m.deps.Runner, interp, pipOpts); err != nil {
			args, _ := python.PipArgs(pipOpts)
			run.record(StepPip, StatusFailed, err.Error(), "Run manually: "+shellJoin(interp.Command, args))
		} else {
			run.record(StepPip, StatusOK, pipSource(pipOpts), "")
		}
	}

	// runtime
	runtimeReady := false
	if opts.SkipRuntime {
		run.record(StepRuntime, StatusSkipped, "--skip-runtime", "")
		run.record(StepStart, StatusSkipped, "--skip-runtime", "")
	} else {
		fmt.Fprintln(out, "==> Checking Ollama runtime")
		outcome, err := m.deps.Runtime.Ensure(ctx, out)
		switch {
		case err != nil:
			run.record(StepRuntime, StatusFailed, err.Error(), "Install Ollama manually from "+runtime.ManualURL)
			run.record(StepStart, StatusSkipped, "runtime not installed", "")
		default:
			if outcome.AlreadyInstalled {
				run.record(StepRuntime, StatusOK, "already installed", "")
			} else {
				run.record(StepRuntime, StatusOK, "installed via "+string(outcome.Method), "")
			}
			fmt.Fprintln(out, "==> Starting Ollama service")
			started, err := m.deps.Service.Start(ctx)
			switch {
			case err != nil:
				run.record(StepStart, StatusFailed, err.Error(), "Start the server manually: ollama serve")
			case started:
				runtimeReady = true
				run.record(StepStart, StatusOK, "started ollama serve", "")
			default:
				runtimeReady = true
				run.record(StepStart, StatusOK, "already running", "")
			}
		}
	}

	// model
	model := opts.Model
	if model == "" {
		model = m.configuredModel()
	}
	switch {
	case opts.SkipModel:
		run.record(StepModel, StatusSkipped, "--skip-model", "")
	case !runtimeReady && !opts.SkipRuntime:
		run.record(StepModel, StatusSkipped, "runtime not running", "Pull the model later: ollama pull "+model)
	default:
		fmt.Fprintf(out, "==> Pulling model %s\n", model)
		pulled, err := m.deps.Service.Pull(ctx, model)
		switch {
		case err != nil:
			run.record(StepModel, StatusFailed, err.Error(), "Pull the model manually: ollama pull "+model)
		case pulled:
			run.record(StepModel, StatusOK, "pulled "+model, "")
		default:
			run.record(StepModel, StatusOK, model+" already present", "")
		}
	}

	// config
	res, postErr := m.PostInstall()
	if postErr != nil {
		run.record(StepPostInstall, StatusFailed, postErr.Error(), "")
	} else if res.Created {
		run.record(StepPostInstall, StatusOK, "created "+res.ConfigPath, "")
	} else {
		run.record(StepPostInstall, StatusOK, "kept existing "+res.ConfigPath, "")
	}

	status, lastErr := store.StatusSucceeded, ""
	if w := (InstallReport{Steps: run.steps}).Warnings(); len(w) > 0 {
		status = store.StatusSucceededWithWarning
		lastErr = w[len(w)-1].Step + ": " + w[len(w)-1].Detail
	}
	if postErr != nil {
		status, lastErr = store.StatusFailed, StepPostInstall+": "+postErr.Error()
	}
	if err := m.store.CompleteInstall(rec.InstallID, status, lastErr); err != nil {
		return InstallReport{}, err
	}
	final, err := m.store.GetInstall(rec.InstallID)
	if err != nil {
		return InstallReport{}, err
	}
	m.log.Debug("install finished", "install_id", rec.InstallID, "status", status)
	report := InstallReport{Install: final, Steps: run.steps}
	if postErr != nil {
		return report, fmt.Errorf("post-install: %w", postErr)
	}
	return report, nil
}

// PostInstall creates the home directory layout and writes the default
// config unless one already exists.
func (m *Manager) PostInstall() (PostInstallResult, error) {
	if err := paths.EnsureHome(m.home); err != nil {
		return PostInstallResult{}, err
	}
	created, err := config.EnsureDefault(m.home.ConfigPath())
	if err != nil {
		return PostInstallResult{}, err
	}
	return PostInstallResult{ConfigPath: m.home.ConfigPath(), Created: created}, nil
}

func (m *Manager) ListInstalls(limit int) ([]store.InstallRecord, error) {
	return m.store.ListInstalls(limit)
}

func (m *Manager) GetInstall(installID string) (store.InstallRecord, error) {
	return m.store.GetInstall(installID)
}

func (m *Manager) Steps(installID string) ([]store.StepRecord, error) {
	return m.store.Steps(installID)
}

func (m *Manager) ReadEvents(installID string) ([]logs.Event, error) {
	return logs.ReadEvents(m.home, installID)
}

func (m *Manager) configuredModel() string {
	cfg, err := config.Load(m.home, paths.Project{})
	if err != nil || cfg.Ollama.Model == "" {
		return config.DefaultModel
	}
	return cfg.Ollama.Model
}

// pipOptions prefers a requirements.txt shipped beside the sources.
func (m *Manager) pipOptions(opts InstallOptions, out io.Writer) python.PipOptions {
	po := python.PipOptions{Packages: python.DefaultPackages, User: opts.PipUser, Output: out}
	script, err := launcher.ResolveScript(m.deps.Executable)
	if err != nil {
		return po
	}
	dir := filepath.Dir(script)
	for _, candidate := range []string{filepath.Join(dir, "requirements.txt"), filepath.Join(dir, "..", "requirements.txt")} {
		if st, err := os.Stat(candidate); err == nil && st.Mode().IsRegular() {
			po.Requirements = filepath.Clean(candidate)
			po.Packages = nil
			return po
		}
	}
	return po
}

type installRun struct {
	m     *Manager
	id    string
	out   io.Writer
	steps []StepResult
}

func (r *installRun) record(step, status, detail, recovery string) {
	r.steps = append(r.steps, StepResult{Step: step, Status: status, Detail: detail, Recovery: recovery})
	if err := r.m.store.AppendStep(store.StepRecord{InstallID: r.id, Step: step, Status: status, Detail: detail}); err != nil {
		r.m.log.Warn("record step", "step", step, "err", err)
	}
	ev := logs.Event{Step: step, Status: status, Message: detail}
	if status == StatusFailed {
		ev.Error = detail
		ev.Message = recovery
	}
	if err := logs.AppendEvent(r.m.home, r.id, ev); err != nil {
		r.m.log.Warn("append event", "step", step, "err", err)
	}
	r.m.log.Debug("step", "install_id", r.id, "step", step, "status", status, "detail", detail)
	if status == StatusFailed {
		fmt.Fprintf(r.out, "warning: %s failed: %s\n", step, detail)
		if recovery != "" {
			fmt.Fprintf(r.out, "  %s\n", recovery)
		}
	}
}

func pipSource(po python.PipOptions) string {
	if po.Requirements != "" {
		return "from " + po.Requirements
	}
	return fmt.Sprintf("%d default packages", len(po.Packages))
}

func shellJoin(bin string, args []string) string {
	s := bin
	for _, a := range args {
		s += " " + a
	}
	return s
}

func makeInstallID() string {
	now := time.Now().UTC()
	return now.Format("20060102t150405") + "-" + uuid.NewString()[:8]
}
