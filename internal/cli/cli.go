// Package cli implements the deepcode-setup command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/download"
	"github.com/deepcode-ai/deepcode/internal/logs"
	"github.com/deepcode-ai/deepcode/internal/manager"
	"github.com/deepcode-ai/deepcode/internal/ollama"
	"github.com/deepcode-ai/deepcode/internal/paths"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/python"
	"github.com/deepcode-ai/deepcode/internal/runtime"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// exitError carries a specific exit code out of a RunE.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// app holds what every command shares. Nil collaborators are built on first
// use from the real implementations.
type app struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	// notes receives progress output; stderr when stdout carries JSON.
	notes   io.Writer
	homeDir string
	verbose bool
	yes     bool
	log     *slog.Logger

	interactive func() bool
	prober      python.Prober
	runner      proc.Runner
	installer   manager.RuntimeInstaller
	service     manager.ModelService
	lookPath    func(string) bool
	executable  string
}

func Execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	a := &app{stdout: os.Stdout, stderr: os.Stderr, stdin: os.Stdin}
	return a.execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(a.stderr, "error: %v\n", err)
	return 1
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "deepcode-setup",
		Short:         "Install and maintain the DeepCode assistant and its Ollama runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.log = logs.NewLogger(a.stderr, a.verbose || logs.DebugFromEnv())
			return loadDotEnv(a.home().EnvPath())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.homeDir, "home", envOrDefault(paths.HomeEnv, ""), "DeepCode home directory (default ~/"+paths.HomeDirName+")")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		a.installCommand(),
		a.postinstallCommand(),
		a.doctorCommand(),
		a.ollamaCommand(),
		a.configCommand(),
		a.historyCommand(),
		a.projectCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deepcode-setup version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "deepcode-setup %s\n", Version)
		},
	}
}

func (a *app) home() paths.Home {
	if strings.TrimSpace(a.homeDir) != "" {
		return paths.NewHome(a.homeDir)
	}
	h, err := paths.DefaultHome()
	if err != nil {
		return paths.NewHome(paths.HomeDirName)
	}
	return h
}

func (a *app) logger() *slog.Logger {
	if a.log == nil {
		a.log = logs.NewLogger(a.stderr, a.verbose)
	}
	return a.log
}

func (a *app) procRunner() proc.Runner {
	if a.runner == nil {
		a.runner = proc.Exec{}
	}
	return a.runner
}

func (a *app) pythonProber() python.Prober {
	if a.prober == nil {
		a.prober = python.ExecProber{Runner: a.procRunner()}
	}
	return a.prober
}

func (a *app) hasBinary(bin string) bool {
	if a.lookPath == nil {
		return proc.Exists(bin)
	}
	return a.lookPath(bin)
}

// ollamaClient resolves the server address: OLLAMA_HOST, then the config
// file, then the default.
func (a *app) ollamaClient() *ollama.Client {
	if v := strings.TrimSpace(os.Getenv(ollama.HostEnv)); v != "" {
		return ollama.NewClient(ollama.HostFromEnv())
	}
	cfg, err := config.Load(a.home(), paths.Project{})
	if err == nil && strings.TrimSpace(cfg.Ollama.Host) != "" {
		return ollama.NewClient(cfg.Ollama.Host)
	}
	return ollama.NewClient(ollama.DefaultHost)
}

func (a *app) runtimeInstaller() manager.RuntimeInstaller {
	if a.installer == nil {
		a.installer = runtime.NewResolver(download.Client{Progress: a.progress()}, a.procRunner())
	}
	return a.installer
}

func (a *app) modelService() manager.ModelService {
	if a.service == nil {
		a.service = runtime.NewService(a.ollamaClient(), a.notesOut())
	}
	return a.service
}

func (a *app) newManager() (*manager.Manager, error) {
	return manager.New(a.home(), manager.Deps{
		Prober:     a.pythonProber(),
		Runner:     a.procRunner(),
		Runtime:    a.runtimeInstaller(),
		Service:    a.modelService(),
		Executable: a.executable,
	}, a.logger())
}

// progress prints download progress in 10% steps.
func (a *app) progress() download.Progress {
	last := int64(-1)
	return func(done, total int64) {
		if total <= 0 {
			return
		}
		step := done * 10 / total
		if step == last {
			return
		}
		last = step
		fmt.Fprintf(a.notesOut(), "  %s\n", download.Describe(done, total))
	}
}

func (a *app) notesOut() io.Writer {
	if a.notes == nil {
		return a.stdout
	}
	return a.notes
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(a.stdout, string(b))
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
