package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/manager"
	store "github.com/deepcode-ai/deepcode/internal/store/sqlite"
)

func (a *app) installCommand() *cobra.Command {
	var opts manager.InstallOptions
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install Python dependencies, the Ollama runtime and the default model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.confirm("Install DeepCode dependencies, the Ollama runtime and a local model?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.stdout, "install cancelled")
				return nil
			}
			if asJSON {
				a.notes = a.stderr
			}
			m, err := a.newManager()
			if err != nil {
				return fmt.Errorf("open install history: %w", err)
			}
			defer m.Close()

			opts.Out = a.notesOut()
			report, err := m.Install(cmd.Context(), opts)
			if err != nil && report.Install.InstallID == "" {
				return err
			}
			if asJSON {
				if jerr := a.printJSON(report); jerr != nil {
					return jerr
				}
			} else {
				a.printInstallReport(report)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.SkipPip, "skip-pip", false, "skip installing Python dependencies")
	f.BoolVar(&opts.SkipRuntime, "skip-runtime", false, "skip installing and starting Ollama")
	f.BoolVar(&opts.SkipModel, "skip-model", false, "skip pulling the model")
	f.StringVarP(&opts.Model, "model", "m", "", "model to pull (default from config, else "+config.DefaultModel+")")
	f.BoolVar(&opts.PipUser, "user", false, "pass --user to pip")
	f.BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	f.BoolVar(&asJSON, "json", false, "json output")
	return cmd
}

func (a *app) printInstallReport(r manager.InstallReport) {
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, headerStyle.Render("install "+r.Install.InstallID+":"))
	for _, s := range r.Steps {
		fmt.Fprintf(a.stdout, "  [%s] %s: %s\n", statusLabel(stepStatus(s.Status)), s.Step, s.Detail)
	}
	switch r.Install.Status {
	case store.StatusSucceeded:
		fmt.Fprintln(a.stdout, passStyle.Render("DeepCode is ready.")+" Try: deepcode --help, or dpcd for the interactive UI")
	case store.StatusSucceededWithWarning:
		fmt.Fprintln(a.stdout, warnStyle.Render("Installed with warnings.")+" Finish these steps by hand:")
		for _, w := range r.Warnings() {
			if strings.TrimSpace(w.Recovery) != "" {
				fmt.Fprintf(a.stdout, "  - %s\n", w.Recovery)
			}
		}
	default:
		fmt.Fprintln(a.stdout, failStyle.Render("Install failed."))
	}
}

func stepStatus(s string) string {
	switch s {
	case manager.StatusOK:
		return statusPass
	case manager.StatusSkipped:
		return statusSkip
	default:
		return statusFail
	}
}

func (a *app) postinstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "postinstall",
		Short: "Create the DeepCode home directory and default config if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.newManager()
			if err != nil {
				return err
			}
			defer m.Close()
			res, err := m.PostInstall()
			if err != nil {
				return err
			}
			if res.Created {
				fmt.Fprintf(a.stdout, "created config: %s\n", res.ConfigPath)
			} else {
				fmt.Fprintf(a.stdout, "config exists, left unchanged: %s\n", res.ConfigPath)
			}
			return nil
		},
	}
}

func (a *app) ollamaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ollama",
		Short: "Manage the Ollama runtime",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install Ollama unless it is already on PATH",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := a.runtimeInstaller().Ensure(cmd.Context(), a.stdout)
				if err != nil {
					return err
				}
				if out.AlreadyInstalled {
					fmt.Fprintln(a.stdout, "ollama is already installed")
				} else {
					fmt.Fprintf(a.stdout, "ollama installed via %s\n", out.Method)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "start",
			Short: "Start ollama serve in the background unless it is running",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				started, err := a.modelService().Start(cmd.Context())
				if err != nil {
					return err
				}
				if started {
					fmt.Fprintln(a.stdout, "ollama is up")
				} else {
					fmt.Fprintln(a.stdout, "ollama is already running")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "pull [model]",
			Short: "Pull a model (default from config)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				model := config.DefaultModel
				if len(args) == 1 {
					model = args[0]
				} else if cfg, err := config.Load(a.home(), configProject()); err == nil && cfg.Ollama.Model != "" {
					model = cfg.Ollama.Model
				}
				pulled, err := a.modelService().Pull(cmd.Context(), model)
				if err != nil {
					return err
				}
				if pulled {
					fmt.Fprintf(a.stdout, "pulled %s\n", model)
				} else {
					fmt.Fprintf(a.stdout, "%s is already present\n", model)
				}
				return nil
			},
		},
	)
	return cmd
}
