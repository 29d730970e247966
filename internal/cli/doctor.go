package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/launcher"
	"github.com/deepcode-ai/deepcode/internal/ollama"
	"github.com/deepcode-ai/deepcode/internal/paths"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/python"
	"github.com/deepcode-ai/deepcode/internal/runtime"
)

const (
	statusPass = "pass"
	statusWarn = "warn"
	statusFail = "fail"
	statusSkip = "skip"
)

type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

type doctorReport struct {
	Platform string        `json:"platform"`
	Python   string        `json:"python,omitempty"`
	Host     string        `json:"ollamaHost"`
	Model    string        `json:"model"`
	Checks   []doctorCheck `json:"checks"`
}

func (a *app) doctorCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that Python, Ollama, the model and the config are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.collectDoctorReport(cmd.Context())
			if asJSON {
				if jerr := a.printJSON(report); jerr != nil {
					return jerr
				}
			} else {
				a.printDoctorReport(report)
			}
			if err != nil {
				fmt.Fprintf(a.stderr, "doctor failed: %v\n", err)
				return exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "json output")
	return cmd
}

func (a *app) collectDoctorReport(ctx context.Context) (doctorReport, error) {
	home := a.home()
	report := doctorReport{Platform: platformDetail(), Checks: make([]doctorCheck, 0, 10)}
	add := func(name, status, detail string) {
		report.Checks = append(report.Checks, doctorCheck{Name: name, Status: status, Detail: detail})
	}
	add("platform", statusPass, report.Platform)

	interp, err := python.Discover(ctx, a.pythonProber())
	if err != nil {
		add("python", statusFail, err.Error()+" (install from https://www.python.org/downloads/)")
		add("pip", statusSkip, "no interpreter")
	} else {
		report.Python = interp.Command + " " + interp.Version.String()
		add("python", statusPass, report.Python)
		pctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		res, err := a.procRunner().Run(pctx, proc.Command{Bin: interp.Command, Args: []string{"-m", "pip", "--version"}})
		cancel()
		if err != nil {
			add("pip", statusWarn, "pip not available for "+interp.Command)
		} else {
			add("pip", statusPass, firstLine(res.Stdout))
		}
	}

	if script, err := launcher.ResolveScript(a.executable); err != nil {
		add("sources", statusWarn, err.Error())
	} else {
		add("sources", statusPass, script)
	}

	if a.hasBinary(runtime.Binary) {
		add("ollama_binary", statusPass, "on PATH")
	} else {
		add("ollama_binary", statusFail, "ollama not found (run: deepcode-setup ollama install, or see "+runtime.ManualURL+")")
	}

	cfg := config.Default()
	switch {
	case !fileExists(home.ConfigPath()):
		add("config", statusWarn, home.ConfigPath()+" missing (run: deepcode-setup postinstall)")
	default:
		parsed, err := config.ParseStrict(home.ConfigPath())
		if err != nil {
			add("config", statusFail, err.Error())
			break
		}
		if problems := config.Validate(parsed); len(problems) > 0 {
			add("config", statusFail, config.ValidationError(problems).Error())
			break
		}
		cfg = parsed
		add("config", statusPass, home.ConfigPath())
	}
	report.Model = cfg.Ollama.Model

	client := a.ollamaClient()
	report.Host = client.BaseURL
	vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	version, err := client.Version(vctx)
	cancel()
	if err != nil {
		add("ollama_server", statusWarn, "not reachable at "+client.BaseURL+" (run: ollama serve)")
		add("model", statusSkip, "server not reachable")
	} else {
		add("ollama_server", statusPass, fmt.Sprintf("version %s at %s", version, client.BaseURL))
		add(modelCheck(ctx, client, cfg.Ollama.Model))
	}

	if wd, err := os.Getwd(); err == nil {
		if paths.NewProject(wd).Exists() {
			add("project", statusPass, wd+" is initialised")
		} else {
			add("project", statusSkip, "current directory not initialised (optional: deepcode-setup project init)")
		}
	}

	failed := make([]string, 0, 4)
	for _, c := range report.Checks {
		if c.Status == statusFail {
			failed = append(failed, c.Name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return report, fmt.Errorf("failing checks: %s", strings.Join(failed, ", "))
	}
	return report, nil
}

func modelCheck(ctx context.Context, c *ollama.Client, model string) (string, string, string) {
	ok, err := c.HasModel(ctx, model)
	switch {
	case err != nil:
		return "model", statusWarn, err.Error()
	case !ok:
		return "model", statusWarn, model + " not pulled (run: deepcode-setup ollama pull " + model + ")"
	default:
		return "model", statusPass, model
	}
}

func (a *app) printDoctorReport(report doctorReport) {
	fmt.Fprintln(a.stdout, headerStyle.Render("doctor:"))
	for _, c := range report.Checks {
		fmt.Fprintf(a.stdout, "  [%s] %s: %s\n", statusLabel(c.Status), c.Name, c.Detail)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
