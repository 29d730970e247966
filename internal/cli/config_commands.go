package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/paths"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the DeepCode configuration",
	}

	var showJSON bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (defaults, user file, project file)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.home(), configProject())
			if err != nil {
				return err
			}
			if showJSON {
				return a.printJSON(cfg)
			}
			b, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, string(b))
			return nil
		},
	}
	show.Flags().BoolVar(&showJSON, "json", false, "json output")

	var resetYes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Back up the config file and restore the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.yes = a.yes || resetYes
			ok, err := a.confirm("Replace " + a.home().ConfigPath() + " with the defaults?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(a.stdout, "reset cancelled")
				return nil
			}
			backup, err := config.Reset(a.home())
			if err != nil {
				return err
			}
			if backup != "" {
				fmt.Fprintf(a.stdout, "backed up to %s\n", backup)
			}
			fmt.Fprintf(a.stdout, "wrote defaults to %s\n", a.home().ConfigPath())
			return nil
		},
	}
	reset.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(a.stdout, a.home().ConfigPath())
			},
		},
		show,
		&cobra.Command{
			Use:   "validate",
			Short: "Check the config file for unknown keys and invalid values",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := a.home().ConfigPath()
				cfg, err := config.ParseStrict(path)
				if err != nil {
					return err
				}
				if problems := config.Validate(cfg); len(problems) > 0 {
					for _, p := range problems {
						fmt.Fprintf(a.stdout, "  [%s] %s\n", statusLabel(statusFail), p)
					}
					return exitError{code: 1}
				}
				fmt.Fprintf(a.stdout, "%s is valid\n", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show how the config file differs from the defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := config.Diff(a.home().ConfigPath())
				if err != nil {
					return err
				}
				if d == "" {
					fmt.Fprintln(a.stdout, "config matches the defaults")
					return nil
				}
				fmt.Fprint(a.stdout, d)
				return nil
			},
		},
		reset,
	)
	return cmd
}

// configProject is the project around the current directory, or the zero
// Project when the directory cannot be read.
func configProject() paths.Project {
	wd, err := os.Getwd()
	if err != nil {
		return paths.Project{}
	}
	return paths.NewProject(wd)
}
