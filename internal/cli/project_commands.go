package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/paths"
	"github.com/deepcode-ai/deepcode/internal/project"
)

func (a *app) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Prepare and inspect project directories",
	}
	var statusJSON bool
	status := &cobra.Command{
		Use:   "status [dir]",
		Short: "Show whether a project is initialised and what it contains",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dirArg(args)
			cfg, err := config.Load(a.home(), paths.NewProject(dir))
			if err != nil {
				return err
			}
			st, err := project.Inspect(dir, cfg)
			if err != nil {
				return err
			}
			if statusJSON {
				return a.printJSON(st)
			}
			if st.Initialized {
				fmt.Fprintf(a.stdout, "[%s] project: initialised\n", statusLabel(statusPass))
			} else {
				fmt.Fprintf(a.stdout, "[%s] project: not initialised (run: deepcode-setup project init)\n", statusLabel(statusWarn))
			}
			top := st.TopExtensions(5)
			parts := make([]string, 0, len(top))
			for _, e := range top {
				parts = append(parts, fmt.Sprintf("%d %s", st.ByExt[e], e))
			}
			fmt.Fprintf(a.stdout, "files: %d total", st.Files)
			if len(parts) > 0 {
				fmt.Fprintf(a.stdout, " (%s)", strings.Join(parts, ", "))
			}
			fmt.Fprintln(a.stdout)
			return nil
		},
	}
	status.Flags().BoolVar(&statusJSON, "json", false, "json output")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init [dir]",
			Short: "Create .deepcode/config.yaml and ignore it in git",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := project.Init(dirArg(args))
				if err != nil {
					return err
				}
				if res.ConfigCreated {
					fmt.Fprintf(a.stdout, "created %s\n", res.ConfigPath)
				} else {
					fmt.Fprintf(a.stdout, "kept %s\n", res.ConfigPath)
				}
				if res.GitignoreUpdated {
					fmt.Fprintln(a.stdout, "added .deepcode/ to .gitignore")
				}
				return nil
			},
		},
		status,
	)
	return cmd
}

func dirArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}
