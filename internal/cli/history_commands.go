package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/deepcode-ai/deepcode/internal/logs"
	store "github.com/deepcode-ai/deepcode/internal/store/sqlite"
)

func (a *app) historyCommand() *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past installs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.newManager()
			if err != nil {
				return err
			}
			defer m.Close()
			installs, err := m.ListInstalls(limit)
			if err != nil {
				return fmt.Errorf("history failed: %w", err)
			}
			if asJSON {
				return a.printJSON(installs)
			}
			if len(installs) == 0 {
				fmt.Fprintln(a.stdout, "no installs recorded")
				return nil
			}
			for _, r := range installs {
				fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\n", r.InstallID, r.Status, r.Platform, ago(r.StartedAt))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "json output")

	var showJSON bool
	show := &cobra.Command{
		Use:   "show <install-id>",
		Short: "Show the steps and events of one install",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.newManager()
			if err != nil {
				return err
			}
			defer m.Close()
			rec, err := m.GetInstall(args[0])
			if err != nil {
				return err
			}
			steps, err := m.Steps(rec.InstallID)
			if err != nil {
				return err
			}
			events, err := m.ReadEvents(rec.InstallID)
			if err != nil {
				a.logger().Debug("no event log", "install_id", rec.InstallID, "err", err)
				events = []logs.Event{}
			}
			if showJSON {
				return a.printJSON(struct {
					Install store.InstallRecord `json:"install"`
					Steps   []store.StepRecord  `json:"steps"`
					Events  []logs.Event        `json:"events"`
				}{rec, steps, events})
			}
			fmt.Fprintf(a.stdout, "install: %s\n", rec.InstallID)
			fmt.Fprintf(a.stdout, "status: %s\n", rec.Status)
			fmt.Fprintf(a.stdout, "platform: %s\n", rec.Platform)
			if rec.Python != "" {
				fmt.Fprintf(a.stdout, "python: %s\n", rec.Python)
			}
			fmt.Fprintf(a.stdout, "started: %s (%s)\n", rec.StartedAt, ago(rec.StartedAt))
			if rec.EndedAt != "" {
				fmt.Fprintf(a.stdout, "ended: %s\n", rec.EndedAt)
			}
			if rec.LastError != "" {
				fmt.Fprintf(a.stdout, "last error: %s\n", rec.LastError)
			}
			for _, s := range steps {
				fmt.Fprintf(a.stdout, "  [%s] %s: %s\n", statusLabel(stepStatus(s.Status)), s.Step, s.Detail)
			}
			return nil
		},
	}
	show.Flags().BoolVar(&showJSON, "json", false, "json output")
	cmd.AddCommand(show)
	return cmd
}

func ago(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
