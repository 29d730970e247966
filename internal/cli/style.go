package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/deepcode-ai/deepcode/internal/launcher"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func statusLabel(status string) string {
	switch status {
	case statusPass:
		return passStyle.Render("OK  ")
	case statusWarn:
		return warnStyle.Render("WARN")
	case statusSkip:
		return dimStyle.Render("SKIP")
	default:
		return failStyle.Render("FAIL")
	}
}

func isInteractiveTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirm asks a yes/no question. Without a terminal, or with --yes, the
// answer is yes.
func (a *app) confirm(title string) (bool, error) {
	if a.yes {
		return true, nil
	}
	interactive := a.interactive
	if interactive == nil {
		interactive = isInteractiveTerminal
	}
	if !interactive() {
		return true, nil
	}
	ok := true
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok),
	)).Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// loadDotEnv fills empty or unset variables from the env file, the same way
// the launcher shims do.
func loadDotEnv(path string) error {
	pairs, err := launcher.ExtraEnv(path)
	if err != nil {
		return err
	}
	for _, kv := range pairs {
		k, v, _ := strings.Cut(kv, "=")
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}
