// Package homebrew installs Ollama on macOS with brew.
package homebrew

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/runtime/spec"
)

// ErrNoBrew is returned when brew is not on PATH.
var ErrNoBrew = errors.New("homebrew not found; install it from https://brew.sh or download Ollama from https://ollama.com/download")

type Installer struct {
	Runner   proc.Runner
	LookPath func(string) bool
}

func New(r proc.Runner) *Installer {
	return &Installer{Runner: r, LookPath: proc.Exists}
}

func (i *Installer) Name() spec.Method { return spec.MethodHomebrew }

func (i *Installer) Supported(goos string) bool { return goos == "darwin" }

func (i *Installer) Available(context.Context) bool {
	look := i.LookPath
	if look == nil {
		look = proc.Exists
	}
	return look("brew")
}

func (i *Installer) Install(ctx context.Context, out io.Writer) error {
	if !i.Available(ctx) {
		return ErrNoBrew
	}
	runner := i.Runner
	if runner == nil {
		runner = proc.Exec{}
	}
	fmt.Fprintln(out, "Running: brew install ollama")
	if _, err := runner.Run(ctx, proc.Command{Bin: "brew", Args: []string{"install", "ollama"}, Stdout: out, Stderr: out}); err != nil {
		return fmt.Errorf("brew install ollama: %w", err)
	}
	return nil
}
