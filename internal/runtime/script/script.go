// Package script installs Ollama on Linux by piping the upstream install
// script into sh.
package script

import (
	"context"
	"fmt"
	"io"

	"github.com/deepcode-ai/deepcode/internal/download"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/runtime/spec"
)

// ScriptURL is the official install script.
const ScriptURL = "https://ollama.com/install.sh"

type Installer struct {
	URL        string
	Shell      string
	Downloader download.Client
	Runner     proc.Runner
	LookPath   func(string) bool
}

func New(dl download.Client, r proc.Runner) *Installer {
	return &Installer{URL: ScriptURL, Shell: "sh", Downloader: dl, Runner: r, LookPath: proc.Exists}
}

func (i *Installer) Name() spec.Method { return spec.MethodScript }

// Supported covers every unix-like target other than macOS.
func (i *Installer) Supported(goos string) bool {
	return goos != "windows" && goos != "darwin"
}

func (i *Installer) Available(context.Context) bool {
	look := i.LookPath
	if look == nil {
		look = proc.Exists
	}
	return look(i.shell())
}

func (i *Installer) Install(ctx context.Context, out io.Writer) error {
	fmt.Fprintf(out, "Fetching %s\n", i.URL)
	body, _, err := i.Downloader.Open(ctx, i.URL)
	if err != nil {
		return err
	}
	defer body.Close()

	runner := i.Runner
	if runner == nil {
		runner = proc.Exec{}
	}
	if _, err := runner.Run(ctx, proc.Command{Bin: i.shell(), Stdin: body, Stdout: out, Stderr: out}); err != nil {
		return fmt.Errorf("ollama install script: %w", err)
	}
	return nil
}

func (i *Installer) shell() string {
	if i.Shell == "" {
		return "sh"
	}
	return i.Shell
}
