// Package winsetup installs Ollama on Windows by running OllamaSetup.exe.
package winsetup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/deepcode-ai/deepcode/internal/download"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/runtime/spec"
)

// SetupURL is the official Windows installer.
const SetupURL = "https://ollama.com/download/OllamaSetup.exe"

type Installer struct {
	URL        string
	Downloader download.Client
	Runner     proc.Runner
	// TempDir overrides os.TempDir.
	TempDir string
}

func New(dl download.Client, r proc.Runner) *Installer {
	return &Installer{URL: SetupURL, Downloader: dl, Runner: r}
}

func (i *Installer) Name() spec.Method { return spec.MethodWinSetup }

func (i *Installer) Supported(goos string) bool { return goos == "windows" }

func (i *Installer) Available(context.Context) bool { return true }

func (i *Installer) Install(ctx context.Context, out io.Writer) error {
	dir := i.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	dst := filepath.Join(dir, "OllamaSetup.exe")
	fmt.Fprintf(out, "Downloading %s\n", i.URL)
	res, err := i.Downloader.Fetch(ctx, i.URL, dst)
	if err != nil {
		return err
	}
	defer os.Remove(res.Path)
	fmt.Fprintf(out, "Downloaded %s (sha256 %s)\n", download.Describe(res.Size, -1), res.SHA256)

	runner := i.Runner
	if runner == nil {
		runner = proc.Exec{}
	}
	fmt.Fprintln(out, "Running Ollama setup; follow the installer window if one appears")
	if _, err := runner.Run(ctx, proc.Command{Bin: res.Path, Stdout: out, Stderr: out}); err != nil {
		return fmt.Errorf("ollama setup: %w", err)
	}
	return nil
}
