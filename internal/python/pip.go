package python

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/deepcode-ai/deepcode/internal/proc"
)

// DefaultPackages is installed when no requirements.txt ships with the sources.
var DefaultPackages = []string{
	"click>=8.0.0",
	"requests>=2.28.0",
	"pyyaml>=6.0",
	"rich>=13.0.0",
	"gitpython>=3.1.0",
	"watchdog>=3.0.0",
	"pygments>=2.14.0",
}

type PipOptions struct {
	Requirements string
	Packages     []string
	User         bool
	Output       io.Writer
}

// PipArgs builds the argument list for `<python> -m pip install`.
func PipArgs(opts PipOptions) ([]string, error) {
	args := []string{"-m", "pip", "install"}
	if opts.User {
		args = append(args, "--user")
	}
	switch {
	case opts.Requirements != "":
		args = append(args, "-r", opts.Requirements)
	case len(opts.Packages) > 0:
		args = append(args, opts.Packages...)
	default:
		return nil, errors.New("pip: nothing to install")
	}
	return args, nil
}

// PipInstall installs the agent's Python dependencies with interp.
func PipInstall(ctx context.Context, r proc.Runner, interp Interpreter, opts PipOptions) error {
	args, err := PipArgs(opts)
	if err != nil {
		return err
	}
	if r == nil {
		r = proc.Exec{}
	}
	res, err := r.Run(ctx, proc.Command{Bin: interp.Command, Args: args, Stdout: opts.Output, Stderr: opts.Output})
	if err != nil {
		return fmt.Errorf("pip install failed (exit %d): %w", res.ExitCode, err)
	}
	return nil
}
