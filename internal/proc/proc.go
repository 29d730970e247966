// Package proc wraps the subprocess patterns the launcher and installer need:
// captured runs for probes, streamed runs for installers, stdio forwarding
// for the shims, and detached background starts.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Command describes one child process. Nil writers are captured into the
// Result; a nil Stdin means no input.
type Command struct {
	Bin    string
	Args   []string
	Env    []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Result is the outcome of a finished child. ExitCode is -1 when the process
// could not be started.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs a command to completion.
type Runner interface {
	Run(ctx context.Context, c Command) (Result, error)
}

// Exec is the os/exec backed Runner.
type Exec struct{}

func (Exec) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	if c.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&out, c.Stdout)
	}
	cmd.Stderr = &errBuf
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&errBuf, c.Stderr)
	}
	err := cmd.Run()
	res := Result{Stdout: out.String(), Stderr: errBuf.String()}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.ExitCode = ee.ExitCode()
			return res, fmt.Errorf("%s exited with code %d", c.Bin, res.ExitCode)
		}
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}

// Exists reports whether bin resolves on PATH.
func Exists(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// Start launches bin in the background, detached from this process, and does
// not wait for it.
func Start(bin string, args ...string) (int, error) {
	cmd := exec.Command(bin, args...)
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", bin, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release %s: %w", bin, err)
	}
	return pid, nil
}
