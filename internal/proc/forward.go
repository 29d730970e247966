package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
)

// Forward runs c with the parent's stdio (unless c overrides it), relays
// termination signals to the child and returns the child's exit code:
// the code itself for a normal exit, 128+signal when the child was killed by
// a signal. The error is non-nil only when the child could not be started.
//
// Interrupts from the terminal already reach the child through the process
// group, so the parent swallows them and waits for the child to decide.
func Forward(ctx context.Context, c Command) (int, error) {
	cmd := exec.Command(c.Bin, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Dir = c.Dir
	cmd.Stdin = os.Stdin
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	cmd.Stdout = os.Stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	cmd.Stderr = os.Stderr
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %s: %w", c.Bin, err)
	}

	// Catching (not ignoring) SIGINT keeps the child's disposition at default
	// across exec.
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, append([]os.Signal{os.Interrupt}, relayedSignals...)...)
	defer signal.Stop(sigs)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ctxDone := ctx.Done()
	for {
		select {
		case s := <-sigs:
			if s == os.Interrupt {
				continue
			}
			_ = cmd.Process.Signal(s)
		case <-ctxDone:
			_ = cmd.Process.Kill()
			ctxDone = nil
		case <-done:
			return exitCode(cmd.ProcessState), nil
		}
	}
}
