package runtime

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/deepcode-ai/deepcode/internal/download"
	"github.com/deepcode-ai/deepcode/internal/ollama"
	"github.com/deepcode-ai/deepcode/internal/proc"
)

const (
	DefaultStartupDelay = 3 * time.Second
	DefaultPollAttempts = 10
	DefaultPollInterval = 2 * time.Second
)

// Service starts the model server and pulls models into it.
type Service struct {
	Client *ollama.Client
	// Spawn starts a detached process; defaults to proc.Start.
	Spawn        func(bin string, args ...string) (int, error)
	StartupDelay time.Duration
	Attempts     int
	Interval     time.Duration
	Out          io.Writer
}

func NewService(c *ollama.Client, out io.Writer) *Service {
	return &Service{
		Client:       c,
		Spawn:        proc.Start,
		StartupDelay: DefaultStartupDelay,
		Attempts:     DefaultPollAttempts,
		Interval:     DefaultPollInterval,
		Out:          out,
	}
}

// Start launches `ollama serve` unless the server already answers. It
// returns true when it spawned a process.
func (s *Service) Start(ctx context.Context) (bool, error) {
	if s.Client.Healthy(ctx) {
		return false, nil
	}
	spawn := s.Spawn
	if spawn == nil {
		spawn = proc.Start
	}
	pid, err := spawn(Binary, "serve")
	if err != nil {
		return false, err
	}
	fmt.Fprintf(s.out(), "Started ollama serve (pid %d)\n", pid)

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-time.After(s.StartupDelay):
	}
	if err := s.Client.WaitHealthy(ctx, s.Attempts, s.Interval); err != nil {
		return true, err
	}
	return true, nil
}

// Pull fetches model unless a local model already matches it. It returns
// true when a pull happened.
func (s *Service) Pull(ctx context.Context, model string) (bool, error) {
	have, err := s.Client.HasModel(ctx, model)
	if err != nil {
		return false, fmt.Errorf("list models: %w", err)
	}
	if have {
		return false, nil
	}
	fmt.Fprintf(s.out(), "Pulling %s (this may take a while)\n", model)
	var lastStatus string
	var lastPct int64 = -1
	err = s.Client.Pull(ctx, model, func(st ollama.PullStatus) {
		if st.Total > 0 {
			pct := st.Completed * 100 / st.Total
			if st.Status == lastStatus && lastPct >= 0 && pct/10 == lastPct/10 {
				return
			}
			lastStatus, lastPct = st.Status, pct
			fmt.Fprintf(s.out(), "  %s %d%% (%s)\n", st.Status, pct, download.Describe(st.Completed, st.Total))
			return
		}
		if st.Status != lastStatus {
			lastStatus, lastPct = st.Status, -1
			fmt.Fprintf(s.out(), "  %s\n", st.Status)
		}
	})
	if err != nil {
		return false, fmt.Errorf("pull %s: %w", model, err)
	}
	return true, nil
}

func (s *Service) out() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}
