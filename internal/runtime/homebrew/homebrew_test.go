package homebrew

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepcode-ai/deepcode/internal/proc"
)

type recordingRunner struct {
	cmds []proc.Command
	err  error
}

func (r *recordingRunner) Run(_ context.Context, c proc.Command) (proc.Result, error) {
	r.cmds = append(r.cmds, c)
	return proc.Result{}, r.err
}

func TestInstallRunsBrew(t *testing.T) {
	r := &recordingRunner{}
	in := &Installer{Runner: r, LookPath: func(string) bool { return true }}
	require.NoError(t, in.Install(context.Background(), &bytes.Buffer{}))
	require.Len(t, r.cmds, 1)
	assert.Equal(t, "brew", r.cmds[0].Bin)
	assert.Equal(t, []string{"install", "ollama"}, r.cmds[0].Args)
}

func TestInstallWithoutBrew(t *testing.T) {
	r := &recordingRunner{}
	in := &Installer{Runner: r, LookPath: func(string) bool { return false }}
	assert.ErrorIs(t, in.Install(context.Background(), &bytes.Buffer{}), ErrNoBrew)
	assert.Empty(t, r.cmds)
}

func TestInstallFailure(t *testing.T) {
	r := &recordingRunner{err: errors.New("brew exited with code 1")}
	in := &Installer{Runner: r, LookPath: func(string) bool { return true }}
	assert.Error(t, in.Install(context.Background(), &bytes.Buffer{}))
	assert.True(t, in.Supported("darwin"))
	assert.False(t, in.Supported("linux"))
}
