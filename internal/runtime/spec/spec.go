package spec

import (
	"context"
	"io"
)

// Method names one way of installing the Ollama runtime.
type Method string

const (
	MethodWinSetup Method = "winsetup"
	MethodHomebrew Method = "homebrew"
	MethodScript   Method = "script"
)

// Installer installs the runtime on the platforms it supports. Install
// streams installer output to out and never retries.
type Installer interface {
	Name() Method
	Supported(goos string) bool
	Available(ctx context.Context) bool
	Install(ctx context.Context, out io.Writer) error
}
