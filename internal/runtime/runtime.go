// Package runtime installs and starts the Ollama model server.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	goruntime "runtime"

	"github.com/deepcode-ai/deepcode/internal/download"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/runtime/homebrew"
	"github.com/deepcode-ai/deepcode/internal/runtime/script"
	"github.com/deepcode-ai/deepcode/internal/runtime/spec"
	"github.com/deepcode-ai/deepcode/internal/runtime/winsetup"
)

// Binary is the runtime executable looked up on PATH.
const Binary = "ollama"

// ManualURL is printed when automatic installation is not possible.
const ManualURL = "https://ollama.com/download"

var ErrUnsupportedPlatform = errors.New("no automatic ollama installer for this platform")

// ErrInstallerUnavailable is returned when the platform's installer lacks a
// prerequisite (brew, sh) on this host.
var ErrInstallerUnavailable = errors.New("ollama installer prerequisites missing")

// Outcome reports what Ensure did.
type Outcome struct {
	AlreadyInstalled bool        `json:"already_installed"`
	Method           spec.Method `json:"method,omitempty"`
}

type Resolver struct {
	installers []spec.Installer
	goos       string
	lookPath   func(string) bool
}

// NewResolver wires the built-in installers for the host platform.
func NewResolver(dl download.Client, r proc.Runner) *Resolver {
	return NewResolverFor(goruntime.GOOS, proc.Exists,
		winsetup.New(dl, r),
		homebrew.New(r),
		script.New(dl, r),
	)
}

// NewResolverFor builds a resolver with explicit platform and installers.
func NewResolverFor(goos string, lookPath func(string) bool, installers ...spec.Installer) *Resolver {
	if lookPath == nil {
		lookPath = proc.Exists
	}
	return &Resolver{installers: installers, goos: goos, lookPath: lookPath}
}

// Installed reports whether the runtime binary is on PATH.
func (r *Resolver) Installed() bool { return r.lookPath(Binary) }

// Select returns the single installer for the resolver's platform.
func (r *Resolver) Select() (spec.Installer, error) {
	for _, in := range r.installers {
		if in.Supported(r.goos) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w (%s); install manually from %s", ErrUnsupportedPlatform, r.goos, ManualURL)
}

// Ensure installs the runtime unless it is already on PATH. It makes one
// attempt and leaves any partial install in place.
func (r *Resolver) Ensure(ctx context.Context, out io.Writer) (Outcome, error) {
	if out == nil {
		out = io.Discard
	}
	if r.Installed() {
		return Outcome{AlreadyInstalled: true}, nil
	}
	in, err := r.Select()
	if err != nil {
		return Outcome{}, err
	}
	if !in.Available(ctx) {
		return Outcome{Method: in.Name()}, fmt.Errorf("%w: %s; install manually from %s", ErrInstallerUnavailable, in.Name(), ManualURL)
	}
	if err := in.Install(ctx, out); err != nil {
		return Outcome{Method: in.Name()}, fmt.Errorf("install ollama via %s: %w", in.Name(), err)
	}
	return Outcome{Method: in.Name()}, nil
}
