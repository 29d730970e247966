// Package launcher implements the deepcode and dpcd shims: find the Python
// sources and an interpreter, then hand the terminal over to the agent CLI
// and exit with whatever it exits with.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/deepcode-ai/deepcode/internal/paths"
	"github.com/deepcode-ai/deepcode/internal/proc"
	"github.com/deepcode-ai/deepcode/internal/python"
)

const (
	// SourceEnv points at the directory holding main.py.
	SourceEnv = "DEEPCODE_SRC"
	// EntryScript is the agent CLI entry point inside the sources dir.
	EntryScript = "main.py"
)

// ErrScriptNotFound is returned when no sources dir contains main.py.
var ErrScriptNotFound = errors.New("deepcode sources not found")

// Options configures one shim.
type Options struct {
	// Name is the shim's own name, used in messages.
	Name string
	// DefaultArgs replace an empty argument list.
	DefaultArgs []string
	Home        paths.Home
	Prober      python.Prober
	// Executable overrides os.Executable, for tests.
	Executable string
	Stderr     io.Writer
	Logger     *slog.Logger
	// Forward overrides proc.Forward, for tests.
	Forward func(ctx context.Context, c proc.Command) (int, error)
}

// Run executes the shim and returns the process exit code.
func Run(ctx context.Context, opts Options, args []string) int {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	forward := opts.Forward
	if forward == nil {
		forward = proc.Forward
	}

	env, err := ExtraEnv(opts.Home.EnvPath())
	if err != nil {
		log.Warn("ignoring env file", "path", opts.Home.EnvPath(), "err", err)
	}
	lookup := envLookup(env)

	script, err := resolveScript(opts.Executable, lookup(SourceEnv))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", opts.Name, err)
		fmt.Fprintf(stderr, "Set %s to the directory containing %s, or reinstall with: deepcode-setup install\n", SourceEnv, EntryScript)
		return 1
	}
	log.Debug("resolved script", "path", script)

	prober := opts.Prober
	if prober == nil {
		prober = python.ExecProber{}
	}
	interp, err := python.DiscoverWith(ctx, prober, lookup(python.OverrideEnv))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", opts.Name, err)
		fmt.Fprintln(stderr, "Install Python 3.8 or newer from https://www.python.org/downloads/ and make sure it is on PATH,")
		fmt.Fprintf(stderr, "or set %s to the interpreter to use.\n", python.OverrideEnv)
		return 1
	}
	log.Debug("resolved interpreter", "command", interp.Command, "version", interp.Version.String())

	if len(args) == 0 {
		args = opts.DefaultArgs
	}
	childArgs := append([]string{script}, args...)
	code, err := forward(ctx, proc.Command{Bin: interp.Command, Args: childArgs, Env: env})
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", opts.Name, err)
		return 1
	}
	log.Debug("child exited", "code", code)
	return code
}

// ResolveScript returns the path to main.py. Search order: DEEPCODE_SRC,
// then <exe dir>/src, <exe dir>/../src, <exe dir>/../share/deepcode/src.
func ResolveScript(executable string) (string, error) {
	return resolveScript(executable, os.Getenv(SourceEnv))
}

func resolveScript(executable, srcDir string) (string, error) {
	var dirs []string
	if v := strings.TrimSpace(srcDir); v != "" {
		dirs = append(dirs, v)
	}
	if executable == "" {
		if exe, err := os.Executable(); err == nil {
			executable = exe
		}
	}
	if executable != "" {
		if resolved, err := filepath.EvalSymlinks(executable); err == nil {
			executable = resolved
		}
		base := filepath.Dir(executable)
		dirs = append(dirs,
			filepath.Join(base, "src"),
			filepath.Join(base, "..", "src"),
			filepath.Join(base, "..", "share", "deepcode", "src"),
		)
	}
	for _, d := range dirs {
		p := filepath.Join(d, EntryScript)
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
			return filepath.Clean(p), nil
		}
	}
	return "", fmt.Errorf("%w: no %s in %s", ErrScriptNotFound, EntryScript, strings.Join(dirs, ", "))
}

// envLookup returns the non-empty process value of key, falling back to the
// pairs read from the env file.
func envLookup(pairs []string) func(string) string {
	file := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			file[k] = v
		}
	}
	return func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return file[key]
	}
}

// ExtraEnv reads the dotenv file at path and returns KEY=VALUE pairs for keys
// that are empty or unset in the process environment. A missing file yields
// nothing.
func ExtraEnv(path string) ([]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		if os.Getenv(k) != "" {
			continue
		}
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out, nil
}
