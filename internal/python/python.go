// Package python locates a usable Python interpreter and drives pip.
package python

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	goruntime "runtime"
	"strconv"
	"strings"
	"time"

	"github.com/deepcode-ai/deepcode/internal/proc"
)

// OverrideEnv names an interpreter to try before the platform candidates.
const OverrideEnv = "DEEPCODE_PYTHON"

const (
	MinMajor = 3
	MinMinor = 8
)

// ErrNotFound is returned when no candidate passes the version probe.
var ErrNotFound = errors.New("python 3.8+ interpreter not found")

var versionRe = regexp.MustCompile(`Python\s+(\d+)\.(\d+)(?:\.(\d+))?`)

type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v >= major.minor.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// ParseVersion extracts the version from `python --version` output.
func ParseVersion(s string) (Version, error) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("unrecognised version output %q", strings.TrimSpace(s))
	}
	var v Version
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// Interpreter is the discovered command. Version is zero when the platform
// does not parse it (Windows).
type Interpreter struct {
	Command string  `json:"command"`
	Version Version `json:"version"`
	Raw     string  `json:"raw"`
}

// Candidates returns the probe order for goos.
func Candidates(goos string) []string {
	if goos == "windows" {
		return []string{"python", "py", "python3"}
	}
	return []string{"python3", "python"}
}

// Prober runs the version probe for one candidate and returns its output.
type Prober interface {
	Probe(ctx context.Context, command string) (string, error)
}

// ExecProber probes by running `<command> --version`.
type ExecProber struct {
	Runner  proc.Runner
	Timeout time.Duration
}

func (p ExecProber) Probe(ctx context.Context, command string) (string, error) {
	runner := p.Runner
	if runner == nil {
		runner = proc.Exec{}
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := runner.Run(ctx, proc.Command{Bin: command, Args: []string{"--version"}})
	// Python 2 prints its version on stderr.
	out := strings.TrimSpace(res.Stdout + "\n" + res.Stderr)
	return out, err
}

// Find probes candidates in order and returns the first acceptable one. On
// Windows a successful probe is enough; elsewhere the reported version must
// be at least 3.8. When every candidate fails, ErrNotFound is returned.
func Find(ctx context.Context, p Prober, goos string, candidates []string) (Interpreter, error) {
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		out, err := p.Probe(ctx, c)
		if err != nil {
			continue
		}
		if goos == "windows" {
			v, _ := ParseVersion(out)
			return Interpreter{Command: c, Version: v, Raw: out}, nil
		}
		v, err := ParseVersion(out)
		if err != nil || !v.AtLeast(MinMajor, MinMinor) {
			continue
		}
		return Interpreter{Command: c, Version: v, Raw: out}, nil
	}
	return Interpreter{}, ErrNotFound
}

// Discover runs Find for the host platform, trying DEEPCODE_PYTHON first.
func Discover(ctx context.Context, p Prober) (Interpreter, error) {
	return DiscoverWith(ctx, p, os.Getenv(OverrideEnv))
}

// DiscoverWith is Discover with an explicit override command.
func DiscoverWith(ctx context.Context, p Prober, override string) (Interpreter, error) {
	candidates := Candidates(goruntime.GOOS)
	if v := strings.TrimSpace(override); v != "" {
		candidates = append([]string{v}, candidates...)
	}
	return Find(ctx, p, goruntime.GOOS, candidates)
}
