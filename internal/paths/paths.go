// Package paths encapsulates the on-disk layout used by the launcher and the
// installer: the per-user home (~/.conflict-deepcode) and the per-project
// .deepcode/ directory. Constructors perform no I/O.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// HomeDirName is the per-user directory under the user's home.
	HomeDirName = ".conflict-deepcode"
	// ProjectDirName is the per-project override directory.
	ProjectDirName = ".deepcode"

	// HomeEnv overrides the per-user directory location.
	HomeEnv = "DEEPCODE_HOME"
)

// Home resolves paths inside the per-user directory.
type Home struct {
	root string
}

// NewHome creates a Home rooted at root. The path is made absolute.
func NewHome(root string) Home {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return Home{root: abs}
}

// DefaultHome returns the Home from DEEPCODE_HOME, falling back to
// ~/.conflict-deepcode.
func DefaultHome() (Home, error) {
	if v := os.Getenv(HomeEnv); v != "" {
		return NewHome(v), nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return Home{}, fmt.Errorf("resolve user home: %w", err)
	}
	return NewHome(filepath.Join(userHome, HomeDirName)), nil
}

func (h Home) Root() string { return h.root }

// ConfigPath is the YAML config read by the agent CLI.
func (h Home) ConfigPath() string { return filepath.Join(h.root, "config.yaml") }

// BackupsDir holds file backups taken by the agent before edits.
func (h Home) BackupsDir() string { return filepath.Join(h.root, "backups") }

// StateDBPath is the sqlite install history.
func (h Home) StateDBPath() string { return filepath.Join(h.root, "state.db") }

// InstallsDir holds per-install event logs.
func (h Home) InstallsDir() string { return filepath.Join(h.root, "installs") }

// EventsPath returns the JSONL event log for one install run.
func (h Home) EventsPath(installID string) string {
	return filepath.Join(h.InstallsDir(), installID, "events.jsonl")
}

// EnvPath is the dotenv file with launcher overrides.
func (h Home) EnvPath() string { return filepath.Join(h.root, "deepcode.env") }

// EnsureHome creates the root and backups directories. Safe to call repeatedly.
func EnsureHome(h Home) error {
	if err := os.MkdirAll(h.BackupsDir(), 0o755); err != nil {
		return fmt.Errorf("paths: create %s: %w", h.BackupsDir(), err)
	}
	return nil
}

// Project resolves paths inside a project's .deepcode/ directory.
type Project struct {
	dir string
}

// NewProject creates a Project for the given project directory (not the
// .deepcode/ directory itself).
func NewProject(dir string) Project {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return Project{dir: abs}
}

func (p Project) Dir() string { return p.dir }

// Root returns <dir>/.deepcode.
func (p Project) Root() string { return filepath.Join(p.dir, ProjectDirName) }

// ConfigPath returns <dir>/.deepcode/config.yaml.
func (p Project) ConfigPath() string { return filepath.Join(p.Root(), "config.yaml") }

// GitignorePath returns the project's top-level .gitignore.
func (p Project) GitignorePath() string { return filepath.Join(p.dir, ".gitignore") }

// Exists reports whether <dir>/.deepcode exists.
func (p Project) Exists() bool {
	st, err := os.Stat(p.Root())
	return err == nil && st.IsDir()
}
