// Package project prepares a working directory for the agent: a local
// .deepcode/ directory with its config, and a .gitignore entry for it.
package project

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/paths"
)

const gitignoreEntry = paths.ProjectDirName + "/"

type InitResult struct {
	ConfigPath       string `json:"configPath"`
	ConfigCreated    bool   `json:"configCreated"`
	GitignoreUpdated bool   `json:"gitignoreUpdated"`
}

// Init creates <dir>/.deepcode/config.yaml if absent and makes sure
// .gitignore lists .deepcode/. Rerunning it changes nothing.
func Init(dir string) (InitResult, error) {
	if strings.TrimSpace(dir) == "" {
		return InitResult{}, errors.New("project dir is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return InitResult{}, fmt.Errorf("project dir: %w", err)
	}
	if !st.IsDir() {
		return InitResult{}, fmt.Errorf("project dir is not a directory: %s", dir)
	}
	p := paths.NewProject(dir)
	if err := os.MkdirAll(p.Root(), 0o755); err != nil {
		return InitResult{}, fmt.Errorf("create %s: %w", p.Root(), err)
	}
	created, err := config.WriteLocal(p.ConfigPath(), config.DefaultLocal())
	if err != nil {
		return InitResult{}, err
	}
	updated, err := ensureGitignore(p.GitignorePath())
	if err != nil {
		return InitResult{}, err
	}
	return InitResult{ConfigPath: p.ConfigPath(), ConfigCreated: created, GitignoreUpdated: updated}, nil
}

func ensureGitignore(path string) (bool, error) {
	present, trailingNewline, err := scanGitignore(path)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("open .gitignore: %w", err)
	}
	defer f.Close()
	block := "\n# DeepCode\n" + gitignoreEntry + "\n"
	if !trailingNewline {
		block = "\n" + block
	}
	if _, err := f.WriteString(block); err != nil {
		return false, fmt.Errorf("write .gitignore: %w", err)
	}
	return true, nil
}

// scanGitignore reports whether the entry is already listed, and whether the
// file ends in a newline (a missing file counts as ending in one).
func scanGitignore(path string) (bool, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, true, nil
		}
		return false, false, fmt.Errorf("read .gitignore: %w", err)
	}
	s := bufio.NewScanner(strings.NewReader(string(b)))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == gitignoreEntry || line == "/"+gitignoreEntry {
			return true, true, nil
		}
	}
	return false, len(b) == 0 || b[len(b)-1] == '\n', nil
}
