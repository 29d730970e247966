package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/deepcode-ai/deepcode/internal/paths"
)

// Load returns the effective configuration: defaults, then the per-user file,
// then the project's .deepcode/config.yaml. Missing files are skipped.
func Load(home paths.Home, project paths.Project) (Config, error) {
	cfg := Default()
	if exists(home.ConfigPath()) {
		parsed, err := Parse(home.ConfigPath())
		if err != nil {
			return Config{}, err
		}
		cfg = parsed
	}
	if project.Dir() == "" || !exists(project.ConfigPath()) {
		return cfg, nil
	}
	local, err := ParseLocal(project.ConfigPath())
	if err != nil {
		return Config{}, fmt.Errorf("project config: %w", err)
	}
	return ApplyLocal(cfg, local), nil
}

// ApplyLocal overlays a project's local settings onto cfg. Local ignore
// patterns are appended after the global ones with duplicates dropped.
func ApplyLocal(cfg Config, l Local) Config {
	if l.Project.Name != "" {
		cfg.Project.Name = l.Project.Name
	}
	if l.Project.Description != "" {
		cfg.Project.Description = l.Project.Description
	}
	if l.Project.Language != "" {
		cfg.Project.Language = l.Project.Language
	}
	seen := make(map[string]struct{}, len(cfg.Project.IgnorePatterns)+len(l.IgnorePatterns))
	merged := make([]string, 0, len(cfg.Project.IgnorePatterns)+len(l.IgnorePatterns))
	for _, list := range [][]string{cfg.Project.IgnorePatterns, l.IgnorePatterns} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			merged = append(merged, p)
		}
	}
	cfg.Project.IgnorePatterns = merged
	return cfg
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
