package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const header = "# DeepCode configuration\n# Created by deepcode-setup. Edit freely; this file is never overwritten on reinstall.\n"

// EnsureDefault writes the default config to path unless a file already
// exists there. An existing file is left untouched. The returned bool reports
// whether a new file was created.
func EnsureDefault(path string) (bool, error) {
	content, err := Render(Default())
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// Write renders cfg to path, creating parent directories. The file is written
// to a temp sibling first and renamed into place.
func Write(path string, cfg Config) error {
	b, err := Render(cfg)
	if err != nil {
		return err
	}
	return writeAtomic(path, b)
}

// Render returns the exact bytes Write would put on disk.
func Render(cfg Config) ([]byte, error) {
	body, err := Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte(header), body...), nil
}

// WriteLocal writes a project-local config if absent.
func WriteLocal(path string, l Local) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	body, err := Marshal(l)
	if err != nil {
		return false, err
	}
	content := append([]byte("# DeepCode local configuration\n"), body...)
	if err := writeAtomic(path, content); err != nil {
		return false, err
	}
	return true, nil
}

func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
