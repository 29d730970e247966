package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/deepcode-ai/deepcode/internal/paths"
)

// Reset copies the current config into the backups directory and writes the
// defaults in its place. It returns the backup path, or "" when there was no
// file to back up.
func Reset(home paths.Home) (string, error) {
	if err := paths.EnsureHome(home); err != nil {
		return "", err
	}
	backup := filepath.Join(home.BackupsDir(), "config-"+time.Now().UTC().Format("20060102t150405")+".yaml")
	ok, err := backupFile(home.ConfigPath(), backup)
	if err != nil {
		return "", err
	}
	if err := Write(home.ConfigPath(), Default()); err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return backup, nil
}

func backupFile(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("backup config: %w", err)
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("backup config: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("backup config: %w", closeErr)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("backup config: %w", err)
	}
	return true, nil
}
