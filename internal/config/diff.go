package config

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff from the defaults to the file at path. An empty
// string means the file matches the defaults exactly.
func Diff(path string) (string, error) {
	current, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}
	defaults, err := Render(Default())
	if err != nil {
		return "", err
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(defaults)),
		B:        difflib.SplitLines(string(current)),
		FromFile: "defaults",
		ToFile:   path,
		Context:  2,
	}
	out, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "", fmt.Errorf("diff config: %w", err)
	}
	return out, nil
}
