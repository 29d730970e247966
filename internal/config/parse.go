package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Parse reads the YAML file at path over the defaults. Keys missing from the
// file keep their default values; lists in the file replace the default list.
func Parse(path string) (Config, error) {
	cfg := Default()
	if err := decodeFileInto(path, &cfg, false); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseStrict is Parse with unknown keys rejected.
func ParseStrict(path string) (Config, error) {
	cfg := Default()
	if err := decodeFileInto(path, &cfg, true); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseLocal reads a project's .deepcode/config.yaml.
func ParseLocal(path string) (Local, error) {
	var l Local
	if err := decodeFileInto(path, &l, false); err != nil {
		return Local{}, err
	}
	return l, nil
}

func decodeFileInto(path string, out any, strict bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(strict)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse yaml (%s): %w", filepath.Base(path), err)
	}
	return nil
}

// Marshal renders cfg as YAML with two-space indentation.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
