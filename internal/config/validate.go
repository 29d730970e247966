package config

import (
	"fmt"
	"sort"
	"strings"
)

// Problem is one invalid field.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string { return p.Field + ": " + p.Message }

// Validate checks the ranges the agent relies on. Problems are sorted by field.
func Validate(cfg Config) []Problem {
	var out []Problem
	add := func(field, msg string) {
		out = append(out, Problem{Field: field, Message: msg})
	}

	if !strings.HasPrefix(cfg.Ollama.Host, "http") {
		add("ollama.host", "must be a valid HTTP URL")
	}
	if strings.TrimSpace(cfg.Ollama.Model) == "" {
		add("ollama.model", "must not be empty")
	}
	if cfg.Ollama.Timeout < 1 {
		add("ollama.timeout", "must be a positive integer")
	}
	if cfg.Ollama.Temperature < 0 || cfg.Ollama.Temperature > 2 {
		add("ollama.temperature", "must be between 0 and 2")
	}
	if cfg.Ollama.TopP < 0 || cfg.Ollama.TopP > 1 {
		add("ollama.top_p", "must be between 0 and 1")
	}
	if cfg.Ollama.MaxTokens < 100 {
		add("ollama.max_tokens", "must be an integer >= 100")
	}
	if cfg.Agent.CacheTTLMinutes < 1 {
		add("agent.cache_ttl_minutes", "must be a positive integer")
	}
	if cfg.Agent.MaxContextLength < 1000 {
		add("agent.max_context_length", "must be an integer >= 1000")
	}
	if cfg.Analyzer.CacheTTLMinutes < 1 {
		add("analyzer.cache_ttl_minutes", "must be a positive integer")
	}
	if cfg.Analyzer.MaxComplexityThreshold < 1 {
		add("analyzer.max_complexity_threshold", "must be a positive integer")
	}
	if strings.TrimSpace(cfg.Project.MaxFileSize) == "" {
		add("project.max_file_size", `must be a string like "1MB"`)
	}
	if cfg.Project.ContextLines < 1 {
		add("project.context_lines", "must be a positive integer")
	}
	if cfg.Performance.MemoryLimitMB < 64 {
		add("performance.memory_limit_mb", "must be an integer >= 64")
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// ValidationError bundles problems into a single error.
func ValidationError(problems []Problem) error {
	if len(problems) == 0 {
		return nil
	}
	parts := make([]string, 0, len(problems))
	for _, p := range problems {
		parts = append(parts, p.String())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
}
