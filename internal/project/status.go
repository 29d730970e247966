package project

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deepcode-ai/deepcode/internal/config"
	"github.com/deepcode-ai/deepcode/internal/paths"
)

// Status summarises a project directory the way the agent's status view does.
type Status struct {
	Dir         string         `json:"dir"`
	Initialized bool           `json:"initialized"`
	Files       int            `json:"files"`
	ByExt       map[string]int `json:"byExt"`
}

// TopExtensions returns up to n extensions ordered by file count.
func (s Status) TopExtensions(n int) []string {
	exts := make([]string, 0, len(s.ByExt))
	for e := range s.ByExt {
		exts = append(exts, e)
	}
	sort.Slice(exts, func(i, j int) bool {
		if s.ByExt[exts[i]] != s.ByExt[exts[j]] {
			return s.ByExt[exts[i]] > s.ByExt[exts[j]]
		}
		return exts[i] < exts[j]
	})
	if len(exts) > n {
		exts = exts[:n]
	}
	return exts
}

// Inspect walks dir, skipping anything matched by the effective ignore
// patterns, and counts files by extension.
func Inspect(dir string, cfg config.Config) (Status, error) {
	p := paths.NewProject(dir)
	st := Status{Dir: p.Dir(), Initialized: p.Exists(), ByExt: map[string]int{}}
	patterns := normalizePatterns(cfg.Project.IgnorePatterns)
	err := filepath.WalkDir(p.Dir(), func(fp string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(p.Dir(), fp)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if ignored(filepath.ToSlash(rel), d.Name(), patterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		st.Files++
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == "" {
			ext = "(none)"
		}
		st.ByExt[ext]++
		return nil
	})
	if err != nil {
		return Status{}, err
	}
	return st, nil
}

func normalizePatterns(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = strings.TrimPrefix(p, "./")
		p = strings.TrimSuffix(p, "/")
		out = append(out, filepath.ToSlash(p))
	}
	return out
}

// ignored matches a pattern against the relative path or the base name, so
// "node_modules" and "*.pyc" apply at any depth.
func ignored(rel, name string, patterns []string) bool {
	for _, pat := range patterns {
		if strings.HasSuffix(pat, "/**") {
			prefix := strings.TrimSuffix(pat, "/**")
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if strings.ContainsAny(pat, "*?[") {
			if ok, _ := path.Match(pat, name); ok {
				return true
			}
			if ok, _ := path.Match(pat, rel); ok {
				return true
			}
			continue
		}
		if rel == pat || name == pat {
			return true
		}
	}
	return false
}
