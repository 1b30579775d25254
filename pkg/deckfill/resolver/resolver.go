// Package resolver maps logical input roles to files in the input directory.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"deckfill/pkg/deckfill/mapping"
	"deckfill/pkg/deckfill/models"
)

// Resolver matches role specs against the files of one directory. The
// directory listing is taken once at construction; a run never re-scans.
type Resolver struct {
	dir   string
	names []string
	log   *zap.Logger
}

// New lists dir and returns a resolver over its regular files.
func New(dir string, log *zap.Logger) (*Resolver, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input directory %s: %w", dir, models.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return &Resolver{dir: dir, names: names, log: log}, nil
}

// Resolve returns the path for one input role. Required roles with no match
// fail with a ResolveError; optional roles return ok=false with a warning.
// When several files match, the lexically first wins so runs stay
// deterministic.
func (r *Resolver) Resolve(spec mapping.InputSpec) (string, bool, error) {
	matches, err := r.match(spec)
	if err != nil {
		return "", false, err
	}
	if len(matches) == 0 {
		if spec.Required {
			return "", false, &models.ResolveError{Role: spec.Role, Dir: r.dir}
		}
		r.log.Warn("optional input absent",
			zap.String("role", spec.Role),
			zap.String("pattern", spec.Pattern))
		return "", false, nil
	}
	if len(matches) > 1 {
		r.log.Warn("ambiguous input match, using first",
			zap.String("role", spec.Role),
			zap.Strings("candidates", matches))
	}
	return filepath.Join(r.dir, matches[0]), true, nil
}

// ResolveAll resolves every input role of a mapping, keyed by role.
// Optional roles without a match are simply absent from the result.
func (r *Resolver) ResolveAll(m *mapping.Mapping) (map[string]string, error) {
	paths := make(map[string]string, len(m.Inputs))
	for _, spec := range m.Inputs {
		path, ok, err := r.Resolve(spec)
		if err != nil {
			return nil, err
		}
		if ok {
			paths[spec.Role] = path
		}
	}
	return paths, nil
}

func (r *Resolver) match(spec mapping.InputSpec) ([]string, error) {
	var matches []string
	switch spec.Match {
	case mapping.MatchExact:
		for _, name := range r.names {
			if name == spec.Pattern {
				matches = append(matches, name)
			}
		}
	case mapping.MatchSubstring:
		needle := strings.ToLower(spec.Pattern)
		for _, name := range r.names {
			if strings.Contains(strings.ToLower(name), needle) {
				matches = append(matches, name)
			}
		}
	case mapping.MatchRegex:
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, fmt.Errorf("role %q: bad pattern: %w", spec.Role, err)
		}
		for _, name := range r.names {
			if re.MatchString(name) {
				matches = append(matches, name)
			}
		}
	default:
		return nil, fmt.Errorf("role %q: unknown match strategy %q", spec.Role, spec.Match)
	}
	return matches, nil
}
