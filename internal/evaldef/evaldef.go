// Package evaldef loads evaluation definitions: a named dataset paired with
// the grader configuration used to score it.
package evaldef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stellarlinkco/model-eval/internal/grader"
)

// Definition describes one evaluation: where its samples live and how
// completions are scored.
type Definition struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Dataset     string      `yaml:"dataset" json:"dataset"`
	Grader      grader.Spec `yaml:"grader" json:"grader"`
}

// LoadFromFile loads and validates a definition from a YAML file. A relative
// dataset path is resolved against the file's directory.
func LoadFromFile(path string) (*Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("evaldef: read %q: %w", path, err)
	}

	var d Definition
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("evaldef: parse %q: %w", path, err)
	}
	if err := Validate(&d); err != nil {
		return nil, fmt.Errorf("evaldef: validate %q: %w", path, err)
	}

	if !filepath.IsAbs(d.Dataset) {
		d.Dataset = filepath.Join(filepath.Dir(path), d.Dataset)
	}
	return &d, nil
}

// LoadFromDir loads all definitions from a directory, sorted by file name.
func LoadFromDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("evaldef: read dir %q: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	out := make([]*Definition, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		d, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[d.Name]; ok {
			return nil, fmt.Errorf("evaldef: duplicate eval %q in %q and %q", d.Name, prev, path)
		}
		seen[d.Name] = path
		out = append(out, d)
	}
	return out, nil
}

// Find returns the definition with the given name from dir.
func Find(dir, name string) (*Definition, error) {
	defs, err := LoadFromDir(dir)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		if d.Name == name {
			return d, nil
		}
	}

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return nil, fmt.Errorf("evaldef: unknown eval %q (available: %s)", name, strings.Join(names, ", "))
}

// Validate checks a definition for consistency.
func Validate(d *Definition) error {
	if d == nil {
		return fmt.Errorf("nil definition")
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("missing name")
	}
	if strings.TrimSpace(d.Dataset) == "" {
		return fmt.Errorf("eval %q: missing dataset", d.Name)
	}
	if err := d.Grader.Validate(); err != nil {
		return fmt.Errorf("eval %q: %w", d.Name, err)
	}
	return nil
}
