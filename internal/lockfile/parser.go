package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cdcheck/internal/data"
)

// Parser turns one kind of lockfile into dependencies.
type Parser interface {
	// CanParse reports whether this parser handles the given base file name.
	CanParse(filename string) bool

	// Parse extracts dependencies in file order.
	Parse(path string, content []byte) ([]data.Dependency, error)
}

// Parsers returns every supported parser.
func Parsers() []Parser {
	return []Parser{
		&CargoLockParser{},
		&GoModParser{IncludeIndirect: true},
	}
}

// ParserFor picks the parser for path by its base name.
func ParserFor(path string) (Parser, error) {
	name := filepath.Base(path)
	for _, p := range Parsers() {
		if p.CanParse(name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unsupported input file %q (expected Cargo.lock or go.mod)", name)
}

// Load reads path and returns its dependencies minus any whose name is in
// exclude. Order follows the file.
func Load(path string, exclude []string) ([]data.Dependency, error) {
	p, err := ParserFor(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lockfile: %w", err)
	}

	deps, err := p.Parse(path, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return Exclude(deps, exclude), nil
}

// Exclude drops dependencies by name, keeping order.
func Exclude(deps []data.Dependency, names []string) []data.Dependency {
	if len(names) == 0 {
		return deps
	}
	return slices.DeleteFunc(slices.Clone(deps), func(d data.Dependency) bool {
		return slices.Contains(names, d.Name)
	})
}

// ResolveInput joins a relative input path onto base. An empty base falls
// back to the working directory.
func ResolveInput(input, base string) (string, error) {
	if filepath.IsAbs(input) {
		return input, nil
	}
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve input: %w", err)
		}
		base = wd
	}
	return filepath.Join(base, input), nil
}
