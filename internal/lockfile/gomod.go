package lockfile

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/mod/modfile"

	"cdcheck/internal/data"
)

// GoModParser parses go.mod files.
type GoModParser struct {
	IncludeIndirect bool
}

func (p *GoModParser) CanParse(filename string) bool {
	return filename == "go.mod"
}

func (p *GoModParser) Parse(path string, content []byte) ([]data.Dependency, error) {
	mod, err := modfile.Parse(path, content, nil)
	if err != nil {
		return nil, err
	}

	var deps []data.Dependency
	for _, req := range mod.Require {
		if req.Indirect && !p.IncludeIndirect {
			continue
		}
		v, err := semver.NewVersion(req.Mod.Version)
		if err != nil {
			return nil, fmt.Errorf("module %s: invalid version %q: %w", req.Mod.Path, req.Mod.Version, err)
		}
		deps = append(deps, data.NewDependency(req.Mod.Path, v, data.EcosystemGo))
	}
	return deps, nil
}
