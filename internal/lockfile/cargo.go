package lockfile

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"cdcheck/internal/data"
)

// CargoLockParser parses Cargo.lock files (any lockfile version).
type CargoLockParser struct{}

func (p *CargoLockParser) CanParse(filename string) bool {
	return filename == "Cargo.lock"
}

type cargoLock struct {
	Version  int `toml:"version"`
	Packages []struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Source  string `toml:"source"`
	} `toml:"package"`
}

// Parse returns every [[package]] entry, workspace members included.
func (p *CargoLockParser) Parse(path string, content []byte) ([]data.Dependency, error) {
	var lock cargoLock
	if _, err := toml.Decode(string(content), &lock); err != nil {
		return nil, err
	}

	deps := make([]data.Dependency, 0, len(lock.Packages))
	for _, pkg := range lock.Packages {
		if pkg.Name == "" {
			return nil, fmt.Errorf("package entry without a name")
		}
		v, err := semver.StrictNewVersion(pkg.Version)
		if err != nil {
			return nil, fmt.Errorf("package %s: invalid version %q: %w", pkg.Name, pkg.Version, err)
		}
		deps = append(deps, data.NewDependency(pkg.Name, v, data.EcosystemCargo))
	}
	return deps, nil
}
