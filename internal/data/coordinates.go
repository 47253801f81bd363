package data

import (
	"net/url"
	"strings"
)

// Coordinates address a component in ClearlyDefined:
// type/provider/namespace/name/revision.
type Coordinates struct {
	Type      string
	Provider  string
	Namespace string
	Name      string
	Revision  string
}

// Path returns the escaped coordinate path used in API and web URLs.
func (c Coordinates) Path() string {
	ns := c.Namespace
	if ns == "" {
		ns = "-"
	}
	parts := []string{c.Type, c.Provider, ns, c.Name, c.Revision}
	for i, p := range parts {
		if p != "-" {
			parts[i] = url.PathEscape(p)
		}
	}
	return strings.Join(parts, "/")
}

func (c Coordinates) String() string {
	return c.Path()
}

// Coordinates derives the ClearlyDefined coordinates for d.
//
// Go module paths are split at the last slash; the prefix becomes the
// namespace, escaped so it stays a single path segment.
func (d Dependency) Coordinates() Coordinates {
	switch d.Ecosystem {
	case EcosystemGo:
		ns, name := "-", d.Name
		if i := strings.LastIndex(d.Name, "/"); i > 0 {
			ns, name = d.Name[:i], d.Name[i+1:]
		}
		return Coordinates{Type: "go", Provider: "golang", Namespace: ns, Name: name, Revision: d.VersionString()}
	default:
		return Coordinates{Type: "crate", Provider: "cratesio", Namespace: "-", Name: d.Name, Revision: d.VersionString()}
	}
}
