package fetcher

import (
	"golang.org/x/sync/singleflight"

	"cdcheck/internal/data"
)

// Group collapses concurrent lookups of the same coordinates into one request.
type Group struct {
	g singleflight.Group
}

func (g *Group) Do(key string, fn func() (*data.ClearlyDefined, error)) (*data.ClearlyDefined, error, bool) {
	v, err, shared := g.g.Do(key, func() (any, error) {
		return fn()
	})
	cd, _ := v.(*data.ClearlyDefined)
	return cd, err, shared
}
