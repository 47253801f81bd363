package fetcher

import (
	"sync"

	"cdcheck/internal/data"
)

// Cache memoizes definitions for the lifetime of one run. A nil record is a
// valid entry meaning the service has no data.
type Cache struct {
	data sync.Map
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(key string) (*data.ClearlyDefined, bool) {
	v, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*data.ClearlyDefined), true
}

func (c *Cache) Set(key string, value *data.ClearlyDefined) {
	c.data.Store(key, value)
}

func (c *Cache) Len() int {
	n := 0
	c.data.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
