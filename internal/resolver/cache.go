package resolver

// Cache memoizes lookups for the lifetime of one request. Each request
// gets a fresh instance via NewResolution and drops it when handling
// ends, so values can never leak between requests. No locking: one
// request is resolved within a single logical flow.
type Cache struct {
	entries map[string]any
}

// NewCache creates an empty request-scoped cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Memoize returns the stored value for key, invoking produce only on
// the first call. Errors are passed through without being cached, so a
// failed or abandoned lookup is never served to a later caller.
func (c *Cache) Memoize(key string, produce func() (any, error)) (any, error) {
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	v, err := produce()
	if err != nil {
		return nil, err
	}
	c.entries[key] = v
	return v, nil
}
