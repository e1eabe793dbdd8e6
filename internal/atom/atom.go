// Package atom caches the name <-> id mapping of X atoms.
package atom

import "fmt"

// Resolver performs the server round trips behind a cache miss.
type Resolver interface {
	InternAtom(name string) (uint32, error)
	AtomName(id uint32) (string, error)
}

// Cache memoizes atoms in both directions. Every entry is written to both
// maps together, so a name returned by Name always interns back to the
// same id.
//
// A Cache is owned by the reactor goroutine and is not safe for
// concurrent use.
type Cache struct {
	resolver Resolver
	byName   map[string]uint32
	byID     map[uint32]string
}

// NewCache returns an empty cache backed by r.
func NewCache(r Resolver) *Cache {
	return &Cache{
		resolver: r,
		byName:   make(map[string]uint32),
		byID:     make(map[uint32]string),
	}
}

// Insert records a known pair without a round trip, e.g. the predefined
// core atoms.
func (c *Cache) Insert(name string, id uint32) {
	c.byName[name] = id
	c.byID[id] = name
}

// Preload interns every name, stopping at the first failure.
func (c *Cache) Preload(names ...string) error {
	for _, name := range names {
		if _, err := c.Intern(name); err != nil {
			return err
		}
	}
	return nil
}

// Intern returns the id of name, asking the server on a miss.
func (c *Cache) Intern(name string) (uint32, error) {
	if id, ok := c.byName[name]; ok {
		return id, nil
	}
	id, err := c.resolver.InternAtom(name)
	if err != nil {
		return 0, fmt.Errorf("intern atom %q: %w", name, err)
	}
	c.Insert(name, id)
	return id, nil
}

// Name returns the name of id, asking the server on a miss.
func (c *Cache) Name(id uint32) (string, error) {
	if name, ok := c.byID[id]; ok {
		return name, nil
	}
	name, err := c.resolver.AtomName(id)
	if err != nil {
		return "", fmt.Errorf("atom name %d: %w", id, err)
	}
	c.Insert(name, id)
	return name, nil
}

// Len returns the number of cached atoms.
func (c *Cache) Len() int {
	return len(c.byID)
}
