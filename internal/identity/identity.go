// Package identity maps numeric owner and group ids to names, caching every
// answer so each id is looked up at most once per run.
package identity

import (
	"os/user"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of cached ids.
const DefaultCacheSize = 1024

// Resolver turns an id into a display name.
type Resolver interface {
	Name(id uint32) string
}

// LookupFunc resolves an id string to a name.
type LookupFunc func(id string) (string, error)

// Cache is a Resolver backed by an LRU cache in front of a LookupFunc.
// Ids the lookup cannot resolve are rendered as their decimal value.
type Cache struct {
	lookup LookupFunc
	names  *lru.Cache[uint32, string]
}

// New creates a Cache of the given size around lookup.
func New(size int, lookup LookupFunc) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	names, err := lru.New[uint32, string](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Cache{lookup: lookup, names: names}
}

// NewOwners resolves user ids through the system account database.
func NewOwners(size int) *Cache {
	return New(size, lookupUser)
}

// NewGroups resolves group ids through the system group database.
func NewGroups(size int) *Cache {
	return New(size, lookupGroup)
}

// Name returns the cached or freshly looked-up name for id.
func (c *Cache) Name(id uint32) string {
	if name, ok := c.names.Get(id); ok {
		return name
	}
	key := strconv.FormatUint(uint64(id), 10)
	name, err := c.lookup(key)
	if err != nil || name == "" {
		name = key
	}
	c.names.Add(id, name)
	return name
}

// Len reports the number of cached ids.
func (c *Cache) Len() int {
	return c.names.Len()
}

func lookupUser(id string) (string, error) {
	u, err := user.LookupId(id)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func lookupGroup(id string) (string, error) {
	g, err := user.LookupGroupId(id)
	if err != nil {
		return "", err
	}
	return g.Name, nil
}
