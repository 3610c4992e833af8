// Package catalog holds the canonical facility records of one pipeline run,
// keyed by identity key, together with the merge and lookup rules used to fold
// new observations into them.
package catalog

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/facility-watch/detention-cli/internal/model"
)

// ErrDuplicateKey is returned by Insert when the key is already taken.
var ErrDuplicateKey = eris.New("catalog: duplicate key")

// Catalog is an insertion-ordered map of identity key to canonical record.
// It is not safe for concurrent use.
type Catalog struct {
	keys  []string
	items map[string]*model.Facility
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{items: make(map[string]*model.Facility)}
}

// FromSnapshot builds a catalog from a stored snapshot, ordering keys
// lexically.
func FromSnapshot(s *model.Snapshot) *Catalog {
	c := New()
	if s == nil {
		return c
	}
	for _, k := range s.Keys() {
		c.keys = append(c.keys, k)
		c.items[k] = s.Facilities[k]
	}
	return c
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.keys) }

// Keys returns keys in insertion order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Lookup returns the record stored under key.
func (c *Catalog) Lookup(key string) (*model.Facility, bool) {
	f, ok := c.items[key]
	return f, ok
}

// Insert adds a new record. The key must not exist.
func (c *Catalog) Insert(key string, f *model.Facility) error {
	if _, ok := c.items[key]; ok {
		return eris.Wrapf(ErrDuplicateKey, "key %q", key)
	}
	c.keys = append(c.keys, key)
	c.items[key] = f
	return nil
}

// Put stores f under key, replacing any existing record in place.
func (c *Catalog) Put(key string, f *model.Facility) {
	if _, ok := c.items[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.items[key] = f
}

// Each calls fn for every record in insertion order.
func (c *Catalog) Each(fn func(key string, f *model.Facility)) {
	for _, k := range c.keys {
		fn(k, c.items[k])
	}
}

// FindExact returns the first record whose name, region and locality all
// equal the given values, ignoring case.
func (c *Catalog) FindExact(name, region, locality string) (string, bool) {
	for _, k := range c.keys {
		f := c.items[k]
		if strings.EqualFold(f.Name, name) &&
			strings.EqualFold(f.Address.AdministrativeArea, region) &&
			strings.EqualFold(f.Address.Locality, locality) {
			return k, true
		}
	}
	return "", false
}

// Snapshot copies the records into a snapshot keyed the same way.
func (c *Catalog) Snapshot() *model.Snapshot {
	s := model.NewSnapshot()
	for _, k := range c.keys {
		s.Facilities[k] = c.items[k]
	}
	return s
}

// SortedKeys returns keys in lexical order.
func (c *Catalog) SortedKeys() []string {
	out := c.Keys()
	sort.Strings(out)
	return out
}
