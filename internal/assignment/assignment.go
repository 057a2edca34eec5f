package assignment

import (
	"sort"
	"sync"
)

// Assignment is one course assignment known to the backend.
type Assignment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// Catalog holds the assignment list fetched from the backend at startup.
// It is safe for concurrent use; a failed fetch simply leaves it empty.
type Catalog struct {
	mu    sync.RWMutex
	items []Assignment
}

// Replace swaps in a freshly fetched assignment list.
func (c *Catalog) Replace(items []Assignment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]Assignment(nil), items...)
}

// Items returns a copy of the catalog.
func (c *Catalog) Items() []Assignment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Assignment(nil), c.items...)
}

// Names returns all assignment names in catalog order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.items))
	for _, a := range c.items {
		names = append(names, a.Name)
	}
	return names
}

// ByName looks an assignment up by its display name.
func (c *Catalog) ByName(name string) (Assignment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.items {
		if a.Name == name {
			return a, true
		}
	}
	return Assignment{}, false
}

// IDFor returns the backend ID for an assignment name. Names missing from
// the catalog (for example after a failed fetch) fall back to the name
// itself so records stay attributable.
func (c *Catalog) IDFor(name string) string {
	if a, ok := c.ByName(name); ok && a.ID != "" {
		return a.ID
	}
	return name
}

// sortedCopy returns names sorted ascending.
func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
