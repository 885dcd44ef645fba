package jsonapi

import "sort"

type idSet map[string]struct{}

func (s idSet) sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Collector accumulates the related ids referenced while serializing one
// document, keyed both by relation type and by relationship name.
type Collector struct {
	byType map[string]idSet
	byName map[string]idSet
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		byType: make(map[string]idSet),
		byName: make(map[string]idSet),
	}
}

// Collect unions ids into the sets of fieldName and relationType.
// Collecting no ids records nothing.
func (c *Collector) Collect(ids []string, fieldName, relationType string) {
	if len(ids) == 0 {
		return
	}

	byType, ok := c.byType[relationType]
	if !ok {
		byType = make(idSet)
		c.byType[relationType] = byType
	}
	byName, ok := c.byName[fieldName]
	if !ok {
		byName = make(idSet)
		c.byName[fieldName] = byName
	}

	for _, id := range ids {
		byType[id] = struct{}{}
		byName[id] = struct{}{}
	}
}

// IDsByType returns the sorted ids collected for a relation type
func (c *Collector) IDsByType(relationType string) []string {
	return c.byType[relationType].sorted()
}

// IDsByName returns the sorted ids collected for a relationship name
func (c *Collector) IDsByName(fieldName string) []string {
	return c.byName[fieldName].sorted()
}

// Names returns the sorted relationship names that referenced at least one id
func (c *Collector) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns the sorted relation types that referenced at least one id
func (c *Collector) Types() []string {
	types := make([]string, 0, len(c.byType))
	for typ := range c.byType {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Empty reports whether nothing was collected
func (c *Collector) Empty() bool {
	return len(c.byType) == 0
}

// Reset discards everything collected so far
func (c *Collector) Reset() {
	c.byType = make(map[string]idSet)
	c.byName = make(map[string]idSet)
}
