package jsonapi

// Scope is the request-scoped state of one document assembly: the ids
// referenced so far and the entities already resolved. A Scope belongs to a
// single Assemble call and must never be shared between concurrent calls.
type Scope struct {
	collector *Collector
	cache     *Cache
}

// NewScope creates a scope with an empty collector and cache
func NewScope() *Scope {
	return &Scope{
		collector: NewCollector(),
		cache:     NewCache(),
	}
}

// Collector returns the scope's identifier collector
func (s *Scope) Collector() *Collector {
	return s.collector
}

// Cache returns the scope's entity cache
func (s *Scope) Cache() *Cache {
	return s.cache
}

// child returns a scope with a fresh collector that shares this scope's cache.
// Linked entities are serialized in a child scope so their relationship ids
// never reach the primary collector.
func (s *Scope) child() *Scope {
	return &Scope{
		collector: NewCollector(),
		cache:     s.cache,
	}
}

// Close releases the collected ids and cached entities
func (s *Scope) Close() {
	if s.collector != nil {
		s.collector.Reset()
	}
	s.collector = nil
	s.cache = nil
}
