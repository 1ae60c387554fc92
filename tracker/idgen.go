package tracker

import "sync"

// IDGenerator hands out strictly increasing identifiers starting from 1.
// Each tracker instance owns its own generator so ids are never reused for
// the lifetime of the instance.
type IDGenerator struct {
	id uint64
	sync.Mutex
}

// NewIDGenerator returns a generator whose first id is 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// GetNext returns the next incremental id
func (g *IDGenerator) GetNext() uint64 {
	g.Lock()
	defer g.Unlock()
	g.id++
	return g.id
}

// Last returns the most recently issued id, 0 if none
func (g *IDGenerator) Last() uint64 {
	g.Lock()
	defer g.Unlock()
	return g.id
}
