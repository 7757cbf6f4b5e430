package store

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces run ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7. Panics if the random source
// fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined ids, for deterministic tests.
// It panics once the ids are exhausted.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("store: FixedGenerator exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SetIDGenerator replaces the run id generator.
func (s *Store) SetIDGenerator(g IDGenerator) {
	s.ids = g
}
