package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Book is the complete sidecar memory. It is mutated in place during a tick
// and written out once at the end.
type Book struct {
	Tick     int                `json:"tick"`
	Units    map[string]*Unit   `json:"units"`
	Colonies map[string]*Colony `json:"colonies"`
}

func NewBook() *Book {
	return &Book{
		Units:    make(map[string]*Unit),
		Colonies: make(map[string]*Colony),
	}
}

// Unit returns the record for name, creating an empty one if needed.
func (b *Book) Unit(name string) *Unit {
	u, ok := b.Units[name]
	if !ok {
		u = &Unit{}
		b.Units[name] = u
	}
	return u
}

// Colony returns the record for name, creating an empty one if needed.
func (b *Book) Colony(name string) *Colony {
	c, ok := b.Colonies[name]
	if !ok {
		c = &Colony{}
		b.Colonies[name] = c
	}
	return c
}

// CurrentPlan returns the colony's stored plan if it was computed on tick,
// otherwise nil.
func (b *Book) CurrentPlan(colony string, tick int) *Plan {
	if c := b.Colonies[colony]; c != nil && c.Plan.ValidAt(tick) {
		return c.Plan
	}
	return nil
}

// Prune deletes records of units that are not in alive and whose home is one
// of homes. Records homed elsewhere belong to colonies outside this snapshot
// and are left alone. It returns how many were removed.
func (b *Book) Prune(alive, homes map[string]bool) int {
	n := 0
	for name, u := range b.Units {
		if alive[name] {
			continue
		}
		if u.Home != "" && !homes[u.Home] {
			continue
		}
		delete(b.Units, name)
		n++
	}
	return n
}

// Store persists one Book per player between process restarts. Players
// never see each other's records.
type Store interface {
	Load(ctx context.Context, player string) (*Book, error)
	Save(ctx context.Context, player string, b *Book) error
}

// MemStore keeps each player's last saved book in process. Used when no
// database is configured and in tests. Books are stored encoded so no two
// callers ever share one.
type MemStore struct {
	mu    sync.Mutex
	books map[string][]byte
}

func (m *MemStore) Load(_ context.Context, player string) (*Book, error) {
	m.mu.Lock()
	data, ok := m.books[player]
	m.mu.Unlock()

	b := NewBook()
	if !ok {
		return b, nil
	}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("decode book for %s: %w", player, err)
	}
	if b.Units == nil {
		b.Units = make(map[string]*Unit)
	}
	if b.Colonies == nil {
		b.Colonies = make(map[string]*Colony)
	}
	return b, nil
}

func (m *MemStore) Save(_ context.Context, player string, b *Book) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode book for %s: %w", player, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.books == nil {
		m.books = make(map[string][]byte)
	}
	m.books[player] = data
	return nil
}
