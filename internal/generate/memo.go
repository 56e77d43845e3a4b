package generate

import (
	"context"
	"fmt"
	"log"

	lru "github.com/hashicorp/golang-lru"
)

// Store persists designs by request key.
type Store interface {
	Lookup(ctx context.Context, key string) (*Design, bool, error)
	Put(ctx context.Context, key string, d *Design) error
}

// Memo remembers generated designs so repeated requests do not hit the
// provider. Lookups go to the in-memory LRU, then the Store.
//
// Memo is safe for concurrent use.
type Memo struct {
	next   Generator
	recent *lru.Cache
	store  Store
}

// NewMemo wraps next. store may be nil.
func NewMemo(next Generator, entries int, store Store) (*Memo, error) {
	recent, err := lru.New(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to create design cache: %w", err)
	}
	return &Memo{next: next, recent: recent, store: store}, nil
}

// Generate returns a remembered design or asks the wrapped Generator.
func (m *Memo) Generate(ctx context.Context, req Request) (*Design, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	key := req.Key()

	if v, ok := m.recent.Get(key); ok {
		return v.(*Design), nil
	}
	if m.store != nil {
		d, ok, err := m.store.Lookup(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to look up design: %w", err)
		}
		if ok {
			m.recent.Add(key, d)
			return d, nil
		}
	}

	d, err := m.next.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	m.recent.Add(key, d)
	if m.store != nil {
		// The design is still usable when it cannot be persisted.
		if err := m.store.Put(ctx, key, d); err != nil {
			log.Printf("Failed to store design %s: %v", d.ID, err)
		}
	}
	return d, nil
}
