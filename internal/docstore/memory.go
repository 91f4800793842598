package docstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-sklad/internal/apperr"
)

// MemoryStore keeps collections in process memory. It backs local runs
// without DB_DSN and the tests of every package above the gateway.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	hub         *hub
	now         func() time.Time
}

type memCollection struct {
	order []string
	docs  map[string]Fields
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
		hub:         newHub(),
		now:         time.Now,
	}
}

// SetClock replaces the commit-time source used for ServerTimestamp.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	s.mu.Lock()
	body, err := normalize(fields, s.now())
	if err != nil {
		s.mu.Unlock()
		return "", apperr.Wrap("docstore.Create", apperr.ErrValidation, collection, err)
	}
	c := s.collection(collection)
	id := uuid.NewString()
	c.order = append(c.order, id)
	c.docs[id] = body
	s.mu.Unlock()

	s.hub.notify(collection)
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok || c.docs[id] == nil {
		return Document{}, apperr.New("docstore.Get", apperr.ErrNotFound, collection+"/"+id)
	}
	return Document{ID: id, Fields: maps.Clone(c.docs[id])}, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	s.mu.Lock()
	c, ok := s.collections[collection]
	if !ok || c.docs[id] == nil {
		s.mu.Unlock()
		return apperr.New("docstore.Update", apperr.ErrNotFound, collection+"/"+id)
	}
	patch, err := normalize(fields, s.now())
	if err != nil {
		s.mu.Unlock()
		return apperr.Wrap("docstore.Update", apperr.ErrValidation, collection+"/"+id, err)
	}
	merged := maps.Clone(c.docs[id])
	maps.Copy(merged, patch)
	c.docs[id] = merged
	s.mu.Unlock()

	s.hub.notify(collection)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return []Document{}, nil
	}
	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, Document{ID: id, Fields: maps.Clone(c.docs[id])})
	}
	return apply(docs, q), nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	return s.hub.subscribe(ctx, collection, func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, q)
	}), nil
}

func (s *MemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]Fields)}
		s.collections[name] = c
	}
	return c
}
