package cart

import "sync"

// Registry owns one Store per signed-in user. Carts are never shared
// between users and live only as long as the process.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
	opts   []Option
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{stores: make(map[string]*Store), opts: opts}
}

func (r *Registry) For(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[userID]
	if !ok {
		s = NewStore(r.opts...)
		r.stores[userID] = s
	}
	return s
}

// Drop forgets the user's cart, e.g. on sign-out.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, userID)
}
