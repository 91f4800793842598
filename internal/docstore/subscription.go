package docstore

import (
	"context"
	"sync"
)

// Snapshot is the full result set of a subscribed query at one point in time.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Subscription is a cancellable stream of snapshots. Events is closed after
// Cancel or when the subscribing context ends.
type Subscription struct {
	events chan Snapshot
	cancel context.CancelFunc
	once   sync.Once
}

func (s *Subscription) Events() <-chan Snapshot {
	return s.events
}

// Cancel stops delivery. Only the first call has an effect.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

type watcher struct {
	signal chan struct{}
}

// hub tracks live subscriptions per collection and wakes them on writes.
type hub struct {
	mu       sync.Mutex
	watchers map[string]map[*watcher]struct{}
}

func newHub() *hub {
	return &hub{watchers: make(map[string]map[*watcher]struct{})}
}

func (h *hub) subscribe(ctx context.Context, collection string, load func(context.Context) ([]Document, error)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{signal: make(chan struct{}, 1)}
	w.signal <- struct{}{}

	h.mu.Lock()
	if h.watchers[collection] == nil {
		h.watchers[collection] = make(map[*watcher]struct{})
	}
	h.watchers[collection][w] = struct{}{}
	h.mu.Unlock()

	sub := &Subscription{events: make(chan Snapshot, 1), cancel: cancel}
	go func() {
		defer close(sub.events)
		defer h.remove(collection, w)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.signal:
			}
			docs, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case sub.events <- Snapshot{Docs: docs, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}

func (h *hub) remove(collection string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[collection], w)
}

// notify wakes every watcher of collection. Pending wake-ups coalesce.
func (h *hub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers[collection] {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

func (h *hub) count(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[collection])
}
