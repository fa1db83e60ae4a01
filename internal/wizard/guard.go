package wizard

import "sync"

// Guard allows a single in-flight submission per session id.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{inflight: map[string]struct{}{}}
}

// Acquire marks id busy. The returned release func must be called when the
// submission finishes. A concurrent Acquire for the same id gets ErrBusy.
func (g *Guard) Acquire(id string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[id]; busy {
		return nil, ErrBusy
	}
	g.inflight[id] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, id)
			g.mu.Unlock()
		})
	}, nil
}
