package checkout

import "sync"

// Registry owns one Lifecycle per session. A lifecycle is only kept while a
// submission is in flight: it is dropped as soon as it returns to Idle.
type Registry struct {
	factory func(session string) *Lifecycle

	mu         sync.Mutex
	lifecycles map[string]*Lifecycle
}

// NewRegistry creates lifecycles lazily with factory.
func NewRegistry(factory func(session string) *Lifecycle) *Registry {
	return &Registry{factory: factory, lifecycles: map[string]*Lifecycle{}}
}

// For returns the session's lifecycle, creating it on first use.
func (r *Registry) For(session string) *Lifecycle {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lifecycles[session]
	if !ok {
		l = r.factory(session)
		l.onIdle = func(l *Lifecycle) { r.release(session, l) }
		r.lifecycles[session] = l
	}
	return l
}

// release drops the session's lifecycle if it is still l and idle.
func (r *Registry) release(session string, l *Lifecycle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lifecycles[session] == l && l.retire() {
		delete(r.lifecycles, session)
	}
}

// Lookup returns the session's lifecycle without creating one.
func (r *Registry) Lookup(session string) (*Lifecycle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lifecycles[session]
	return l, ok
}

// Close tears down the session's lifecycle, cancelling any in-flight submission.
func (r *Registry) Close(session string) {
	r.mu.Lock()
	l, ok := r.lifecycles[session]
	delete(r.lifecycles, session)
	r.mu.Unlock()
	if ok {
		l.Close()
	}
}

// CloseAll tears down every lifecycle; used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.lifecycles
	r.lifecycles = map[string]*Lifecycle{}
	r.mu.Unlock()
	for _, l := range all {
		l.Close()
	}
}

// Len returns the number of live lifecycles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lifecycles)
}
