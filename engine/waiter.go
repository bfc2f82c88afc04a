package engine

import (
	"sync"

	"github.com/viant/oversight/model/approval"
)

// waiter parks one submission until a decision callback or its deadline
// commits the terminal status. Commit is set-once: concurrent wake-ups race
// safely and only the first arrival wins.
type waiter struct {
	request *approval.Request

	mu    sync.Mutex
	state State

	once      sync.Once
	decision  *approval.Decision
	done      chan struct{} // closed at commit
	responded chan struct{} // closed once the lifecycle logged and responded
}

func newWaiter(request *approval.Request) *waiter {
	return &waiter{
		request:   request,
		state:     StateInitialized,
		done:      make(chan struct{}),
		responded: make(chan struct{}),
	}
}

// commit records the terminal decision exactly once and returns true when
// this call won the race.
func (w *waiter) commit(decision *approval.Decision) bool {
	committed := false
	w.once.Do(func() {
		w.decision = decision
		committed = true
		close(w.done)
	})
	return committed
}

// advance applies an event to the waiter state.
func (w *waiter) advance(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := Transition(w.state, event)
	if err != nil {
		return err
	}
	w.state = next
	return nil
}

// currentState returns the waiter state.
func (w *waiter) currentState() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// registry tracks in-flight waiters by correlation id. Requests never share
// waiters, so no cross-request locking beyond the map itself is needed.
type registry struct {
	mu      sync.RWMutex
	waiters map[string]*waiter
}

func newRegistry() *registry {
	return &registry{waiters: make(map[string]*waiter)}
}

// create registers a waiter; it returns false when the correlation id is
// already in flight.
func (r *registry) create(w *waiter) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.waiters[w.request.CorrelationID]; ok {
		return false
	}
	r.waiters[w.request.CorrelationID] = w
	return true
}

func (r *registry) get(id string) *waiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiters[id]
}

func (r *registry) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiters, id)
}
