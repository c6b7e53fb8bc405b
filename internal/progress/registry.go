package progress

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/meigma/squeeze/core"
)

// entry is a single registration. Entries are compared by pointer so a
// cancel function removes exactly the registration it was issued for.
type entry struct {
	observer core.Observer
}

// Registry is a snapshot-isolated set of observers.
//
// Mutations copy the current snapshot under mu and publish the copy with an
// atomic store. Notify only loads the published snapshot, so it never waits
// on a mutation and a mutation never waits on a slow observer.
type Registry struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[[]*entry]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.snapshot.Store(&[]*entry{})
	return r
}

func (r *Registry) load() []*entry {
	return *r.snapshot.Load()
}

// Register adds an observer. Duplicates are permitted and are notified once
// per registration.
func (r *Registry) Register(o core.Observer) {
	r.add(&entry{observer: o})
}

// Subscribe adds an observer and returns a function that removes that
// registration. The returned function is idempotent.
func (r *Registry) Subscribe(o core.Observer) (cancel func()) {
	e := &entry{observer: o}
	r.add(e)
	var once sync.Once
	return func() {
		once.Do(func() {
			r.remove(func(candidate *entry) bool { return candidate == e })
		})
	}
}

// Unregister removes the first registration of o. Unknown observers, and
// observers whose dynamic type is not comparable, are ignored.
func (r *Registry) Unregister(o core.Observer) {
	r.remove(func(candidate *entry) bool {
		return sameObserver(candidate.observer, o)
	})
}

// Len returns the number of registrations in the current snapshot.
func (r *Registry) Len() int {
	return len(r.load())
}

// Notify invokes every observer of the current snapshot exactly once, in
// registration order. Registrations made while Notify runs, including those
// made by the observers themselves, take effect from the next call.
//
// Failures are isolated per observer and returned one per failing
// invocation. A nil result means every observer succeeded.
func (r *Registry) Notify(event core.ProgressEvent) []*core.ObserverError {
	var failures []*core.ObserverError
	for i, e := range r.load() {
		if err := invoke(e.observer, event); err != nil {
			failures = append(failures, &core.ObserverError{Index: i, Observer: e.observer, Err: err})
		}
	}
	return failures
}

func (r *Registry) add(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.load()
	next := make([]*entry, len(current), len(current)+1)
	copy(next, current)
	next = append(next, e)
	r.snapshot.Store(&next)
}

func (r *Registry) remove(match func(*entry) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.load()
	for i, e := range current {
		if !match(e) {
			continue
		}
		next := make([]*entry, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		r.snapshot.Store(&next)
		return
	}
}

// invoke calls the observer and converts a panic into an error.
func invoke(o core.Observer, event core.ProgressEvent) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if perr, ok := v.(error); ok {
				err = fmt.Errorf("panic: %w", perr)
				return
			}
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	if o == nil {
		return errors.New("nil observer")
	}
	return o.OnProgress(event)
}

// sameObserver reports whether a and b are the same observer. Comparing
// interfaces that hold funcs, maps or slices panics at runtime; such values
// are never equal here.
func sameObserver(a, b core.Observer) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
