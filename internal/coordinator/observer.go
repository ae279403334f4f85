package coordinator

import "sync"

// Observer receives change notifications on the interactive context after a
// successful write.
type Observer interface {
	// ListChanged reports that the set of movies or their names changed
	ListChanged()
	// RecordChanged reports that the movie with the given id was updated
	RecordChanged(id int64)
	// RecordDeleted reports that the movie with the given id was removed
	RecordDeleted(id int64)
}

// ObserverFuncs adapts optional callbacks to the Observer interface.
// Nil callbacks are skipped.
type ObserverFuncs struct {
	OnListChanged   func()
	OnRecordChanged func(id int64)
	OnRecordDeleted func(id int64)
}

func (f ObserverFuncs) ListChanged() {
	if f.OnListChanged != nil {
		f.OnListChanged()
	}
}

func (f ObserverFuncs) RecordChanged(id int64) {
	if f.OnRecordChanged != nil {
		f.OnRecordChanged(id)
	}
}

func (f ObserverFuncs) RecordDeleted(id int64) {
	if f.OnRecordDeleted != nil {
		f.OnRecordDeleted(id)
	}
}

type observerEntry struct {
	id       int
	observer Observer
}

// registry keeps observers in attach order.
type registry struct {
	mu      sync.Mutex
	nextID  int
	entries []observerEntry
}

func (r *registry) attach(o Observer) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, observerEntry{id: id, observer: o})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.detach(id) })
	}
}

func (r *registry) detach(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *registry) snapshot() []Observer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Observer, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.observer
	}
	return out
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
