package watch

import (
	"sort"
	"sync"
	"time"
)

// State is a watched document's lifecycle position.
type State string

const (
	StateAwaitingLock State = "awaiting_lock"
	StateLocked       State = "locked"
	StateArchiving    State = "archiving"
)

// Entry is the per-path record kept by the Registry.
type Entry struct {
	Path          string    `json:"path"`
	State         State     `json:"state"`
	RegisteredAt  time.Time `json:"registered_at"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	// UnlockedSince is set when a Locked document is first seen released and
	// cleared if the lock returns before the settle delay elapses.
	UnlockedSince time.Time `json:"unlocked_since,omitzero"`
	Attempts      int       `json:"attempts,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	// PartialDestination remembers where a cross-device copy landed when the
	// source could not be removed afterwards.
	PartialDestination string `json:"partial_destination,omitempty"`
}

// Registry maps paths to entries. At most one entry exists per path.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	inflight map[string]struct{}
	now      func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*Entry),
		inflight: make(map[string]struct{}),
		now:      time.Now,
	}
}

// Register starts observing path in AwaitingLock. It returns false when the
// path is already watched, leaving the existing entry untouched.
func (r *Registry) Register(path string) bool {
	return r.RegisterAs(path, StateAwaitingLock)
}

// RegisterAs is Register with an explicit starting state. Restoring a document
// that was already opened starts it in Locked so its next release archives it.
func (r *Registry) RegisterAs(path string, state State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[path]; ok {
		return false
	}
	now := r.now()
	r.entries[path] = &Entry{
		Path:          path,
		State:         state,
		RegisteredAt:  now,
		LastCheckedAt: now,
	}
	return true
}

// Unregister stops observing path. It reports whether an entry was removed.
func (r *Registry) Unregister(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[path]; !ok {
		return false
	}
	delete(r.entries, path)
	return true
}

// Get returns a copy of the entry for path.
func (r *Registry) Get(path string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[path]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Snapshot returns copies of every entry ordered by registration time.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, *entry)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].Path < out[j].Path
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out
}

// Len returns the number of watched paths.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Counts returns the number of entries in each state.
func (r *Registry) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int, 3)
	for _, entry := range r.entries {
		counts[string(entry.State)]++
	}
	return counts
}

// Begin claims path for processing. It returns false when the path is no
// longer registered or another task already holds it.
func (r *Registry) Begin(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[path]; !ok {
		return false
	}
	if _, busy := r.inflight[path]; busy {
		return false
	}
	r.inflight[path] = struct{}{}
	return true
}

// End releases a claim taken with Begin.
func (r *Registry) End(path string) {
	r.mu.Lock()
	delete(r.inflight, path)
	r.mu.Unlock()
}

// Update applies fn to the live entry for path under the registry lock. It
// returns false when the path is not registered. fn must not call back into
// the registry.
func (r *Registry) Update(path string, fn func(*Entry)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[path]
	if !ok {
		return false
	}
	fn(entry)
	entry.Path = path
	return true
}
