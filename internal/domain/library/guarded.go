package library

import (
	"iter"
	"sync"
)

// Guarded serializes every operation on a Library behind one mutex.
// Listeners run while the lock is held, so they must not call back into the
// same Guarded.
type Guarded struct {
	mu  sync.Mutex
	lib *Library
}

// NewGuarded wraps lib. A nil lib is replaced by New().
func NewGuarded(lib *Library) *Guarded {
	if lib == nil {
		lib = New()
	}
	return &Guarded{lib: lib}
}

// Count returns the number of stored document handles.
func (g *Guarded) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lib.Count()
}

// All traverses a snapshot of the documents taken when ranging starts.
func (g *Guarded) All() iter.Seq[Document] {
	return func(yield func(Document) bool) {
		for _, doc := range g.Snapshot() {
			if !yield(doc) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the documents in insertion order.
func (g *Guarded) Snapshot() []Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	docs := make([]Document, 0, g.lib.Count())
	for doc := range g.lib.All() {
		docs = append(docs, doc)
	}
	return docs
}

// Add appends doc. See Library.Add.
func (g *Guarded) Add(doc Document) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lib.Add(doc)
}

// Remove deletes the first occurrence of doc. See Library.Remove.
func (g *Guarded) Remove(doc Document) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lib.Remove(doc)
}

// Update hands props to doc. See Library.Update.
func (g *Guarded) Update(doc Document, props Properties) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lib.Update(doc, props)
}

// Find searches titles. See Library.Find.
func (g *Guarded) Find(pattern string) ([]Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lib.Find(pattern)
}

// Subscribe registers a listener.
func (g *Guarded) Subscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lib.Subscribe(l)
}

// Unsubscribe removes a listener.
func (g *Guarded) Unsubscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lib.Unsubscribe(l)
}

// Listeners returns the number of registered listeners.
func (g *Guarded) Listeners() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lib.Listeners()
}
