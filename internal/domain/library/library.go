package library

import (
	"fmt"
	"iter"
	"reflect"
	"regexp"
	"slices"

	"github.com/leibooks/leibooks/internal/pubsub"
)

// Library holds an ordered collection of document handles.
type Library struct {
	documents []Document
	listeners *pubsub.Channel[Event]
	compile   Compiler
}

// Option configures a Library.
type Option func(*Library)

// WithCompiler replaces regexp.Compile as the pattern compiler used by Find.
func WithCompiler(c Compiler) Option {
	return func(l *Library) {
		if c != nil {
			l.compile = c
		}
	}
}

// New creates an empty library.
func New(opts ...Option) *Library {
	l := &Library{
		documents: make([]Document, 0),
		listeners: pubsub.NewChannel[Event](),
		compile:   regexp.Compile,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Count returns the number of stored document handles.
func (l *Library) Count() int {
	return len(l.documents)
}

// All returns a traversal over the documents in insertion order.
// The traversal reads the live collection; mutating the library while
// ranging over it has no defined result.
func (l *Library) All() iter.Seq[Document] {
	return func(yield func(Document) bool) {
		for _, doc := range l.documents {
			if !yield(doc) {
				return
			}
		}
	}
}

// Add appends doc and publishes an Added event.
// A nil doc is rejected: Add returns false and nothing changes.
// The error is a listener failure; doc has been added regardless.
func (l *Library) Add(doc Document) (bool, error) {
	if isNil(doc) {
		return false, nil
	}
	mustBeComparable(doc)

	l.documents = append(l.documents, doc)
	return true, l.listeners.Publish(newEvent(doc, Added))
}

// Remove deletes the first occurrence of doc and publishes a Removed event.
// Removing a document that is not present does nothing.
func (l *Library) Remove(doc Document) error {
	i := l.indexOf(doc)
	if i < 0 {
		return nil
	}
	removed := l.documents[i]
	l.documents = slices.Delete(l.documents, i, i+1)
	return l.listeners.Publish(newEvent(removed, Removed))
}

// Update hands props to doc and publishes an Updated event.
// If doc is not present nothing happens and doc is not called. If the
// document rejects props its error is returned unchanged and no event is
// published.
func (l *Library) Update(doc Document, props Properties) error {
	i := l.indexOf(doc)
	if i < 0 {
		return nil
	}
	target := l.documents[i]
	if err := target.UpdateProperties(props); err != nil {
		return err
	}
	return l.listeners.Publish(newEvent(target, Updated))
}

// Find returns, in library order, every document whose title contains a match
// for pattern. An invalid pattern yields the compiler's error unchanged.
func (l *Library) Find(pattern string) ([]Document, error) {
	re, err := l.compile(pattern)
	if err != nil {
		return nil, err
	}

	matches := make([]Document, 0)
	for _, doc := range l.documents {
		if re.MatchString(doc.Title()) {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

// Subscribe registers a listener for library events.
func (l *Library) Subscribe(listener Listener) {
	l.listeners.Subscribe(listener)
}

// Unsubscribe removes a previously registered listener.
func (l *Library) Unsubscribe(listener Listener) {
	l.listeners.Unsubscribe(listener)
}

// Listeners returns the number of registered listeners.
func (l *Library) Listeners() int {
	return l.listeners.Len()
}

func (l *Library) indexOf(doc Document) int {
	if isNil(doc) || !reflect.TypeOf(doc).Comparable() {
		return -1
	}
	for i, existing := range l.documents {
		if existing == doc {
			return i
		}
	}
	return -1
}

// isNil reports whether doc is nil or a typed nil pointer.
func isNil(doc Document) bool {
	if doc == nil {
		return true
	}
	v := reflect.ValueOf(doc)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func mustBeComparable(doc Document) {
	if t := reflect.TypeOf(doc); !t.Comparable() {
		panic(fmt.Sprintf("library: document of type %s is not comparable; add a pointer", t))
	}
}
