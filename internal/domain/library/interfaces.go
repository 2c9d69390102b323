package library

import (
	"iter"
	"regexp"

	"github.com/leibooks/leibooks/internal/pubsub"
)

// Document is a handle to a document owned by an external collaborator.
// Implementations are expected to be pointer types: the library compares
// handles with ==, which is what makes membership identity-based.
type Document interface {
	// Title returns the current title of the document.
	Title() string

	// UpdateProperties applies props to the document. The error, if any, is
	// the document's own and is returned to the caller of Library.Update.
	UpdateProperties(props Properties) error
}

// Properties is an opaque bundle handed to Document.UpdateProperties.
// The library never inspects it.
type Properties interface{}

// Listener receives library events.
type Listener = pubsub.Listener[Event]

// ListenerFunc wraps fn as a Listener with its own identity.
func ListenerFunc(fn func(Event) error) Listener {
	return pubsub.Func(fn)
}

// Compiler turns a search pattern into a regular expression.
type Compiler func(pattern string) (*regexp.Regexp, error)

// Provider defines read-only access to a library.
type Provider interface {
	// Count returns the number of stored document handles.
	Count() int

	// Find returns, in library order, the documents whose title contains a
	// match for pattern.
	Find(pattern string) ([]Document, error)

	// All traverses the documents in insertion order.
	All() iter.Seq[Document]
}

// Registry is the full library contract: read access, mutations, and
// listener management.
type Registry interface {
	Provider

	Add(doc Document) (bool, error)
	Remove(doc Document) error
	Update(doc Document, props Properties) error

	Subscribe(l Listener)
	Unsubscribe(l Listener)
}

// Compile-time checks that both implementations satisfy Registry.
var (
	_ Registry = (*Library)(nil)
	_ Registry = (*Guarded)(nil)
)
