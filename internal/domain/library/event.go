package library

import "fmt"

// Kind identifies what happened to a document.
type Kind string

const (
	Added   Kind = "added"
	Removed Kind = "removed"
	Updated Kind = "updated"
)

// String returns the kind in upper case, e.g. "ADDED".
func (k Kind) String() string {
	switch k {
	case Added:
		return "ADDED"
	case Removed:
		return "REMOVED"
	case Updated:
		return "UPDATED"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k == Added || k == Removed || k == Updated
}

// Event describes one change to a library.
// Events are built fresh for each mutation and passed by value.
type Event struct {
	Document Document
	Kind     Kind
}

func newEvent(doc Document, kind Kind) Event {
	return Event{Document: doc, Kind: kind}
}

// String renders the event as KIND "title".
func (e Event) String() string {
	title := ""
	if e.Document != nil {
		title = e.Document.Title()
	}
	return fmt.Sprintf("%s %q", e.Kind, title)
}
