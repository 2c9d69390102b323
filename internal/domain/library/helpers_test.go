package library

import (
	"errors"
	"testing"
)

var errRejected = errors.New("properties rejected")

// stubDoc is a minimal pointer-identity document for tests.
type stubDoc struct {
	title   string
	updates []Properties
	reject  bool
}

func newDoc(title string) *stubDoc {
	return &stubDoc{title: title}
}

func (d *stubDoc) Title() string { return d.title }

func (d *stubDoc) UpdateProperties(props Properties) error {
	d.updates = append(d.updates, props)
	if d.reject {
		return errRejected
	}
	if title, ok := props.(string); ok {
		d.title = title
	}
	return nil
}

// eventLog collects events delivered to it.
type eventLog struct {
	events []Event
	err    error
}

func (l *eventLog) Handle(e Event) error {
	l.events = append(l.events, e)
	return l.err
}

func (l *eventLog) kinds() []Kind {
	kinds := make([]Kind, len(l.events))
	for i, e := range l.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func titles(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title()
	}
	return out
}

func mustAdd(t *testing.T, lib Registry, docs ...Document) {
	t.Helper()
	for _, d := range docs {
		ok, err := lib.Add(d)
		if err != nil || !ok {
			t.Fatalf("add %q: ok=%v err=%v", d.Title(), ok, err)
		}
	}
}
