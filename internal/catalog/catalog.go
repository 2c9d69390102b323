// Package catalog imports books into a library from a YAML catalog file.
//
// A catalog is read-only input: entries are parsed, validated as a whole, and
// then applied to a library through its Add, Update, and Remove operations so
// that every change reaches the library's listeners. Nothing is ever written
// back to the file.
//
// File format:
//
//	books:
//	  - id: dune
//	    title: Dune
//	    author: Frank Herbert
//	    year: 1965
//	    tags: [sf, classic]
//	    favorite: true
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leibooks/leibooks/internal/document"
)

// Catalog errors.
var (
	ErrDuplicateID = errors.New("duplicate catalog id")
)

// Entry is one book in a catalog file.
type Entry struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Author   string   `yaml:"author,omitempty"`
	Year     int      `yaml:"year,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	Favorite bool     `yaml:"favorite,omitempty"`
}

// Key returns the identity of the entry inside its catalog: the id when set,
// otherwise the title.
func (e Entry) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return strings.TrimSpace(e.Title)
}

// Properties converts the entry into book properties.
func (e Entry) Properties() document.Properties {
	return document.Properties{
		Title:    e.Title,
		Author:   e.Author,
		Year:     e.Year,
		Tags:     e.Tags,
		Favorite: e.Favorite,
	}
}

type file struct {
	Books []Entry `yaml:"books"`
}

// Load reads and parses the catalog at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: catalog path comes from user config
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes and validates catalog YAML. Unknown fields are rejected.
// An empty document is an empty catalog.
func Parse(data []byte) ([]Entry, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := Validate(f.Books); err != nil {
		return nil, err
	}
	if f.Books == nil {
		return []Entry{}, nil
	}
	return f.Books, nil
}

// Validate checks every entry and the uniqueness of entry keys.
func Validate(entries []Entry) error {
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		if err := e.Properties().Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if first, dup := seen[e.Key()]; dup {
			return fmt.Errorf("entry %d: %w %q (first at entry %d)", i, ErrDuplicateID, e.Key(), first)
		}
		seen[e.Key()] = i
	}
	return nil
}
