// Package document provides Book, the document handle leibooks stores in its
// library, and the Properties bundle used to update it.
package document

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/leibooks/leibooks/internal/domain/library"
)

// Book property errors.
var (
	ErrEmptyTitle            = errors.New("title cannot be empty")
	ErrInvalidYear           = errors.New("year cannot be negative")
	ErrUnsupportedProperties = errors.New("unsupported properties type")
)

// Properties is the full set of mutable book fields.
type Properties struct {
	Title    string
	Author   string
	Year     int
	Tags     []string
	Favorite bool
}

// Validate checks p without applying it.
func (p Properties) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if p.Year < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, p.Year)
	}
	return nil
}

// Equal reports whether p and other hold the same values.
func (p Properties) Equal(other Properties) bool {
	return p.Title == other.Title &&
		p.Author == other.Author &&
		p.Year == other.Year &&
		p.Favorite == other.Favorite &&
		slices.Equal(p.Tags, other.Tags)
}

// Book is a document handle. Books are always used through a pointer, which
// gives them the identity the library relies on.
type Book struct {
	id    string
	props Properties
}

// New creates a book with a fresh random ID.
func New(props Properties) (*Book, error) {
	return NewWithID(uuid.NewString(), props)
}

// NewWithID creates a book with a caller-provided ID.
// An empty id is replaced by a fresh random one.
func NewWithID(id string, props Properties) (*Book, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Book{id: id, props: cloneProps(props)}, nil
}

// ID returns the book's stable identifier.
func (b *Book) ID() string { return b.id }

// Title returns the book's title.
func (b *Book) Title() string { return b.props.Title }

// Author returns the book's author.
func (b *Book) Author() string { return b.props.Author }

// Year returns the publication year, 0 when unknown.
func (b *Book) Year() int { return b.props.Year }

// Tags returns a copy of the book's tags.
func (b *Book) Tags() []string { return slices.Clone(b.props.Tags) }

// Favorite reports whether the book is marked as a favorite.
func (b *Book) Favorite() bool { return b.props.Favorite }

// Properties returns a copy of the book's current properties.
func (b *Book) Properties() Properties { return cloneProps(b.props) }

// UpdateProperties replaces the book's properties. It accepts Properties or
// *Properties; anything else, or invalid values, is rejected and the book is
// left unchanged.
func (b *Book) UpdateProperties(props library.Properties) error {
	var next Properties
	switch p := props.(type) {
	case Properties:
		next = p
	case *Properties:
		if p == nil {
			return fmt.Errorf("%w: nil *Properties", ErrUnsupportedProperties)
		}
		next = *p
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedProperties, props)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	b.props = cloneProps(next)
	return nil
}

// String renders the book as "Title (Author, Year)".
func (b *Book) String() string {
	var extra []string
	if b.props.Author != "" {
		extra = append(extra, b.props.Author)
	}
	if b.props.Year > 0 {
		extra = append(extra, fmt.Sprint(b.props.Year))
	}
	if len(extra) == 0 {
		return b.props.Title
	}
	return fmt.Sprintf("%s (%s)", b.props.Title, strings.Join(extra, ", "))
}

func cloneProps(p Properties) Properties {
	p.Tags = slices.Clone(p.Tags)
	return p
}

// Compile-time check that Book is a library document.
var _ library.Document = (*Book)(nil)
