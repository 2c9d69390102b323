package catalog

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/leibooks/leibooks/internal/document"
	"github.com/leibooks/leibooks/internal/domain/library"
	"github.com/leibooks/leibooks/internal/log"
)

// Summary counts what an Apply changed.
type Summary struct {
	Added     int
	Updated   int
	Removed   int
	Unchanged int
}

// Changed reports whether anything was added, updated, or removed.
func (s Summary) Changed() bool {
	return s.Added+s.Updated+s.Removed > 0
}

func (s Summary) String() string {
	return fmt.Sprintf("added=%d updated=%d removed=%d unchanged=%d", s.Added, s.Updated, s.Removed, s.Unchanged)
}

// Reconciler keeps the catalog-owned part of a library in step with a
// catalog. It remembers which book handle it created for each entry key, so
// documents added to the library by other means are never touched.
type Reconciler struct {
	registry library.Registry
	books    map[string]*document.Book
	keys     []string // insertion order of books

	titleDiff bool
}

// NewReconciler creates a reconciler writing to registry.
func NewReconciler(registry library.Registry) *Reconciler {
	return &Reconciler{
		registry:  registry,
		books:     make(map[string]*document.Book),
		titleDiff: true,
	}
}

// SetTitleDiff turns the title diff log line on or off.
func (r *Reconciler) SetTitleDiff(on bool) {
	r.titleDiff = on
}

// Len returns the number of books the reconciler manages.
func (r *Reconciler) Len() int {
	return len(r.keys)
}

// Book returns the handle created for the entry key, if any.
func (r *Reconciler) Book(key string) (*document.Book, bool) {
	b, ok := r.books[key]
	return b, ok
}

// Apply brings the library in line with entries: new entries are added in
// file order, changed entries are updated, and entries that disappeared are
// removed. Entries are validated up front, so an invalid catalog changes
// nothing. A listener error stops the reconciliation and is returned.
func (r *Reconciler) Apply(entries []Entry) (Summary, error) {
	var sum Summary
	if err := Validate(entries); err != nil {
		return sum, err
	}

	present := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		key := e.Key()
		present[key] = struct{}{}
		props := e.Properties()

		book, ok := r.books[key]
		if !ok {
			created, err := document.NewWithID(e.ID, props)
			if err != nil {
				return sum, fmt.Errorf("entry %q: %w", key, err)
			}
			added, err := r.registry.Add(created)
			if added {
				r.books[key] = created
				r.keys = append(r.keys, key)
				sum.Added++
			}
			if err != nil {
				return sum, fmt.Errorf("adding %q: %w", key, err)
			}
			continue
		}

		if book.Properties().Equal(props) {
			sum.Unchanged++
			continue
		}
		oldTitle := book.Title()
		if err := r.registry.Update(book, props); err != nil {
			return sum, fmt.Errorf("updating %q: %w", key, err)
		}
		sum.Updated++
		if r.titleDiff && oldTitle != props.Title {
			log.Info(log.CatCatalog, "title changed", "key", key, "diff", TitleDiff(oldTitle, props.Title))
		}
	}

	kept := r.keys[:0]
	var removeErr error
	for _, key := range r.keys {
		if _, ok := present[key]; ok || removeErr != nil {
			kept = append(kept, key)
			continue
		}
		book := r.books[key]
		delete(r.books, key)
		if err := r.registry.Remove(book); err != nil {
			removeErr = fmt.Errorf("removing %q: %w", key, err)
		}
		sum.Removed++
	}
	r.keys = kept
	if removeErr != nil {
		return sum, removeErr
	}

	log.Debug(log.CatCatalog, "catalog applied", "summary", sum.String())
	return sum, nil
}

// TitleDiff renders a compact inline diff, e.g. "Dune[- Messiah-]{+ 2+}".
func TitleDiff(from, to string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(from, to, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		}
	}
	return b.String()
}
