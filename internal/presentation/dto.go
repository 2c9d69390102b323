package presentation

import (
	"github.com/leibooks/leibooks/internal/audit"
	"github.com/leibooks/leibooks/internal/document"
	"github.com/leibooks/leibooks/internal/domain/library"
)

// DocumentDTO is the JSON shape of a library document.
type DocumentDTO struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	Year     int      `json:"year,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Favorite bool     `json:"favorite,omitempty"`
}

// FromDocument converts a document. Books carry all their fields; any other
// document is presented by title only.
func FromDocument(doc library.Document) DocumentDTO {
	book, ok := doc.(*document.Book)
	if !ok {
		return DocumentDTO{Title: doc.Title()}
	}
	return DocumentDTO{
		ID:       book.ID(),
		Title:    book.Title(),
		Author:   book.Author(),
		Year:     book.Year(),
		Tags:     book.Tags(),
		Favorite: book.Favorite(),
	}
}

// FromDocuments converts docs in order. The result is never nil so it
// encodes as [] rather than null.
func FromDocuments(docs []library.Document) []DocumentDTO {
	dtos := make([]DocumentDTO, len(docs))
	for i, d := range docs {
		dtos[i] = FromDocument(d)
	}
	return dtos
}

// CountDTO is the JSON shape of the count command.
type CountDTO struct {
	Count int `json:"count"`
}

// HistoryDTO is the JSON shape of a journal entry.
type HistoryDTO struct {
	Kind       string `json:"kind"`
	DocumentID string `json:"document_id,omitempty"`
	Title      string `json:"title"`
	At         string `json:"at"`
}

// FromJournal converts journal entries in order.
func FromJournal(entries []audit.Entry) []HistoryDTO {
	dtos := make([]HistoryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = HistoryDTO{
			Kind:       string(e.Kind),
			DocumentID: e.DocumentID,
			Title:      e.Title,
			At:         e.OccurredAt.Format("2006-01-02T15:04:05.000Z07:00"),
		}
	}
	return dtos
}
