package presentation

import (
	"encoding/json"
	"io"
)

// Formatter writes command results as indented JSON.
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatDocuments formats a list of documents as JSON
func (f *Formatter) FormatDocuments(docs []DocumentDTO) error {
	return f.encode(docs)
}

// FormatCount formats a document count as JSON
func (f *Formatter) FormatCount(n int) error {
	return f.encode(CountDTO{Count: n})
}

// FormatHistory formats journal entries as JSON
func (f *Formatter) FormatHistory(entries []HistoryDTO) error {
	return f.encode(entries)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
