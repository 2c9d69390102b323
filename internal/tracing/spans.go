package tracing

// Span attribute keys.
const (
	AttrDocumentTitle = "document.title"
	AttrDocumentID    = "document.id"
	AttrEventKind     = "library.event.kind"
)

// SpanPrefixLibrary prefixes the name of every library event span,
// giving "library.added", "library.removed" and "library.updated".
const SpanPrefixLibrary = "library."
