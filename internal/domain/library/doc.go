// Package library implements the domain layer of leibooks: an in-memory,
// ordered collection of document handles that announces every change to its
// listeners.
//
// The package follows the same layering as the rest of the domain tree:
//   - only standard library imports plus the in-repo pubsub primitives
//   - no logging, no I/O, no knowledge of how documents are stored or shown
//   - collaborators (documents, properties, listeners) are interfaces
//
// # Library
//
// Library keeps documents in insertion order. Membership is decided by
// identity: two distinct handles with the same title are two entries, and the
// same handle may be added more than once. Operations:
//   - Count, All: size and live traversal
//   - Add, Remove, Update: mutations, each followed by exactly one Event when
//     state changed and none otherwise
//   - Find: regular-expression search over titles ("contains a match")
//
// # Events
//
// Every successful mutation publishes an Event{Document, Kind} synchronously
// to the listeners registered with Subscribe, in subscription order, after
// the mutation has completed. A listener error stops delivery and is returned
// from the mutating call.
//
// # Concurrency
//
// Library is not safe for concurrent use. Guarded wraps a Library with a
// single mutex for callers that share it between goroutines.
package library
