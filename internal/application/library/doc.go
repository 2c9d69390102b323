// Package library implements the application layer around the document library.
//
// Service is the single entry point used by the CLI. It owns a guarded
// domain library and connects it to infrastructure:
//   - a cached pattern compiler for Find (internal/cachemanager)
//   - the YAML catalog and its reconciler (internal/catalog)
//   - a debounced file watcher for live reloads (internal/watcher)
//   - optional listeners for the SQLite journal, Prometheus metrics and
//     OpenTelemetry spans, switched on by config
//
// # Import Aliasing
//
// This package has the same name as the domain library package. Import the
// domain package under an alias when both are needed:
//
//	import (
//	    domain "github.com/leibooks/leibooks/internal/domain/library"
//	    applib "github.com/leibooks/leibooks/internal/application/library"
//	)
package library
