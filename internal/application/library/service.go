package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leibooks/leibooks/internal/audit"
	"github.com/leibooks/leibooks/internal/cachemanager"
	"github.com/leibooks/leibooks/internal/catalog"
	"github.com/leibooks/leibooks/internal/config"
	domain "github.com/leibooks/leibooks/internal/domain/library"
	"github.com/leibooks/leibooks/internal/flags"
	"github.com/leibooks/leibooks/internal/log"
	"github.com/leibooks/leibooks/internal/metrics"
	"github.com/leibooks/leibooks/internal/tracing"
	"github.com/leibooks/leibooks/internal/watcher"
)

// ErrAuditDisabled is returned by History when the journal is not configured.
var ErrAuditDisabled = errors.New("audit journal is disabled")

const shutdownTimeout = 5 * time.Second

// Service wires the library to its catalog and listeners.
type Service struct {
	cfg        config.Config
	lib        *domain.Guarded
	patterns   *cachemanager.PatternCache
	reconciler *catalog.Reconciler
	flags      *flags.Registry

	journal  *audit.Journal
	recorder *metrics.Recorder
	tracer   *tracing.Provider

	reloadMu sync.Mutex
	closed   bool
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	registerer prometheus.Registerer
}

// WithRegisterer registers the library metrics on reg. Without it the
// metrics live on a private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *serviceOptions) {
		o.registerer = reg
	}
}

// New builds a service from cfg. Listeners are subscribed in a fixed order:
// event log, journal, metrics, tracing. A journal failure therefore stops
// the event from reaching metrics and tracing.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}

	patterns := cachemanager.NewPatternCache(cfg.Search.CacheTTL, cfg.Search.CacheCleanup, cfg.Search.DisableCache)
	lib := domain.NewGuarded(domain.New(domain.WithCompiler(patterns.Compile)))

	s := &Service{
		cfg:      cfg,
		lib:      lib,
		patterns: patterns,
		flags:    flags.New(cfg.Flags),
	}
	s.reconciler = catalog.NewReconciler(lib)
	s.reconciler.SetTitleDiff(s.flags.Enabled(flags.FlagTitleDiff))

	if s.flags.Enabled(flags.FlagLogEvents) {
		lib.Subscribe(domain.ListenerFunc(logEvent))
	}

	if cfg.Audit.Enabled {
		j, err := audit.Open(cfg.Audit.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit journal: %w", err)
		}
		s.journal = j
		lib.Subscribe(j)
	}

	if cfg.Metrics.Enabled {
		s.recorder = metrics.NewRecorder(o.registerer, cfg.Metrics.Namespace)
		lib.Subscribe(s.recorder)
	}

	if cfg.Tracing.Enabled {
		p, err := tracing.NewProvider(tracing.Config{
			Enabled:      true,
			Exporter:     cfg.Tracing.Exporter,
			FilePath:     cfg.Tracing.FilePath,
			OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
			SampleRate:   cfg.Tracing.SampleRate,
		})
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("creating tracer: %w", err)
		}
		s.tracer = p
		lib.Subscribe(tracing.NewListener(p.Tracer()))
	}

	log.Debug(log.CatLibrary, "Library service ready",
		"listeners", lib.Listeners(),
		"audit", cfg.Audit.Enabled,
		"metrics", cfg.Metrics.Enabled,
		"tracing", cfg.Tracing.Enabled)
	return s, nil
}

func logEvent(e domain.Event) error {
	log.Debug(log.CatLibrary, "Library changed", "event", e.String())
	return nil
}

// LoadCatalog reads the configured catalog and applies it to the library.
// A missing catalog file is an error.
func (s *Service) LoadCatalog() (catalog.Summary, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	return s.apply()
}

// Reload is LoadCatalog for live updates: a catalog file that is missing at
// the moment (editors briefly remove it while saving) leaves the library as it is.
func (s *Service) Reload() (catalog.Summary, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	sum, err := s.apply()
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn(log.CatCatalog, "Catalog missing, reload skipped", "path", s.cfg.Catalog.Path)
		return catalog.Summary{}, nil
	}
	return sum, err
}

func (s *Service) apply() (catalog.Summary, error) {
	entries, err := catalog.Load(s.cfg.Catalog.Path)
	if err != nil {
		return catalog.Summary{}, err
	}
	sum, err := s.reconciler.Apply(entries)
	if err != nil {
		log.ErrorErr(log.CatCatalog, "Catalog apply failed", err, "path", s.cfg.Catalog.Path)
		return sum, err
	}
	log.Info(log.CatCatalog, "Catalog applied", "path", s.cfg.Catalog.Path, "summary", sum.String())
	return sum, nil
}

// WatchHooks are optional callbacks for Watch.
type WatchHooks struct {
	// Ready is called once the file watcher is running and the catalog has
	// been reloaded to pick up edits made before it started.
	Ready func()
	// Reloaded is called after every reload attempt.
	Reloaded func(catalog.Summary, error)
}

func (h WatchHooks) reloaded(sum catalog.Summary, err error) {
	if h.Reloaded != nil {
		h.Reloaded(sum, err)
	}
}

// Watch reloads the catalog every time its file changes until ctx is done.
func (s *Service) Watch(ctx context.Context, hooks WatchHooks) error {
	w, err := watcher.New(watcher.Config{
		Path:        s.cfg.Catalog.Path,
		DebounceDur: s.cfg.Catalog.Debounce,
	})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return err
	}
	defer func() { _ = w.Stop() }()

	// Edits between LoadCatalog and Start produced no file event.
	hooks.reloaded(s.Reload())
	if hooks.Ready != nil {
		hooks.Ready()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			hooks.reloaded(s.Reload())
		}
	}
}

// Find returns the documents whose title contains a match for pattern. An
// invalid pattern yields the *syntax.Error from the regexp package.
func (s *Service) Find(pattern string) ([]domain.Document, error) {
	docs, err := s.lib.Find(pattern)
	if err != nil {
		log.Debug(log.CatSearch, "Invalid pattern", "pattern", pattern, "error", err)
		return nil, err
	}
	stats := s.patterns.Stats()
	log.Debug(log.CatSearch, "Find", "pattern", pattern, "matches", len(docs),
		"cached_patterns", s.patterns.Len(), "cache_hits", stats.Hits, "cache_misses", stats.Misses)
	return docs, nil
}

// List returns every document in library order.
func (s *Service) List() []domain.Document {
	return s.lib.Snapshot()
}

// Count returns the number of documents.
func (s *Service) Count() int {
	return s.lib.Count()
}

// Subscribe adds l after the configured listeners.
func (s *Service) Subscribe(l domain.Listener) {
	s.lib.Subscribe(l)
}

// Unsubscribe removes l.
func (s *Service) Unsubscribe(l domain.Listener) {
	s.lib.Unsubscribe(l)
}

// Library exposes the guarded library for callers that need direct access.
func (s *Service) Library() domain.Registry {
	return s.lib
}

// History returns up to limit journal entries, newest first.
func (s *Service) History(limit int) ([]audit.Entry, error) {
	if s.journal == nil {
		return nil, ErrAuditDisabled
	}
	return s.journal.Recent(limit)
}

// Close flushes spans and closes the journal. It is safe to call twice.
func (s *Service) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing journal: %w", err))
		}
	}
	return errors.Join(errs...)
}
