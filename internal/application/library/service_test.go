package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp/syntax"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/leibooks/leibooks/internal/catalog"
	"github.com/leibooks/leibooks/internal/config"
	"github.com/leibooks/leibooks/internal/document"
	domain "github.com/leibooks/leibooks/internal/domain/library"
)

const threeBooks = `
books:
  - id: alpha
    title: Alpha
    author: A. Author
    year: 1999
  - id: beta
    title: Beta
  - id: alphabet
    title: Alphabet
`

func writeCatalog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// testConfig returns defaults pointed at a temp catalog with every
// optional listener off.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "catalog.yaml")
	cfg.Catalog.Debounce = 20 * time.Millisecond
	return cfg
}

func newService(t *testing.T, cfg config.Config, opts ...Option) *Service {
	t.Helper()
	svc, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func titlesOf(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title()
	}
	return out
}

func TestService_LoadCatalogAndFind(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)

	sum, err := svc.LoadCatalog()
	require.NoError(t, err)
	require.Equal(t, catalog.Summary{Added: 3}, sum)
	require.Equal(t, 3, svc.Count())
	require.Equal(t, []string{"Alpha", "Beta", "Alphabet"}, titlesOf(svc.List()))

	found, err := svc.Find("Alph")
	require.NoError(t, err)
	require.Equal(t, []string{"Alpha", "Alphabet"}, titlesOf(found))

	found, err = svc.Find("^Zeta$")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestService_FindInvalidPattern(t *testing.T) {
	svc := newService(t, testConfig(t))

	_, err := svc.Find("a(b")

	var synErr *syntax.Error
	require.ErrorAs(t, err, &synErr)
	require.Equal(t, syntax.ErrMissingParen, synErr.Code)
}

func TestService_FindWithCacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.DisableCache = true
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)
	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	for range 2 {
		found, err := svc.Find("et$")
		require.NoError(t, err)
		require.Equal(t, []string{"Alphabet"}, titlesOf(found))
	}
	require.Zero(t, svc.patterns.Len())
}

func TestService_LoadCatalogMissingFile(t *testing.T) {
	svc := newService(t, testConfig(t))

	_, err := svc.LoadCatalog()

	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestService_ReloadAppliesChanges(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)
	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	var events []string
	svc.Subscribe(domain.ListenerFunc(func(e domain.Event) error {
		events = append(events, e.String())
		return nil
	}))

	writeCatalog(t, cfg.Catalog.Path, `
books:
  - id: alpha
    title: Alpha Prime
  - id: alphabet
    title: Alphabet
  - id: gamma
    title: Gamma
`)
	sum, err := svc.Reload()
	require.NoError(t, err)
	require.Equal(t, catalog.Summary{Added: 1, Updated: 1, Removed: 1, Unchanged: 1}, sum)
	require.Equal(t, []string{"Alpha Prime", "Alphabet", "Gamma"}, titlesOf(svc.List()))
	require.Equal(t, []string{`UPDATED "Alpha Prime"`, `ADDED "Gamma"`, `REMOVED "Beta"`}, events)
}

func TestService_ReloadSkipsMissingFile(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)
	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	require.NoError(t, os.Remove(cfg.Catalog.Path))
	sum, err := svc.Reload()

	require.NoError(t, err)
	require.False(t, sum.Changed())
	require.Equal(t, 3, svc.Count(), "library untouched while the file is gone")
}

func TestService_ReloadInvalidCatalogChangesNothing(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)
	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	writeCatalog(t, cfg.Catalog.Path, "books:\n  - id: x\n    title: \"\"\n")
	_, err = svc.Reload()

	require.Error(t, err)
	require.Equal(t, 3, svc.Count())
}

func TestService_AuditJournal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit = config.AuditConfig{Enabled: true, DBPath: filepath.Join(t.TempDir(), "audit.db")}
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)

	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	entries, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "Alphabet", entries[0].Title)
	require.Equal(t, "alphabet", entries[0].DocumentID)
	require.Equal(t, domain.Added, entries[0].Kind)
}

func TestService_HistoryDisabled(t *testing.T) {
	svc := newService(t, testConfig(t))

	_, err := svc.History(5)

	require.ErrorIs(t, err, ErrAuditDisabled)
}

func TestService_Metrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics = config.MetricsConfig{Enabled: true, Namespace: "svc"}
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	reg := prometheus.NewRegistry()
	svc := newService(t, cfg, WithRegisterer(reg))

	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "svc_library_events_total", "svc_library_documents")
	require.NoError(t, err)
	require.Equal(t, 4, n)

	want := `
# HELP svc_library_documents Current number of documents in the library
# TYPE svc_library_documents gauge
svc_library_documents 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "svc_library_documents"))
}

func TestService_TracingToFile(t *testing.T) {
	cfg := testConfig(t)
	tracePath := filepath.Join(t.TempDir(), "traces.jsonl")
	cfg.Tracing = config.TracingConfig{Enabled: true, Exporter: "file", FilePath: tracePath, SampleRate: 1}
	writeCatalog(t, cfg.Catalog.Path, threeBooks)

	svc, err := New(cfg)
	require.NoError(t, err)
	_, err = svc.LoadCatalog()
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name":"library.added"`)
}

func TestNew_InvalidTracingClosesJournal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit = config.AuditConfig{Enabled: true, DBPath: filepath.Join(t.TempDir(), "audit.db")}
	cfg.Tracing = config.TracingConfig{Enabled: true, Exporter: "carrier-pigeon"}

	_, err := New(cfg)

	require.ErrorContains(t, err, "creating tracer")
}

func TestNew_AuditOpenFails(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	cfg := testConfig(t)
	cfg.Audit = config.AuditConfig{Enabled: true, DBPath: filepath.Join(blocker, "audit.db")}

	_, err := New(cfg)

	require.ErrorContains(t, err, "opening audit journal")
}

func TestService_ListenerFailureAbortsLaterListeners(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit = config.AuditConfig{Enabled: true, DBPath: filepath.Join(t.TempDir(), "audit.db")}
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)

	boom := errors.New("boom")
	var calls int
	svc.Subscribe(domain.ListenerFunc(func(domain.Event) error {
		calls++
		return boom
	}))

	sum, err := svc.LoadCatalog()

	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, sum.Added, "reconcile stops after the first failed notification")
	require.Equal(t, 1, calls)
	require.Equal(t, 1, svc.Count(), "the mutation itself is kept")

	entries, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the journal runs before the failing listener")
}

func TestService_Watch(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.Catalog.Path, "books: []\n")
	svc := newService(t, cfg)
	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu      sync.Mutex
		reloads int
	)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, WatchHooks{Reloaded: func(_ catalog.Summary, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				reloads++
			}
		}})
	}()

	// Keep rewriting until the watcher, which starts asynchronously, picks it up.
	require.Eventually(t, func() bool {
		writeCatalog(t, cfg.Catalog.Path, threeBooks)
		return svc.Count() == 3
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Positive(t, reloads)
}

func TestService_WatchPicksUpEditsBeforeStart(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.Catalog.Path, "books: []\n")
	svc := newService(t, cfg)
	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	// Written after the load but before the watcher exists, so no file event
	// will ever report it.
	writeCatalog(t, cfg.Catalog.Path, threeBooks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan int, 1)
	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, WatchHooks{Ready: func() { ready <- svc.Count() }})
	}()

	select {
	case n := <-ready:
		require.Equal(t, 3, n)
	case err := <-done:
		t.Fatalf("watch returned before ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch never became ready")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestService_WatchMissingDirectory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "absent", "catalog.yaml")
	svc := newService(t, cfg)

	err := svc.Watch(context.Background(), WatchHooks{})

	require.Error(t, err)
}

func TestService_CloseTwice(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit = config.AuditConfig{Enabled: true, DBPath: filepath.Join(t.TempDir(), "audit.db")}
	svc, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
}

func TestService_ReloadLeavesOutsideDocumentsAlone(t *testing.T) {
	cfg := testConfig(t)
	writeCatalog(t, cfg.Catalog.Path, threeBooks)
	svc := newService(t, cfg)
	_, err := svc.LoadCatalog()
	require.NoError(t, err)

	extra, err := document.New(document.Properties{Title: "Scratch"})
	require.NoError(t, err)
	added, err := svc.Library().Add(extra)
	require.NoError(t, err)
	require.True(t, added)

	writeCatalog(t, cfg.Catalog.Path, "books: []\n")
	sum, err := svc.Reload()
	require.NoError(t, err)
	require.Equal(t, 3, sum.Removed)
	require.Equal(t, []string{"Scratch"}, titlesOf(svc.List()))
}
