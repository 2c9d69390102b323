package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	applib "github.com/leibooks/leibooks/internal/application/library"
	"github.com/leibooks/leibooks/internal/presentation"
)

const catalogYAML = `
books:
  - id: alpha
    title: Alpha
  - id: beta
    title: Beta
  - id: alphabet
    title: Alphabet
`

type testEnv struct {
	dir         string
	configPath  string
	catalogPath string
	auditPath   string
}

// newTestEnv writes a catalog and a config pointing at it into a temp dir.
func newTestEnv(t *testing.T, extraConfig string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:         dir,
		configPath:  filepath.Join(dir, "config.yaml"),
		catalogPath: filepath.Join(dir, "catalog.yaml"),
		auditPath:   filepath.Join(dir, "audit.db"),
	}
	require.NoError(t, os.WriteFile(env.catalogPath, []byte(catalogYAML), 0o600))

	conf := "catalog:\n  path: " + env.catalogPath + "\n  debounce: 20ms\n" +
		"log_path: " + filepath.Join(dir, "debug.log") + "\n" + extraConfig
	require.NoError(t, os.WriteFile(env.configPath, []byte(conf), 0o600))
	return env
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeDocuments(t *testing.T, out string) []presentation.DocumentDTO {
	t.Helper()
	var docs []presentation.DocumentDTO
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	return docs
}

func titles(docs []presentation.DocumentDTO) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}

func TestList(t *testing.T) {
	env := newTestEnv(t, "")

	out, _, err := executeCommand(t, "--config", env.configPath, "list")

	require.NoError(t, err)
	docs := decodeDocuments(t, out)
	require.Equal(t, []string{"Alpha", "Beta", "Alphabet"}, titles(docs))
	require.Equal(t, "alpha", docs[0].ID)
}

func TestFind(t *testing.T) {
	env := newTestEnv(t, "")

	out, _, err := executeCommand(t, "--config", env.configPath, "find", "Alph")

	require.NoError(t, err)
	require.Equal(t, []string{"Alpha", "Alphabet"}, titles(decodeDocuments(t, out)))
}

func TestFind_NoMatchesPrintsEmptyList(t *testing.T) {
	env := newTestEnv(t, "")

	out, _, err := executeCommand(t, "--config", env.configPath, "find", "^Zeta$")

	require.NoError(t, err)
	require.Equal(t, "[]\n", out)
}

func TestFind_InvalidPattern(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := executeCommand(t, "--config", env.configPath, "find", "a(b")

	require.ErrorContains(t, err, "invalid pattern")
	require.ErrorContains(t, err, "missing closing )")
}

func TestFind_RequiresPattern(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := executeCommand(t, "--config", env.configPath, "find")

	require.Error(t, err)
}

func TestCount(t *testing.T) {
	env := newTestEnv(t, "")

	out, _, err := executeCommand(t, "--config", env.configPath, "count")

	require.NoError(t, err)
	require.JSONEq(t, `{"count": 3}`, out)
}

func TestCatalogFlagOverridesConfig(t *testing.T) {
	env := newTestEnv(t, "")
	other := filepath.Join(env.dir, "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("books:\n  - title: Solo\n"), 0o600))

	out, _, err := executeCommand(t, "--config", env.configPath, "--catalog", other, "list")

	require.NoError(t, err)
	require.Equal(t, []string{"Solo"}, titles(decodeDocuments(t, out)))
}

func TestMissingCatalog(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, os.Remove(env.catalogPath))

	_, _, err := executeCommand(t, "--config", env.configPath, "count")

	require.ErrorContains(t, err, "loading catalog")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t, "tracing:\n  sample_rate: 2\n")

	_, _, err := executeCommand(t, "--config", env.configPath, "count")

	require.ErrorContains(t, err, "invalid configuration")
	require.ErrorContains(t, err, "sample_rate")
}

func TestDebugWritesLog(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := executeCommand(t, "--config", env.configPath, "--debug", "count")

	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(env.dir, "debug.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "Catalog applied")
}

func TestHistory_Disabled(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := executeCommand(t, "--config", env.configPath, "history")

	require.ErrorIs(t, err, applib.ErrAuditDisabled)
	require.ErrorContains(t, err, env.configPath)
}

func TestHistory_InvalidLimit(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := executeCommand(t, "--config", env.configPath, "history", "--limit", "0")

	require.ErrorContains(t, err, "--limit must be at least 1")
}

func TestOneShotCommandsDoNotJournal(t *testing.T) {
	env := newTestEnv(t, "")
	env = withAudit(t, env)

	_, _, err := executeCommand(t, "--config", env.configPath, "list")
	require.NoError(t, err)

	out, _, err := executeCommand(t, "--config", env.configPath, "history")
	require.NoError(t, err)
	require.Equal(t, "[]\n", out)
}

// withAudit rewrites env's config with the journal enabled.
func withAudit(t *testing.T, env testEnv) testEnv {
	t.Helper()
	data, err := os.ReadFile(env.configPath)
	require.NoError(t, err)
	data = append(data, []byte("audit:\n  enabled: true\n  db_path: "+env.auditPath+"\n")...)
	require.NoError(t, os.WriteFile(env.configPath, data, 0o600))
	return env
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchThenHistory(t *testing.T) {
	env := withAudit(t, newTestEnv(t, ""))

	// Load config the way the CLI does before calling the watch loop directly.
	_, _, err := executeCommand(t, "--config", env.configPath, "count")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out, errOut syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchCatalog(ctx, &out, &errOut) }()

	// Edits before the banner are folded into the initial count, not printed.
	require.Eventually(t, func() bool {
		return strings.Contains(errOut.String(), "Watching ")
	}, 10*time.Second, 20*time.Millisecond)
	require.Contains(t, errOut.String(), "Watching "+env.catalogPath+" (3 books)")

	updated := catalogYAML + "  - id: delta\n    title: Delta\n"
	require.Eventually(t, func() bool {
		_ = os.WriteFile(env.catalogPath, []byte(updated), 0o600)
		return bytes.Contains([]byte(out.String()), []byte("ADDED   Delta"))
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	hist, _, err := executeCommand(t, "--config", env.configPath, "history", "--limit", "2")
	require.NoError(t, err)

	var entries []presentation.HistoryDTO
	require.NoError(t, json.Unmarshal([]byte(hist), &entries))
	require.Len(t, entries, 2)
	require.Equal(t, "added", entries[0].Kind)
	require.Equal(t, "Delta", entries[0].Title)
	require.Equal(t, "Alphabet", entries[1].Title, "the initial load is journaled too")
}

func TestWatch_MetricsAddrRequiresMetrics(t *testing.T) {
	env := newTestEnv(t, "")
	_, _, err := executeCommand(t, "--config", env.configPath, "count")
	require.NoError(t, err)

	watchMetricsAddr = "127.0.0.1:0"
	defer func() { watchMetricsAddr = "" }()

	err = watchCatalog(context.Background(), &bytes.Buffer{}, &bytes.Buffer{})

	require.ErrorContains(t, err, "--metrics-addr needs metrics.enabled")
}

func TestVersion(t *testing.T) {
	out, _, err := executeCommand(t, "--version")

	require.NoError(t, err)
	require.Contains(t, out, "leibooks version")
}
