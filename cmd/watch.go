package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	applib "github.com/leibooks/leibooks/internal/application/library"
	"github.com/leibooks/leibooks/internal/catalog"
	domain "github.com/leibooks/leibooks/internal/domain/library"
	"github.com/leibooks/leibooks/internal/log"
	"github.com/leibooks/leibooks/internal/presentation"
	"github.com/leibooks/leibooks/internal/pubsub"
)

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print library changes as the catalog file is edited",
	Long: `Load the catalog, then reload it every time the file changes and print
one line per added, updated or removed book until interrupted.

Changes are recorded in the audit journal when audit.enabled is true.
With metrics.enabled and --metrics-addr, Prometheus metrics are served
at /metrics.

Examples:
  leibooks watch
  leibooks watch --catalog ~/books.yaml
  leibooks watch --metrics-addr localhost:9464`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchCatalog(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "",
		"serve Prometheus metrics on this address (requires metrics.enabled)")
	rootCmd.AddCommand(watchCmd)
}

// watchCatalog runs until ctx is done or the watcher fails to start.
func watchCatalog(ctx context.Context, out, errOut io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc, reg, err := openService(true)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	broker := pubsub.NewBroker[domain.Event]()
	defer broker.Close()
	events := broker.Subscribe(ctx)
	svc.Subscribe(pubsub.NewForwarder(broker, brokerEventType))

	if watchMetricsAddr != "" {
		if !cfg.Metrics.Enabled {
			return fmt.Errorf("--metrics-addr needs metrics.enabled: true in %s", configFileLabel())
		}
		shutdown := serveMetrics(watchMetricsAddr, reg, errOut)
		defer shutdown()
	}

	printer := presentation.NewEventPrinter(out)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			_ = printer.Print(ev.Payload)
		}
	}()

	err = svc.Watch(ctx, applib.WatchHooks{
		Ready: func() {
			_, _ = fmt.Fprintf(errOut, "Watching %s (%d books). Press Ctrl+C to stop.\n", cfg.Catalog.Path, svc.Count())
		},
		Reloaded: func(_ catalog.Summary, err error) {
			if err != nil {
				_, _ = fmt.Fprintf(errOut, "reload failed: %v\n", err)
			}
		},
	})
	cancel()
	<-printed

	if n := broker.Dropped(); n > 0 {
		_, _ = fmt.Fprintf(errOut, "%d change events were not printed (output too slow)\n", n)
	}
	return err
}

func brokerEventType(e domain.Event) pubsub.EventType {
	switch e.Kind {
	case domain.Added:
		return pubsub.CreatedEvent
	case domain.Removed:
		return pubsub.DeletedEvent
	default:
		return pubsub.UpdatedEvent
	}
}

// serveMetrics starts an HTTP server for reg and returns its shutdown func.
func serveMetrics(addr string, reg *prometheus.Registry, errOut io.Writer) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorErr(log.CatMetrics, "Metrics server failed", err, "addr", addr)
			_, _ = fmt.Fprintf(errOut, "metrics server: %v\n", err)
		}
	}()
	log.Info(log.CatMetrics, "Serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
