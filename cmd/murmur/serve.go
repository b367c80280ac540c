package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/murmur"
	"github.com/aretw0/murmur/internal/cli"
	httpAdapter "github.com/aretw0/murmur/pkg/adapters/http"
	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/adapters/redis"
	"github.com/aretw0/murmur/pkg/observability"
	"github.com/aretw0/murmur/pkg/persistence/middleware"
	"github.com/aretw0/murmur/pkg/ports"
	"github.com/aretw0/murmur/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Start the HTTP server",
	Long: `Serves the dialogue graph over a JSON API. Each session's traversal is kept in the
snapshot store (Redis when MURMUR_REDIS_ADDR is set, memory otherwise), so any replica
can serve any request.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.Addr = addr
		}
		doc, err := loadDocument(cmd, args)
		if err != nil {
			return err
		}
		log := logger(false)

		handler, closeStore, err := newServer(doc, log)
		if err != nil {
			return err
		}
		defer closeStore()

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Info("starting murmur server", "addr", srv.Addr, "file", doc.Path)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("killing server: %w", err)
				}
			}
			log.Info("murmur server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (default: MURMUR_ADDR)")
}

// newServer wires the session manager, the store and the metrics for doc.
func newServer(doc *cli.Document, log *slog.Logger) (http.Handler, func(), error) {
	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: %w", err)
	}
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(log))

	factory := func() (*murmur.Engine, error) {
		return murmur.New(doc.Graph,
			murmur.WithLanguage(doc.Language),
			murmur.WithBranchCount(cfg.BranchSlots),
			murmur.WithReaderOptions(doc.Reveal...),
			murmur.WithLifecycleHooks(hooks),
			murmur.WithLogger(log),
		)
	}

	var (
		store     ports.SnapshotStore = memory.NewStore()
		closeFn                       = func() {}
		sessOpts                      = []session.Option{session.WithLogger(log), session.WithLockTTL(cfg.LockTTL)}
	)
	if cfg.RedisAddr != "" {
		rs := redis.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.SessionTTL),
		)
		store = rs
		closeFn = func() { _ = rs.Close() }
		sessOpts = append(sessOpts, session.WithLocker(redis.NewLocker(rs.Client(), cfg.RedisPrefix)))
		log.Info("using redis session store", "addr", cfg.RedisAddr)
	}

	mws, err := cfg.StoreMiddleware()
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if len(mws) > 0 {
		store = middleware.Chain(store, mws...)
		log.Info("session snapshots are encrypted at rest")
	}

	opts := []httpAdapter.Option{httpAdapter.WithLogger(log)}
	if cfg.MetricsRoute {
		opts = append(opts, httpAdapter.WithMetricsHandler(promhttp.Handler()))
	}
	manager := session.NewManager(store, factory, sessOpts...)
	return httpAdapter.NewHandler(manager, doc.Graph, opts...), closeFn, nil
}
