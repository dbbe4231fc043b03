package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medihome/storefront/internal/config"
	"github.com/medihome/storefront/internal/errors"
	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/live"
	"github.com/medihome/storefront/pkg/middleware"
	"github.com/medihome/storefront/pkg/page"
	"github.com/medihome/storefront/pkg/server"
	"github.com/medihome/storefront/pkg/session"
	"github.com/medihome/storefront/pkg/store"
	"github.com/medihome/storefront/pkg/toast"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

// statsInterval is how often live session counts are logged.
const statsInterval = time.Minute

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront server",
		Long: `Start the HTTP server.

The server stops gracefully on SIGINT or SIGTERM: live sessions are
closed first, then in-flight requests get server.shutdown_timeout to
finish.

Examples:
  storefront serve
  storefront serve --addr=:9000
  storefront serve --config=/etc/storefront.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			return runServe(cmd.Context(), cfg, dev, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Disable client script caching")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, dev bool, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cfg, logOut)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	subscribers, err := store.OpenSubscribers(ctx, cfg.Store.SQLitePath, logger)
	if err != nil {
		return errors.New("E201").WithDetailf("Could not open %s.", cfg.Store.SQLitePath).Wrap(err)
	}
	defer subscribers.Close()

	sessions := session.NewMemoryStore(session.WithCleanupInterval(cfg.Session.CleanupInterval))
	defer sessions.Close()

	invoices := invoice.NewMemoryRepository(invoice.Sample())

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithSubscribers(subscribers),
		server.WithArchive(newArchive(cfg, logger)),
		server.WithSessionStore(sessions),
		server.WithInvoices(invoices),
		server.WithTracerProvider(otel.GetTracerProvider()),
	}
	liveOpts := []live.Option{
		live.WithConfig(liveConfig(cfg)),
		live.WithLogger(logger),
	}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := middleware.NewMetrics(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(registry),
		)
		opts = append(opts, server.WithMetrics(metrics, registry))
		liveOpts = append(liveOpts, live.WithMetrics(metrics))
	}

	mgr := live.NewManager(page.NewDispatcher(invoices), liveOpts...)
	opts = append(opts, server.WithLive(mgr))

	srv := server.New(serverConfig(cfg, dev), opts...)

	logger.Info("storefront starting",
		"version", version,
		"config", cfg.Path(),
		"archive", cfg.Store.Archive,
		"toast_policy", cfg.Toast.Policy)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		reportSessions(gctx, mgr, logger)
		return nil
	})
	return g.Wait()
}

func reportSessions(ctx context.Context, mgr *live.Manager, logger *slog.Logger) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Debug("live sessions", "count", mgr.Count())
		}
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newArchive(cfg *config.Config, logger *slog.Logger) store.Archive {
	if cfg.Store.Archive != config.ArchiveS3 {
		return store.NewMemoryArchive()
	}

	s3cfg := cfg.Store.S3
	logger.Info("archiving contact submissions to s3",
		"bucket", s3cfg.Bucket,
		"prefix", s3cfg.Prefix,
		"region", s3cfg.Region)
	client := store.NewS3Client(store.S3Config{
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		PathStyle: s3cfg.PathStyle,
	})
	return store.NewS3Archive(client, s3cfg.Bucket, s3cfg.Prefix)
}

func liveConfig(cfg *config.Config) *live.Config {
	lc := live.DefaultConfig()
	lc.ReadTimeout = cfg.Live.ReadTimeout
	lc.HeartbeatInterval = cfg.Live.HeartbeatInterval
	lc.MaxMessageSize = cfg.Live.MaxMessageSize
	lc.SendQueue = cfg.Live.SendQueue
	lc.ToastDuration = cfg.Toast.Duration
	lc.ToastPolicy = toast.ParsePolicy(cfg.Toast.Policy)
	lc.FlashStagger = cfg.Flash.Stagger
	lc.FlashVisible = cfg.Flash.Visible
	lc.FlashFade = cfg.Flash.Fade
	lc.CookieName = cfg.Session.CookieName
	lc.AllowedOrigins = cfg.Server.AllowedOrigins
	return lc
}

func serverConfig(cfg *config.Config, dev bool) *server.Config {
	sc := server.DefaultConfig()
	sc.Address = cfg.Server.Address
	sc.ReadTimeout = cfg.Server.ReadTimeout
	sc.WriteTimeout = cfg.Server.WriteTimeout
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout
	sc.CookieName = cfg.Session.CookieName
	sc.SessionTTL = cfg.Session.TTL
	sc.MetricsPath = cfg.Metrics.Path
	sc.DevMode = dev
	return sc
}
