package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/medihome/storefront/internal/errors"
	"github.com/medihome/storefront/pkg/clock"
	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/invoice"
	"github.com/medihome/storefront/pkg/live"
	"github.com/medihome/storefront/pkg/middleware"
	"github.com/medihome/storefront/pkg/page"
	"github.com/medihome/storefront/pkg/session"
	"github.com/medihome/storefront/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
)

// Server is the storefront HTTP server.
type Server struct {
	config *Config
	router chi.Router

	live        *live.Manager
	bag         *flash.Bag
	sessions    session.Store
	subscribers store.SubscriberStore
	archive     store.Archive
	invoices    invoice.Repository

	metrics        *middleware.Metrics
	gatherer       prometheus.Gatherer
	tracerProvider trace.TracerProvider

	clock  clock.Clock
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLive sets the live session manager. By default the server builds one
// with the standard page dispatcher.
func WithLive(m *live.Manager) Option {
	return func(s *Server) {
		s.live = m
	}
}

// WithSessionStore sets the store backing the flash bag.
// Default: an in-memory store.
func WithSessionStore(st session.Store) Option {
	return func(s *Server) {
		s.sessions = st
	}
}

// WithSubscribers sets the newsletter subscriber store. Without one,
// subscriptions fail with a generic error.
func WithSubscribers(st store.SubscriberStore) Option {
	return func(s *Server) {
		s.subscribers = st
	}
}

// WithArchive sets the contact submission archive.
// Default: an in-memory archive.
func WithArchive(a store.Archive) Option {
	return func(s *Server) {
		s.archive = a
	}
}

// WithInvoices sets the invoice repository.
// Default: a repository holding the sample invoice.
func WithInvoices(r invoice.Repository) Option {
	return func(s *Server) {
		s.invoices = r
	}
}

// WithMetrics records request metrics with m and serves gatherer at
// Config.MetricsPath.
func WithMetrics(m *middleware.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithTracerProvider enables request tracing with tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// WithClock sets the clock used for timestamps and flash expiry.
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server. Call Run to start listening, or use Handler to
// mount it elsewhere.
func New(cfg *Config, opts ...Option) *Server {
	s := &Server{
		config: cfg.withDefaults(),
		clock:  clock.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.invoices == nil {
		s.invoices = invoice.NewMemoryRepository(invoice.Sample())
	}
	if s.archive == nil {
		s.archive = store.NewMemoryArchive()
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore(session.WithClock(s.clock))
	}
	s.bag = flash.NewBag(s.sessions, s.config.SessionTTL, s.clock)

	if s.live == nil {
		liveCfg := live.DefaultConfig()
		liveCfg.CookieName = s.config.CookieName
		liveOpts := []live.Option{
			live.WithConfig(liveCfg),
			live.WithClock(s.clock),
			live.WithLogger(s.logger),
		}
		if s.metrics != nil {
			liveOpts = append(liveOpts, live.WithMetrics(s.metrics))
		}
		s.live = live.NewManager(page.NewDispatcher(s.invoices), liveOpts...)
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}
	if s.tracerProvider != nil {
		r.Use(middleware.Tracing(
			middleware.WithTracerProvider(s.tracerProvider),
			middleware.WithRequestFilter(s.traced),
		))
	}

	r.Get("/", s.handlePage)
	r.Get(ClientPath, s.serveClient)
	r.Head(ClientPath, s.serveClient)
	r.Post("/contact", s.handleContact)
	r.Post("/subscribe", s.handleSubscribe)
	r.Get("/invoice/{number}/download", s.handleInvoiceDownload)
	r.Get(LivePath, s.live.ServeHTTP)
	r.Get("/healthz", s.handleHealth)

	if s.gatherer != nil && s.config.MetricsPath != "" {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// traced reports whether a request gets a span. Probes and scrapes do not.
func (s *Server) traced(r *http.Request) bool {
	return r.URL.Path != "/healthz" && r.URL.Path != s.config.MetricsPath
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Live returns the live session manager.
func (s *Server) Live() *live.Manager {
	return s.live
}

// Flash returns the flash bag rendered into the page.
func (s *Server) Flash() *flash.Bag {
	return s.bag
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Addr returns the bound listen address, or nil before Run has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens on Config.Address and serves until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return errors.New("E102").WithDetail(err.Error())
	}

	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return errors.New("E401").WithDetailf("Could not listen on %s.", s.config.Address).Wrap(err)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes live sessions, then stops accepting requests and waits
// for in-flight ones, all within Config.ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	var liveErr error
	if err := s.live.Shutdown(ctx); err != nil {
		liveErr = errors.New("E302").WithDetailf("%d live sessions still open.", s.live.Count()).Wrap(err)
		s.logger.Error("live shutdown error", "error", err)
	}

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return errors.New("E402").Wrap(err)
		}
	}
	if liveErr != nil {
		return liveErr
	}

	s.logger.Info("server shutdown complete")
	return nil
}
