package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/edgestore/storefront/internal/commerce"
	"github.com/edgestore/storefront/internal/domain/cart"
	"github.com/edgestore/storefront/internal/domain/catalog"
	"github.com/edgestore/storefront/internal/flow"
	"github.com/edgestore/storefront/internal/handler"
	"github.com/edgestore/storefront/internal/storage/sqlite"
	"github.com/edgestore/storefront/pkg/health"
	"github.com/edgestore/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("api", cfg.APIBaseURL),
	)

	// Durable local session storage.
	sessions, err := sqlite.Open(cfg.SessionDB)
	if err != nil {
		return errors.Wrap(err, "open session store")
	}
	defer sessions.Close()

	// Remote commerce API client.
	var httpClient *http.Client
	if cfg.APITimeout > 0 {
		httpClient = &http.Client{Timeout: cfg.APITimeout}
	}
	api := commerce.NewClient(cfg.APIBaseURL, httpClient)

	// Client-side state: catalog cache, cart, auth flow.
	cache := catalog.NewCache()
	crt := cart.New()
	auth := flow.NewAuth(api, sessions, cfg.NoticeTTL, lg.Named("auth"))
	front := flow.NewStorefront(api, cache, crt, auth, lg.Named("storefront"))

	// Resume a persisted session; a corrupt store degrades to anonymous
	// inside Load, so an error here is a real storage failure.
	if err := auth.Resume(ctx); err != nil {
		lg.Warn("Could not resume session", zap.Error(err))
	}

	// Startup catalog fetch. Failure is not fatal: the storefront starts
	// with an empty catalog and readiness reports the API unreachable.
	if err := front.RefreshCatalog(ctx); err != nil {
		lg.Warn("Startup catalog fetch failed", zap.Error(err))
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("session-db", 5*time.Second, func(ctx context.Context) error {
		return sessions.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("commerce-api", 5*time.Second, func(ctx context.Context) error {
		_, err := api.Products(ctx)
		return err
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Mux: health endpoints + storefront routes on one server.
	h := handler.NewHandler(front)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	chain := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(chain, "storefront",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
