// Command tubelens runs the YouTube analytics assistant HTTP server.
//
// Providers are registered from environment variables (GEMINI_API_KEY,
// OPENAI_API_KEY); at least one must be set. TUBELENS_CONFIG points at an
// optional YAML/JSON config file; defaults apply otherwise.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	tubelens "github.com/tubelens/tubelens"
	"github.com/tubelens/tubelens/internal/analysislog"
	"github.com/tubelens/tubelens/internal/cache"
	"github.com/tubelens/tubelens/internal/logging"
	"github.com/tubelens/tubelens/internal/session"
	"github.com/tubelens/tubelens/internal/version"
	"github.com/tubelens/tubelens/providers"
)

func main() {
	cfg := tubelens.DefaultConfig()
	if cfgPath := os.Getenv("TUBELENS_CONFIG"); cfgPath != "" {
		loaded, err := tubelens.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if err := tubelens.ValidateConfig(*loaded); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		cfg = *loaded
		log.Printf("Config loaded from %s", cfgPath)
	}

	// Env overrides for the options operators most often set per deployment.
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		cfg.Cache.FileDir = dir
	}
	if p := os.Getenv("PORT"); p != "" {
		cfg.Server.Addr = ":" + p
	}

	registry := providers.NewRegistry()
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		p, err := providers.NewGemini(key, "")
		if err != nil {
			log.Fatalf("gemini provider: %v", err)
		}
		registry.Register(p)
		log.Println("Provider registered: gemini")
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		p, err := providers.NewOpenAI(key, "")
		if err != nil {
			log.Fatalf("openai provider: %v", err)
		}
		registry.Register(p)
		log.Println("Provider registered: openai")
	}
	if registry.Len() == 0 {
		log.Fatal("No providers configured. Set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	tiered, err := cache.New(cache.Config{
		RedisAddr:        cfg.Cache.RedisAddr,
		FileDir:          cfg.Cache.FileDir,
		DefaultTTL:       cfg.Cache.DefaultTTL(),
		MaxMemoryEntries: cfg.Cache.MaxMemoryEntries,
	})
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	sessions := session.NewStore(cfg.Sessions.MaxTurns, cfg.Sessions.IdleTimeout())

	var logWriter analysislog.Writer = analysislog.NoopWriter{}
	switch cfg.Analysis.LogDriver {
	case "", "sqlite":
		w, err := analysislog.NewSQLiteWriter(cfg.Analysis.LogDSN)
		if err != nil {
			log.Fatalf("Failed to open analysis log: %v", err)
		}
		defer func() { _ = w.Close() }()
		logWriter = w
	case "postgres":
		w, err := analysislog.NewPostgresWriter(cfg.Analysis.LogDSN)
		if err != nil {
			log.Fatalf("Failed to open analysis log: %v", err)
		}
		defer func() { _ = w.Close() }()
		logWriter = w
	case "off":
	}

	analyzer := tubelens.NewAnalyzer(registry, tiered, sessions, logWriter, cfg.Analysis.DefaultModel)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Dedicated background sweep: the only place expired sessions are
	// removed automatically.
	go func() {
		ticker := time.NewTicker(cfg.Sessions.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.CleanupExpired(); n > 0 {
					logging.Logger.Info("expired sessions removed", "count", n)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(analyzer, registry),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down gracefully…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("TubeLens %s listening on %s (%d provider(s))", version.Short(), cfg.Server.Addr, registry.Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		log.Fatalf("Server error: %v", err) //nolint:gocritic
	}
	log.Println("Server stopped.")
}

// newRouter builds the HTTP router.
func newRouter(analyzer *tubelens.Analyzer, registry *providers.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)

	h := &handlers{analyzer: analyzer, registry: registry}

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/v1/models", h.listModels)
	r.Post("/v1/analyze", h.analyze(tubelens.OpSEO))
	r.Post("/v1/keywords", h.analyze(tubelens.OpKeywords))
	r.Post("/v1/gap", h.analyze(tubelens.OpGap))
	r.Delete("/v1/cache", h.clearCache)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.listSessions)
		r.Get("/stats", h.sessionStats)
		r.Post("/cleanup", h.cleanupSessions)
		r.Delete("/", h.clearSessions)
		r.Delete("/{id}", h.deleteSession)
	})

	return r
}
