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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/sheetmind/ai-gateway/config"
	"github.com/sheetmind/ai-gateway/internal/account"
	"github.com/sheetmind/ai-gateway/internal/auth"
	"github.com/sheetmind/ai-gateway/internal/billing"
	"github.com/sheetmind/ai-gateway/internal/cache"
	"github.com/sheetmind/ai-gateway/internal/gateway"
	"github.com/sheetmind/ai-gateway/internal/guard"
	"github.com/sheetmind/ai-gateway/internal/ledger"
	"github.com/sheetmind/ai-gateway/internal/provider"
	"github.com/sheetmind/ai-gateway/internal/provider/claude"
	"github.com/sheetmind/ai-gateway/internal/provider/gemini"
	"github.com/sheetmind/ai-gateway/internal/provider/openai"
	"github.com/sheetmind/ai-gateway/internal/seeder"
	"github.com/sheetmind/ai-gateway/internal/telemetry"
	"github.com/sheetmind/ai-gateway/internal/templates"
	"github.com/sheetmind/ai-gateway/pkg/ratelimit"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Init telemetry
	shutdownTracer, err := telemetry.InitTracer("ai-gateway", cfg.OTELExporterType, cfg.OTELExporterEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer shutdownTracer()

	// 3. Connect PostgreSQL
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping postgres: %v", err)
	}
	log.Println("PostgreSQL connected")

	// 4. Connect Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping redis: %v", err)
	}
	log.Println("Redis connected")

	// 5. Stores
	keyStore := auth.NewPostgresStore(pool)
	accountStore := account.NewPostgresStore(pool)
	usageStore := ledger.NewPostgresStore(pool)
	templateStore := templates.NewPostgresStore(pool)

	// 6. Active provider — a process-wide choice, not per request
	var active provider.Provider
	switch cfg.AIProvider {
	case "claude":
		active = claude.New(cfg.AnthropicAPIKey)
	case "openai":
		active = openai.New(cfg.OpenAIAPIKey)
	default:
		active = gemini.New(cfg.GeminiAPIKey)
	}
	log.Printf("Active provider: %s", active.Name())

	// 7. Gated pipeline
	limiter := ratelimit.NewLimiter(rdb)
	requestGuard := guard.New(accountStore, limiter)
	responseCache := cache.New(rdb)
	creditLedger := ledger.New(accountStore, usageStore)
	tracer := otel.GetTracerProvider().Tracer("ai-gateway")
	svc := gateway.NewService(requestGuard, responseCache, active, creditLedger, tracer)
	handler := gateway.NewHandler(svc, usageStore, templateStore)

	// 8. Billing collaborator
	authMiddleware := auth.NewMiddleware(keyStore, rdb)
	billingWebhook := billing.NewWebhookHandler(accountStore, cfg.StripeWebhookSecret, cfg.StripeStarterPrice, cfg.StripeProPrice)

	// 9. Seed test tenant if RUN_SEED=true
	if os.Getenv("RUN_SEED") == "true" {
		seeder.SeedTestTenant(ctx, keyStore, accountStore)
	}

	// 10. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"ai-gateway"}`))
	})
	r.Post("/webhooks/billing", billingWebhook.ServeHTTP)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/v1/formula", handler.HandleFormula)
		r.Post("/v1/chat", handler.HandleChat)
		r.Post("/v1/insights", handler.HandleInsights)
		r.Post("/v1/template", handler.HandleTemplate)
		r.Get("/v1/templates/{id}/export", handler.HandleTemplateExport)
		r.Get("/v1/usage", handler.HandleUsage)
	})

	// 11. Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("AI Gateway starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
