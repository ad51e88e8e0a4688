// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seazone-ai/sia/internal/config"
	"github.com/seazone-ai/sia/internal/handler"
	"github.com/seazone-ai/sia/internal/llm"
	"github.com/seazone-ai/sia/internal/middleware"
	"github.com/seazone-ai/sia/internal/model"
	natsclient "github.com/seazone-ai/sia/internal/nats"
	"github.com/seazone-ai/sia/internal/orchestrator"
	"github.com/seazone-ai/sia/internal/places"
	"github.com/seazone-ai/sia/internal/prompt"
	"github.com/seazone-ai/sia/internal/region"
	"github.com/seazone-ai/sia/internal/service"
	"github.com/seazone-ai/sia/internal/session"
	"github.com/seazone-ai/sia/internal/tool"
	"github.com/seazone-ai/sia/pkg/logger"
	"github.com/seazone-ai/sia/pkg/tracing"
)

func main() {
	// .env is a local convenience; missing file is fine
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting Sia qualification API")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "sia-qualification", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Model providers. Either key may be absent; the gateway rejects
	// models whose provider is unconfigured.
	var openAIClient, geminiClient llm.Client
	if cfg.OpenAIAPIKey != "" {
		c, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn("failed to create OpenAI client", zap.Error(err))
		} else {
			openAIClient = c
		}
	}
	if cfg.GeminiAPIKey != "" {
		c, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Warn("failed to create Gemini client", zap.Error(err))
		} else {
			geminiClient = c
		}
	}
	gateway := llm.NewGateway(openAIClient, geminiClient)
	if !gateway.HasProvider() {
		log.Warn("no model provider configured, turns will fail")
	}

	// Lead outbox is optional; without NATS qualifications stay in the
	// session aggregates only.
	var publisher service.LeadPublisher
	if cfg.NATSURL != "" {
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, lead outbox disabled", zap.Error(err))
		} else {
			defer nc.Close()
			outbox := natsclient.NewOutbox(nc)
			if err := outbox.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure leads stream, lead outbox disabled", zap.Error(err))
			} else {
				publisher = outbox
			}
		}
	}

	var placesClient *places.Client
	if cfg.GooglePlacesAPIKey != "" {
		placesClient, err = places.NewClient(cfg.GooglePlacesAPIKey, log)
		if err != nil {
			log.Warn("failed to create places client", zap.Error(err))
		}
	} else {
		log.Warn("GOOGLE_PLACES_API_KEY not set, address search disabled")
	}

	catalog := region.DefaultCatalog()
	registry := tool.NewRegistry(catalog)

	defaults := model.Settings{
		Model:                     cfg.DefaultModel,
		Temperature:               cfg.DefaultTemperature,
		SystemPrompt:              prompt.System,
		EnableValidateLocation:    true,
		EnableSubmitQualification: true,
	}
	sessions := session.NewManager(defaults, log)
	loop := orchestrator.NewLoop(gateway, registry, log, cfg.MaxTurnSteps)
	turns := service.NewTurnService(sessions, loop, publisher, log)

	healthHandler := handler.NewHealthHandler(gateway)
	sessionHandler := handler.NewSessionHandler(sessions, turns, log)
	chatHandler := handler.NewChatHandler(turns, log)
	messageHandler := handler.NewMessageHandler(sessions, turns, log)
	placesHandler := handler.NewPlacesHandler(placesClient)
	modelsHandler := handler.NewModelsHandler()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Put("/", sessionHandler.UpdateSettings)
				r.Delete("/", sessionHandler.Delete)
				r.Post("/reset", sessionHandler.Reset)

				r.Post("/messages", chatHandler.Send)
				r.Post("/location", chatHandler.SendLocation)
				r.Put("/messages/{messageID}", messageHandler.Edit)
				r.Delete("/messages/{messageID}", messageHandler.Delete)
			})
		})

		r.Get("/models", modelsHandler.List)

		r.Route("/places", func(r chi.Router) {
			r.Get("/suggest", placesHandler.Suggest)
			r.Get("/{placeID}", placesHandler.Details)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
