package app

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"alterview/internal/auth"
	"alterview/internal/catalog"
	"alterview/internal/chat"
	"alterview/internal/completion"
	"alterview/internal/config"
	"alterview/internal/httpapi"
	"alterview/internal/observability"
	"alterview/internal/profile"
	"alterview/internal/snapshot"
	"alterview/internal/source"
)

// App bundles the wired service and its cleanup hook.
type App struct {
	Server  *httpapi.Server
	Cleanup func()
}

// Build wires stores, providers and the HTTP surface from config. With a
// DATABASE_URL all stores share one pgx pool; without it everything runs
// in process memory.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		log.Printf("storage: postgres")
	} else {
		log.Printf("storage: in-memory (DATABASE_URL not set)")
	}

	profiles, err := snapshot.NewStore[profile.Payload](ctx, pool, "profile")
	if err != nil {
		return nil, fmt.Errorf("profile store init: %w", err)
	}
	experiences, err := snapshot.NewStore[profile.ExperiencePayload](ctx, pool, "experience")
	if err != nil {
		return nil, fmt.Errorf("experience store init: %w", err)
	}
	keywords, err := catalog.NewStore(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("keyword store init: %w", err)
	}
	sources, err := source.NewStore(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("source store init: %w", err)
	}
	rooms, err := chat.NewStore(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("chat store init: %w", err)
	}

	resolver := source.NewHTTPResolver(cfg.SourceResolveTimeout, int64(cfg.SourceMaxBytes))
	profileService := profile.NewService(profiles, experiences, keywords, sources, resolver)

	provider, err := completion.NewProvider(completion.Config{
		Mode:    cfg.CompletionMode,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		return nil, fmt.Errorf("completion provider init: %w", err)
	}

	hub := chat.NewHub()
	orchestrator := chat.NewOrchestrator(rooms, profileService, provider, auth.RoomAuthorizer{}, metrics, hub, cfg.CompletionTimeout)
	verifier := auth.NewTokenVerifier(cfg.AuthSecret, cfg.AuthTokenTTL)

	ready := func(ctx context.Context) error {
		if pool == nil {
			return nil
		}
		return pool.Ping(ctx)
	}

	server := httpapi.New(cfg, profileService, keywords, rooms, orchestrator, hub, verifier, metrics, ready)

	cleanup := func() {
		if pool != nil {
			pool.Close()
		}
	}
	return &App{Server: server, Cleanup: cleanup}, nil
}
