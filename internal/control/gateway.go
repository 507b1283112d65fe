// Package control wires configuration into a running dispatch gateway
// and manages its lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/solgate/internal/core/config"
	"github.com/vietddude/solgate/internal/health"
	redisclient "github.com/vietddude/solgate/internal/infra/redis"
	"github.com/vietddude/solgate/internal/infra/rpc"
	"github.com/vietddude/solgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/solgate/internal/infra/rpc/queue"
	"github.com/vietddude/solgate/internal/infra/rpc/retry"
	"github.com/vietddude/solgate/internal/infra/rpc/transport"
	"github.com/vietddude/solgate/internal/infra/storage/postgres"
)

// Gateway owns the dispatch layer and its supporting infrastructure.
type Gateway struct {
	cfg config.AppConfig
	log *slog.Logger

	registry     *endpoint.Registry
	queue        *queue.Dispatcher
	transport    transport.Transport
	client       *rpc.Client
	healthServer *health.Server

	db      *postgres.DB
	journal *postgres.Journal
	cache   *redisclient.Cache
}

// NewGateway builds all components from configuration. The database and
// cache are optional; they are skipped when no URL is configured.
func NewGateway(cfg config.AppConfig) (*Gateway, error) {
	log := slog.Default()
	g := &Gateway{cfg: cfg, log: log}

	specs := make([]endpoint.Spec, 0, len(cfg.Endpoints))
	for _, ec := range cfg.Endpoints {
		specs = append(specs, endpoint.Spec{Name: ec.Name, Addr: ec.URL, Weight: ec.Weight})
	}

	regOpts := []endpoint.Option{endpoint.WithLogger(log)}
	switch cfg.Dispatch.Strategy {
	case "", "round_robin":
	case "weighted":
		regOpts = append(regOpts, endpoint.WithStrategy(endpoint.NewSmoothWeighted()))
	default:
		return nil, fmt.Errorf("unknown dispatch strategy %q", cfg.Dispatch.Strategy)
	}
	g.registry = endpoint.NewRegistry(specs, endpoint.Config{
		MaxFailures:    cfg.Health.MaxFailures,
		RecoveryWindow: cfg.Health.RecoveryWindow.Std(),
	}, regOpts...)

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		g.db = db
		g.journal = postgres.NewJournal(db, log)
	}

	queueOpts := []queue.Option{queue.WithLogger(log)}
	if g.journal != nil {
		queueOpts = append(queueOpts, queue.WithObserver(g.journal.Record))
	}
	g.queue = queue.New(g.registry, queue.Config{
		Workers:      cfg.Dispatch.Workers,
		HighReserved: cfg.Dispatch.HighReserved,
	}, queueOpts...)

	retryOpts := []retry.Option{retry.WithLogger(log)}
	if cfg.Retry.ClassifyErrors {
		retryOpts = append(retryOpts, retry.WithPredicate(retry.Transient))
	}
	policy := retry.New(g.registry, g.queue, retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay.Std(),
		MaxDelay:    cfg.Retry.MaxDelay.Std(),
		Multiplier:  cfg.Retry.Multiplier,
	}, retryOpts...)

	switch cfg.Dispatch.Transport {
	case "", "http":
		g.transport = transport.NewHTTPTransport(cfg.Dispatch.Timeout.Std())
	case "grpc":
		g.transport = transport.NewGRPCTransport()
	default:
		return nil, fmt.Errorf("unknown dispatch transport %q", cfg.Dispatch.Transport)
	}

	clientOpts := []rpc.ClientOption{rpc.WithClientLogger(log)}
	if cfg.Cache.URL != "" {
		cache, err := redisclient.NewCache(cfg.Cache.RedisConfig())
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		g.cache = cache
		clientOpts = append(clientOpts, rpc.WithCache(cache))
	}
	g.client = rpc.NewClient(g.registry, g.queue, policy, g.transport, clientOpts...)

	g.healthServer = health.NewServer(health.NewMonitor(g.queue), cfg.Server.Port)

	return g, nil
}

// Client returns the unified RPC client.
func (g *Gateway) Client() *rpc.Client { return g.client }

// Start launches the health server.
func (g *Gateway) Start(ctx context.Context) error {
	go func() {
		if err := g.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.Error("health server failed", "error", err)
		}
	}()

	g.log.Info("gateway started",
		"endpoints", g.registry.Len(),
		"workers", g.cfg.Dispatch.Workers,
		"high_reserved", g.cfg.Dispatch.HighReserved,
		"port", g.cfg.Server.Port,
	)
	return nil
}

// Stop shuts down in dependency order: stop accepting health traffic,
// drain the queue, flush the journal, then close connections.
func (g *Gateway) Stop(ctx context.Context) error {
	var firstErr error

	if err := g.healthServer.Stop(ctx); err != nil {
		firstErr = err
	}

	g.queue.Close()

	if g.journal != nil {
		g.journal.Close()
	}
	if g.db != nil {
		if err := g.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if g.cache != nil {
		if err := g.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := g.transport.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	g.log.Info("gateway stopped")
	return firstErr
}
