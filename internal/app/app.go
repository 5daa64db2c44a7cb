// Package app wires the long-lived enrichment services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/api"
	"github.com/JakeFAU/lead-enricher/internal/config"
	"github.com/JakeFAU/lead-enricher/internal/enrich"
	collyfetcher "github.com/JakeFAU/lead-enricher/internal/fetcher/colly"
	"github.com/JakeFAU/lead-enricher/internal/metrics"
	"github.com/JakeFAU/lead-enricher/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/lead-enricher/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/lead-enricher/internal/publisher/pubsub"
	memorystore "github.com/JakeFAU/lead-enricher/internal/storage/memory"
	"github.com/JakeFAU/lead-enricher/internal/storage/postgres"
	"github.com/JakeFAU/lead-enricher/internal/store"
)

// App holds the services shared by the CLI commands.
type App struct {
	Logger    *zap.Logger
	Enricher  *enrich.Enricher
	Results   store.ResultStore
	Publisher store.Publisher
	Server    *api.Server

	closers []func() error
}

// Options overrides pieces of the default wiring.
type Options struct {
	// Fetcher replaces the Colly fetcher.
	Fetcher enrich.Fetcher
}

// New builds every service described by cfg. Postgres is used when db.dsn is set and
// Pub/Sub when pubsub.topic_name is set; otherwise in-memory implementations stand in.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	a := &App{Logger: logger}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent:     cfg.HTTP.UserAgent,
			RespectRobots: cfg.HTTP.RespectRobots,
			Timeout:       cfg.FetchTimeout(),
			MaxBodySize:   cfg.HTTP.MaxBodyBytes,
		}, logger.Named("fetcher"))
	}

	var search *enrich.SearchEngine
	if cfg.Search.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			RatePerSecond: cfg.Search.RatePerSecond,
			Burst:         cfg.Search.Burst,
		})
		var err error
		search, err = enrich.NewSearchEngine(fetcher, enrich.SearchConfig{
			BaseURL:         cfg.Search.BaseURL,
			ExcludedDomains: cfg.Search.ExcludedDomains,
		}, limiter, logger.Named("search"))
		if err != nil {
			return nil, fmt.Errorf("init search engine: %w", err)
		}
	}

	resolver := enrich.NewResolver(fetcher, search, enrich.ResolverConfig{TLDs: cfg.Resolver.TLDs}, logger.Named("resolver"))
	a.Enricher = enrich.New(fetcher, resolver, enrich.Config{
		ContactLinkCap: cfg.Links.ContactCap,
		CareerLinkCap:  cfg.Links.CareerCap,
	}, logger)

	if err := a.initResults(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initPublisher(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	a.Server = api.NewServer(a.Enricher, a.Results, a.Publisher, cfg, logger.Named("api"))
	return a, nil
}

func (a *App) initResults(ctx context.Context, cfg config.Config) error {
	if cfg.DB.DSN == "" {
		a.Logger.Info("using in-memory result store")
		a.Results = memorystore.NewResultStore()
		return nil
	}
	pg, err := postgres.NewResultStore(ctx, postgres.ResultStoreConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: int32(cfg.DB.MaxConns),
	})
	if err != nil {
		return fmt.Errorf("init postgres result store: %w", err)
	}
	a.closers = append(a.closers, func() error {
		pg.Close()
		return nil
	})
	if err := pg.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure result schema: %w", err)
	}
	a.Logger.Info("using postgres result store")
	a.Results = pg
	return nil
}

func (a *App) initPublisher(ctx context.Context, cfg config.Config) error {
	if cfg.PubSub.TopicName == "" {
		a.Logger.Info("using in-memory event publisher")
		mem := memorypublisher.New()
		a.Publisher = mem
		a.closers = append(a.closers, mem.Close)
		return nil
	}
	pub, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
	if err != nil {
		return fmt.Errorf("init pubsub publisher: %w", err)
	}
	a.Logger.Info("publishing events to pubsub", zap.String("topic", cfg.PubSub.TopicName))
	a.Publisher = pub
	a.closers = append(a.closers, pub.Close)
	return nil
}

// Close releases every service in reverse order of construction.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.Logger.Warn("closing services failed", zap.Error(err))
		return err
	}
	return nil
}
