package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/campaign-intel-backend/api/routes"
	"github.com/angelmondragon/campaign-intel-backend/internal/agent"
	"github.com/angelmondragon/campaign-intel-backend/internal/promotions"
	"github.com/angelmondragon/campaign-intel-backend/internal/sessions"
	"github.com/angelmondragon/campaign-intel-backend/internal/shopping"
	"github.com/angelmondragon/campaign-intel-backend/pkg/config"
	"github.com/angelmondragon/campaign-intel-backend/pkg/instance"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/metrics"
	"github.com/angelmondragon/campaign-intel-backend/pkg/openai"
	"github.com/angelmondragon/campaign-intel-backend/pkg/pricehistory"
	"github.com/angelmondragon/campaign-intel-backend/pkg/redis"
	"github.com/angelmondragon/campaign-intel-backend/pkg/serpapi"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var deps routes.Dependencies
	var closers []func() error
	defer func() {
		for _, closeFn := range closers {
			err = multierr.Append(err, closeFn())
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		deps.RedisPinger = redisClient
		deps.RateLimiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, sessions stay in memory and chat is not rate limited")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)
	deps.Metrics = registry

	if cfg.Session.UsesRedis() {
		store, err := sessions.NewRedisStore(redisClient, cfg.Session.TTL, cfg.Session.MaxHistory)
		if err != nil {
			return err
		}
		deps.Sessions = store
	} else {
		deps.Sessions = sessions.NewMemoryStore(cfg.Session.TTL, cfg.Session.MaxHistory)
	}

	var searchClient shopping.SearchClient
	if strings.TrimSpace(cfg.Search.APIKey) != "" {
		client, err := serpapi.NewClient(cfg.Search.APIKey,
			serpapi.WithBaseURL(cfg.Search.BaseURL),
			serpapi.WithTimeout(cfg.Search.Timeout),
		)
		if err != nil {
			return err
		}
		searchClient = client
	} else {
		logg.Warn(logg.WithProvider(ctx, serpapi.Provider), "provider not configured")
	}

	shoppingService, err := shopping.NewService(shopping.ServiceParams{
		Client:   searchClient,
		Keyword:  cfg.Search.Keyword,
		Category: cfg.Search.Category,
		MaxItems: cfg.Search.MaxItems,
		Metrics:  upstreamMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	deps.Shopping = shoppingService

	var historyClient promotions.HistoryClient
	if strings.TrimSpace(cfg.PriceHistory.APIKey) != "" {
		client, err := pricehistory.NewClient(cfg.PriceHistory.APIKey,
			pricehistory.WithHost(cfg.PriceHistory.Host),
			pricehistory.WithCountry(cfg.PriceHistory.Country),
			pricehistory.WithTimeout(cfg.PriceHistory.Timeout),
		)
		if err != nil {
			return err
		}
		historyClient = client
	} else {
		logg.Warn(logg.WithProvider(ctx, pricehistory.Provider), "provider not configured")
	}

	promotionsService, err := promotions.NewService(promotions.ServiceParams{
		Client:  historyClient,
		Metrics: upstreamMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	deps.Promotions = promotionsService

	var chatClient agent.ChatClient
	if strings.TrimSpace(cfg.OpenAI.APIKey) != "" {
		client, err := openai.NewClient(cfg.OpenAI.APIKey,
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithTimeout(cfg.OpenAI.Timeout),
		)
		if err != nil {
			return err
		}
		chatClient = client
	} else {
		logg.Warn(logg.WithProvider(ctx, openai.Provider), "provider not configured")
	}

	temperature := cfg.OpenAI.Temperature
	chatAgent, err := agent.New(agent.Params{
		Client:      chatClient,
		Fetcher:     shoppingService,
		Model:       cfg.OpenAI.Model,
		Temperature: &temperature,
		MaxToolRuns: cfg.OpenAI.MaxToolRuns,
		Metrics:     upstreamMetrics,
		Logger:      logg,
	})
	if err != nil {
		return err
	}
	deps.Agent = chatAgent

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"session_store": cfg.Session.Store,
		"instance":      instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, deps),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
