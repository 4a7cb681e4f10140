package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"coinlizard/config"
	"coinlizard/internal/coin"
	"coinlizard/internal/httpapi"
	"coinlizard/internal/pairs"
	"coinlizard/internal/store"
	"coinlizard/internal/stream"
	"coinlizard/logger"
	"coinlizard/pkg/binance"
	"coinlizard/pkg/coinbase"
	"coinlizard/pkg/storage/postgres"
	redisstore "coinlizard/pkg/storage/redis"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("coinlizard failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := coin.NewCatalog(cfg.Coins)
	if err != nil {
		return err
	}

	coinbaseClient := coinbase.NewRESTClient(cfg.Exchanges.Coinbase, log)
	binanceClient := binance.NewRESTClient(cfg.Exchanges.Binance, log)

	priceStore, checks, closeStore, err := buildStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	timedStore := store.WithTimeouts(priceStore, cfg.Store.ReadTimeout, cfg.Store.WriteTimeout)

	svc, err := coin.NewService(catalog, []coin.ExchangeConnector{coinbaseClient, binanceClient},
		timedStore, cfg.Exchanges.UpstreamTimeout, log)
	if err != nil {
		return err
	}

	// trading pairs, refreshed on schedule
	registry := pairs.NewRegistry([]pairs.Source{coinbaseClient, binanceClient}, cfg.Exchanges.UpstreamTimeout, log)
	scheduler, err := pairs.NewScheduler(ctx, cfg.Pairs.RefreshCron, registry, log)
	if err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// optional live ticker feed keeping the current-price cache warm
	if cfg.Stream.Enabled {
		ws, err := stream.Start(ctx, cfg.Exchanges.Binance.WSURL, catalog.Pairs(cfg.Stream.Quotes),
			priceStore, cfg.Store.WriteTimeout, log)
		if err != nil {
			log.Warn("ticker stream disabled: connect failed", zap.Error(err))
		} else {
			defer ws.Close()
		}
	}

	srv := httpapi.NewServer(cfg.Server, svc, registry, checks, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStore selects the store backend and returns its health checks and a close func.
func buildStore(cfg *config.Config, log *zap.Logger) (coin.PriceStore, map[string]httpapi.HealthCheck, func(), error) {
	checks := make(map[string]httpapi.HealthCheck)
	ttl := cfg.Store.CurrentPriceTTL

	if cfg.Store.Backend == "memory" {
		log.Info("using in-memory price store", zap.Duration("current_price_ttl", ttl))
		return store.NewMemoryStore(ttl), checks, func() {}, nil
	}

	pg, err := postgres.Initialize(cfg.Postgres, cfg.Log.Environment, cfg.Store.CreateDatabase)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	checks["postgres"] = func(ctx context.Context) error {
		if !pg.IsHealthy(ctx) {
			return errors.New("ping failed")
		}
		return nil
	}
	closers := []func() error{pg.Close}

	var cache store.Cache
	if cfg.Redis.Addr != "" {
		rc := redisstore.NewPriceCache(redisstore.NewClient(cfg.Redis), ttl)
		cache = rc
		checks["redis"] = rc.Ping
		closers = append(closers, rc.Close)
	}

	log.Info("using postgres price store", zap.Bool("redis", cache != nil), zap.Duration("current_price_ttl", ttl))

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("failed to close store", zap.Error(err))
			}
		}
	}
	return store.NewCompositeStore(pg, cache, ttl, log), checks, closeAll, nil
}
