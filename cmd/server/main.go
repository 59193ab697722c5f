package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olyamironova/depthbook/internal/adapter/binance"
	"github.com/olyamironova/depthbook/internal/adapter/cache"
	"github.com/olyamironova/depthbook/internal/adapter/in_memory"
	"github.com/olyamironova/depthbook/internal/adapter/pg"
	grpcapi "github.com/olyamironova/depthbook/internal/api/grpc"
	httpapi "github.com/olyamironova/depthbook/internal/api/http"
	"github.com/olyamironova/depthbook/internal/config"
	"github.com/olyamironova/depthbook/internal/core"
	"github.com/olyamironova/depthbook/internal/logger"
	"github.com/olyamironova/depthbook/internal/port"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	pgPurgeInterval   = 5 * time.Minute
	healthSyncEvery   = 5 * time.Second
	connectionTimeout = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	log := logger.ForApp(logger.New(cfg.App.LogLevel), cfg.App.Name, cfg.App.Env)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

// run owns every resource it opens. Listeners are bound before any
// goroutine starts so a startup failure leaves nothing running.
func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpLis, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.HTTP.Addr, err)
	}
	defer httpLis.Close()

	var grpcLis net.Listener
	if cfg.GRPC.Addr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", cfg.GRPC.Addr, err)
		}
		defer grpcLis.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	store, closeStore, err := openStore(ctx, cfg, g, log)
	if err != nil {
		return fmt.Errorf("open %s cache store: %w", cfg.Cache.Backend, err)
	}
	defer closeStore()

	exchange := binance.NewClient(cfg.Exchange.BaseURL, cfg.ExchangeTimeout(), cfg.Exchange.OrderBookLimit)
	registry := core.NewSymbolRegistry()
	refresher := core.NewRegistryRefresher(registry, exchange, cfg.RefreshInterval(), log)
	books := core.NewOrderBookCache(store, exchange, cfg.CacheTTL(), log)
	eng := core.NewEngine(exchange, registry, books, log)

	g.Go(func() error {
		refresher.Run(ctx)
		return nil
	})

	httpSrv := &http.Server{
		Handler:           httpapi.NewHTTPServer(eng, cfg.RateLimit(), log).Router(),
		ReadHeaderTimeout: connectionTimeout,
	}
	g.Go(func() error {
		log.Info().Str("addr", httpLis.Addr().String()).Msg("HTTP server listening")
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if grpcLis != nil {
		rpc := grpcapi.NewGRPCServer(eng, log)
		grpcSrv, hs := grpcapi.NewServer(rpc)
		g.Go(func() error {
			log.Info().Str("addr", grpcLis.Addr().String()).Msg("gRPC server listening")
			return grpcSrv.Serve(grpcLis)
		})
		g.Go(func() error {
			rpc.SyncHealth(ctx, hs, healthSyncEvery)
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			hs.Shutdown()
			grpcSrv.GracefulStop()
			return nil
		})
	}

	return g.Wait()
}

// openStore builds the configured cache backend. The returned func releases
// its connections.
func openStore(ctx context.Context, cfg *config.Config, g *errgroup.Group, log zerolog.Logger) (port.CacheStore, func(), error) {
	switch cfg.Cache.Backend {
	case config.BackendPostgres:
		s, err := pg.NewStore(ctx, cfg.Cache.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		g.Go(func() error {
			purgeExpired(ctx, s, log)
			return nil
		})
		log.Info().Msg("using postgres cache store")
		return s, s.Close, nil
	case config.BackendMemory:
		log.Info().Msg("using in-memory cache store")
		return in_memory.NewCache(), func() {}, nil
	default:
		s := cache.NewRedisStore(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
		defer cancel()
		if err := s.Ping(pingCtx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("using redis cache store")
		return s, func() { _ = s.Close() }, nil
	}
}

func purgeExpired(ctx context.Context, s *pg.Store, log zerolog.Logger) {
	ticker := time.NewTicker(pgPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Purge(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn().Err(err).Msg("purge of expired cache rows failed")
				}
				continue
			}
			log.Debug().Int64("rows", n).Msg("purged expired cache rows")
		}
	}
}
