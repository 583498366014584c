package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	r "capm/data/repos"
	av "capm/service/api/alpha_vantage"
	"capm/service/api/fred"
	"capm/service/config"
	c "capm/service/core"
	"capm/service/logger"
)

func main() {
	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, envErr, err := config.Load()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("invalid configuration")
	}

	log := logger.Configure(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if envErr != nil {
		log.WithError(envErr).Debug(".env not loaded")
	}
	if cfg.AlphaVantageApiKey == "" || cfg.FredApiKey == "" {
		log.Warn("ALPHAVANTAGE_API_KEY or FRED_API_KEY is empty, price fetches will fail")
	}

	var stocks c.PriceSource = c.StockPriceSource{Client: av.GetClient(cfg.AlphaVantageApiKey, cfg.RequestsPerMinute)}
	var market c.PriceSource = c.MarketPriceSource{Client: fred.GetClient(cfg.FredApiKey, cfg.RequestsPerMinute)}

	registry := prometheus.NewRegistry()
	sc := c.NewServiceContext(stocks, market, cfg.MarketSeriesId, cfg.RiskFreeRate)
	sc.Metrics = c.NewMetrics(registry)

	// postgres is optional, without it prices are always fetched and runs are not recorded
	if cfg.CacheEnabled() {
		pg, err := r.GetPostgresConnection(ctx, cfg.DatabaseUrl)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		defer pg.Close()

		if err := pg.Ping(ctx); err != nil {
			log.WithError(err).Fatal("database is not reachable")
		}

		if err := pg.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("failed to migrate database")
		}

		sc.Stocks = c.NewCachedPriceSource(stocks, pg, cfg.CacheMaxAge)
		sc.Market = c.NewCachedPriceSource(market, pg, cfg.CacheMaxAge)
		sc.RunHistory = pg
	}

	s := c.GetHttpServer(sc, c.ServerOptions{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.AllowedOrigins,
		Gatherer:       registry,
	})

	go func() {
		log.WithFields(logger.Fields{"addr": s.Addr, "cache": cfg.CacheEnabled()}).Info("starting capm server")
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// will wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	log.Info("received shutdown signal, shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	log.Info("server stopped")
}
