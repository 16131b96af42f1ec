// Package main wires together the search service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/namisearch/nami/internal/api"
	"github.com/namisearch/nami/internal/cache"
	"github.com/namisearch/nami/internal/config"
	"github.com/namisearch/nami/internal/logging"
	"github.com/namisearch/nami/internal/search"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := search.NewCollyFetcher(search.FetcherConfig{
		UserAgent:   cfg.Search.UserAgent,
		Timeout:     cfg.SearchTimeout(),
		Parallelism: cfg.Search.Parallelism,
	}, logger)
	if err != nil {
		logger.Fatal("fetcher init failed", zap.Error(err))
	}
	searcher := search.NewSearcher(fetcher, search.SearcherConfig{
		Retries:     cfg.Search.Retries,
		BackoffBase: cfg.BackoffBase(),
	}, logger)
	aggregator := search.NewAggregator(searcher, search.AggregatorConfig{
		BaseURL:     cfg.Search.BaseURL,
		Filetype:    cfg.Search.Filetype,
		ArchiveHost: cfg.Search.ArchiveHost,
	}, logger)
	resultCache := cache.New(cfg.Cache.Capacity, cfg.CacheTTL())

	server := api.NewServer(aggregator, resultCache, cfg, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
