package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
)

// notifierBuffer is how many change events may wait for the broker.
const notifierBuffer = 64

func main() {
	cfg, logger := cli.Bootstrap("budget")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	store, closeStore, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := apphttp.NewServer(store, apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ExportCacheTTL:     cfg.ExportCacheTTL,
		DefaultLocale:      cfg.ReportLocale,
		Logger:             logger,
	})
	// No WriteTimeout: /api/events responses stay open.
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	sweeper := cache.NewManager(logger)
	for _, c := range srv.Cleaners() {
		sweeper.Register(c)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		notifier := amqp.NewNotifier(client, notifierBuffer, logger)
		unsubscribe := store.Subscribe(notifier)
		defer unsubscribe()
		g.Go(func() error { return notifier.Run(gctx) })
		logger.Info("Publishing budget changes", "exchange", cfg.AMQPExchange, "source", notifier.Source())
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		sweeper.Run(gctx, time.Minute)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
