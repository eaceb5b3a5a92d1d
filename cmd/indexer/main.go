package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/sociallayer-im/solindexer/config"
	"github.com/sociallayer-im/solindexer/engine"
	"github.com/sociallayer-im/solindexer/httpapi"
)

func main() {
	app := &cli.App{
		Name:  "solindexer",
		Usage: "durable indexer for transactions touching a configured Solana program",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration.yaml (overrides INDEXER_CFG)",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "address for the health/metrics HTTP surface",
				Value: "0.0.0.0:9090",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if path := c.String("config"); path != "" {
		os.Setenv("INDEXER_CFG", path)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := engine.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer eng.Close()

	httpServer := httpapi.NewServer(c.String("http-addr"), eng.Report(), logger)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Warn("health/metrics server stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	indexingDone := make(chan error, 1)
	go func() {
		indexingDone <- eng.StartIndexing(ctx)
	}()

	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
		cancel()
		<-indexingDone
	case err := <-indexingDone:
		if err != nil {
			return fmt.Errorf("indexing loop: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Stop(shutdownCtx)

	return nil
}
