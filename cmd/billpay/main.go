package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"billpay/internal/amqp"
	"billpay/internal/cli"
	"billpay/internal/ledger"
	"billpay/internal/log"
	"billpay/internal/repl"
	"billpay/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file for local development (ignored when absent)
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)
	if cfgErr != nil {
		logger.Error("Configuration validation failed", log.FieldError, cfgErr)
		return 1
	}

	logger.Info("Starting billpay",
		"journal", cfg.JournalEnabled,
		"notifier", cfg.NotifierEnabled())

	j, err := cli.OpenJournal(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize journal", log.FieldError, err)
		return 1
	}
	if j != nil {
		defer j.Close()
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	ledgerOpts := []ledger.Option{ledger.WithLogger(logger)}
	if j != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithObserver(j))
	}

	// Publish ledger events to RabbitMQ only when a broker is configured
	if cfg.NotifierEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			return 1
		}
		defer client.Close()

		w := worker.NewEventWorker(client, cfg.EventBuffer, cfg.ShutdownTimeout, logger)
		ledgerOpts = append(ledgerOpts, ledger.WithObserver(w))
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	l, err := ledger.New(ledgerOpts...)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		return 1
	}

	replOpts := []repl.Option{
		repl.WithLogger(logger),
		repl.WithInteractive(cli.IsInteractive(os.Stdin)),
	}
	if j != nil {
		replOpts = append(replOpts, repl.WithHistory(j))
	}
	interpreter := repl.New(l, os.Stdin, os.Stdout, replOpts...)

	g.Go(func() error {
		// The session is over: stop the worker too.
		defer cancel()
		return interpreter.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Shutdown with error", log.FieldError, err)
		return 1
	}

	logger.Info("Shutdown complete", "balance", l.Balance())
	return 0
}
