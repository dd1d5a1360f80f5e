package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/unified-ledger/api/kvhandler"
	"github.com/ruteri/unified-ledger/api/proofhandler"
	"github.com/ruteri/unified-ledger/cmd/flags"
	"github.com/ruteri/unified-ledger/common"
	"github.com/ruteri/unified-ledger/config"
	"github.com/ruteri/unified-ledger/httpserver"
	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/ruteri/unified-ledger/metrics"
	"github.com/ruteri/unified-ledger/proofstore"
	"github.com/ruteri/unified-ledger/storage"
	"github.com/urfave/cli/v2"
)

var serverFlags = append([]cli.Flag{
	flags.ConfigFileFlag,
	flags.ListenAddrFlag,
	flags.StorageFlag,
	flags.StorageDNSFlag,
	flags.DNSServerFlag,
	flags.VerifyOnSetFlag,
	flags.AMQPURLFlag,
	flags.AMQPExchangeFlag,
	flags.LogServiceFlagFn(config.DefaultLogService),
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:    "proofstore-server",
		Usage:   "Serve the Unified Ledger proof store API",
		Version: common.Version,
		Flags:   serverFlags,
		Action:  run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	cfg, err := config.Load(cCtx.String(flags.ConfigFileFlag.Name))
	if err != nil {
		return err
	}
	flags.ApplyConfigOverrides(cCtx, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := flags.SetupLoggerFromConfig(cfg)

	locations, err := resolveLocations(cCtx.Context, cfg, logger)
	if err != nil {
		logger.Error("Failed to resolve storage locations", "err", err)
		return err
	}

	backend, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(locations)
	if err != nil {
		logger.Error("Failed to create storage backend", "err", err)
		return err
	}
	defer closeBackend(backend, logger)
	logger.Info("Storage configured", "backend", backend.Name(), "locations", len(locations))

	server, err := httpserver.New(flags.ConfigureServer(cfg, logger))
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	storeMetrics, err := metrics.NewStoreMetrics(common.PackageName, server.MetricsRegistry())
	if err != nil {
		logger.Error("Failed to register metrics", "err", err)
		return err
	}

	opts := []proofstore.Option{
		proofstore.WithLogger(logger),
		proofstore.WithMetrics(storeMetrics),
		proofstore.WithVerifyOnSet(cfg.VerifyOnSet),
	}

	if cfg.AMQP.URL != "" {
		publisher, err := proofstore.NewRabbitMQPublisher(proofstore.RabbitMQConfig{
			URL:        cfg.AMQP.URL,
			Exchange:   cfg.AMQP.Exchange,
			RoutingKey: cfg.AMQP.RoutingKey,
		})
		if err != nil {
			logger.Error("Failed to connect to RabbitMQ", "err", err)
			return err
		}
		defer publisher.Close()
		opts = append(opts, proofstore.WithPublisher(publisher))
		logger.Info("Publishing proof events", "exchange", cfg.AMQP.Exchange)
	}

	store := proofstore.New(
		storage.NewBackendStorage[interfaces.ProofID, interfaces.Proof](backend, interfaces.ProofNamespace, nil, logger),
		opts...)
	values := storage.NewBackendStorage[interfaces.ContentID, []byte](backend, interfaces.ValueNamespace, storage.BytesCodec{}, logger)

	server.RegisterHandler(proofhandler.NewHandler(store, logger))
	server.RegisterHandler(kvhandler.NewHandler(values, logger))

	logger.Info("Starting server", "verifyOnSet", cfg.VerifyOnSet)
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}

func resolveLocations(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]interfaces.StorageBackendLocation, error) {
	locations, err := cfg.StorageLocations()
	if err != nil {
		return nil, err
	}

	if cfg.StorageDNS == "" {
		return locations, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	discovered, err := storage.NewLocationResolver(cfg.DNSServer, logger).DiscoverBackendLocations(ctx, cfg.StorageDNS)
	if err != nil {
		return nil, err
	}
	logger.Info("Discovered storage locations", "domain", cfg.StorageDNS, "count", len(discovered))

	return append(locations, discovered...), nil
}

func closeBackend(backend interfaces.StorageBackend, logger *slog.Logger) {
	members := []interfaces.StorageBackend{backend}
	if multi, ok := backend.(*storage.MultiStorageBackend); ok {
		members = multi.Backends()
	}
	for _, b := range members {
		if closer, ok := b.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("Failed to close storage backend", "backend", b.Name(), "err", err)
			}
		}
	}
}
