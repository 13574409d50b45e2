package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/content-hash-registry/cmd/flags"
	"github.com/ruteri/content-hash-registry/common"
	"github.com/ruteri/content-hash-registry/host"
	"github.com/ruteri/content-hash-registry/httpserver"
	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/ruteri/content-hash-registry/metrics"
	"github.com/ruteri/content-hash-registry/storage"
	"github.com/urfave/cli/v2"
)

var listenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve content hash registries over HTTP",
		Flags: append([]cli.Flag{
			listenAddrFlag,
			flags.StorageFlag,
			flags.GasLimitFlag,
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)
			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(listenAddrFlag.Name))

			var locations []interfaces.StorageBackendLocation
			for _, uri := range cCtx.StringSlice(flags.StorageFlag.Name) {
				loc, err := interfaces.NewStorageBackendLocation(uri)
				if err != nil {
					logger.Error("Invalid storage location", "err", err)
					return err
				}
				locations = append(locations, loc)
			}

			store, err := storage.NewStorageBackendFactory(logger).CreateMultiStore(locations)
			if err != nil {
				logger.Error("Failed to open state store", "err", err)
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("Failed to close state store", "err", err)
				}
			}()
			logger.Info("State store ready", "backend", store.Name(), "location", store.LocationURI())

			metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}

			registryHost, err := host.New(host.Config{
				Store:    store,
				GasLimit: cCtx.Uint64(flags.GasLimitFlag.Name),
				Log:      logger,
				Metrics:  metricsSrv.Metrics(),
			})
			if err != nil {
				return fmt.Errorf("failed to create registry host: %w", err)
			}

			handler := httpserver.NewHandler(registryHost, logger, cfg.MaxBodySize, cfg.MaxClockSkew)
			server := httpserver.New(cfg, handler, metricsSrv)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
