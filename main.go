package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tder311/nemflow/config"
	"github.com/tder311/nemflow/ingest"
	"github.com/tder311/nemflow/logger"
	"github.com/tder311/nemflow/reader/nemweb"
	"github.com/tder311/nemflow/refdata"
	"github.com/tder311/nemflow/store"
	"github.com/tder311/nemflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	unitsPath := flag.String("units", "", "Path to a generator reference CSV (optional)")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Nemflow.Name,
		"version": cfg.Nemflow.Version,
	}).Info("starting nemflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Initialize(ctx); err != nil {
		log.WithError(err).Error("failed to initialize schema")
		os.Exit(1)
	}

	if n, err := refdata.Import(ctx, st, *unitsPath); err != nil {
		log.WithError(err).Error("failed to load generator reference data")
		os.Exit(1)
	} else {
		log.WithFields(logger.Fields{"units": n}).Info("generator reference data loaded")
	}

	ing := ingest.New(cfg, st, nemweb.NewClient(cfg))

	exporter, err := writer.NewExporter(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create S3 exporter")
		os.Exit(1)
	}
	if exporter != nil {
		ing.UseExporter(exporter)
	} else {
		log.WithComponent("main").Info("S3 storage disabled; skipping raw export")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ing.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("ingestion loop exited")
		}
	}()

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("nemflow stopped")
}
