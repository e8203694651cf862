// Package main runs topicd, the HTTP service in front of the topic workflow
// engine.
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

	"github.com/kimhsiao/topicflow/backend/cmd/topicd/handlers"
	"github.com/kimhsiao/topicflow/backend/internal/config"
	"github.com/kimhsiao/topicflow/backend/internal/db"
	"github.com/kimhsiao/topicflow/backend/internal/logging"
	"github.com/kimhsiao/topicflow/backend/internal/telemetry"
	"github.com/kimhsiao/topicflow/backend/internal/topics"
)

// Version is set at build time
var Version = "0.1.0"

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to topicd.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "topicd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Init(os.Stdout, cfg.LogLevel())
	log := logging.Get()

	database, err := db.OpenAndMigrate(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer database.Close()

	repo := db.NewRepository(database.DB)
	defer repo.Close()

	metrics := telemetry.New()
	engine := topics.NewEngine(repo, &topics.Config{
		DefaultLanguage: cfg.Content.DefaultLanguage,
		DefaultPageSize: cfg.Listing.DefaultPageSize,
		MaxPageSize:     cfg.Listing.MaxPageSize,
		Logger:          log,
		Metrics:         metrics,
	})

	api := handlers.NewAPI(engine, handlers.Options{
		Can:     topics.AllowAll,
		Health:  database.PingContext,
		Metrics: metrics.Handler(),
		Logger:  log,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("topicd starting", map[string]interface{}{"addr": cfg.HTTP.Addr, "version": Version})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("topicd shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
