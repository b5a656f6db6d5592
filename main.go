package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jobminer/config"
	"jobminer/internal/bootstrap"
	"jobminer/pkg/logger"
)

// shutdownTimeout bounds graceful shutdown of the server and an in-flight
// mining cycle.
const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env if present (local development)
	_ = godotenv.Load()

	mode := flag.String("mode", "all", "Run mode: api, worker, all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Service: "jobminer"})
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	level := "info"
	if cfg.IsDevelopment() {
		level = "debug"
	}
	log := logger.New(logger.Config{
		Level:   level,
		Service: "jobminer",
		Pretty:  cfg.IsDevelopment(),
	})

	deps, cleanup, err := bootstrap.NewDependencies(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	defer cleanup()

	switch *mode {
	case "api":
		runAPI(cfg, deps, log)
	case "worker":
		runWorker(cfg, deps, log)
	case "all":
		worker := startWorker(cfg, deps)
		defer worker.Stop()
		runAPI(cfg, deps, log)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

func runAPI(cfg *config.Config, deps *bootstrap.Dependencies, log zerolog.Logger) {
	app := bootstrap.NewAPI(cfg, deps)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Dur("timeout", shutdownTimeout).Msg("shutting down API server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("starting API server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func startWorker(cfg *config.Config, deps *bootstrap.Dependencies) *bootstrap.Worker {
	worker := bootstrap.NewWorker(cfg, deps)
	if cfg.SchedulerEnabled {
		worker.Start()
	}
	return worker
}

func runWorker(cfg *config.Config, deps *bootstrap.Dependencies, log zerolog.Logger) {
	worker := startWorker(cfg, deps)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down worker")
	done := make(chan struct{})
	go func() {
		worker.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("worker shut down gracefully")
	case <-time.After(shutdownTimeout):
		log.Warn().Msg("worker shutdown timed out, forcing exit")
	}
}
