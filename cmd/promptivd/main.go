package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/midsbie/promptivd/internal/api"
	"github.com/midsbie/promptivd/internal/audit"
	"github.com/midsbie/promptivd/internal/config"
	"github.com/midsbie/promptivd/internal/observability"
	"github.com/midsbie/promptivd/internal/ratelimit"
	"github.com/midsbie/promptivd/internal/sink"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to promptivd.yaml")
	bindAddr := flag.String("bind", "", "override server.bind_addr")
	logLevel := flag.String("log-level", "", "override log_level (debug, info, warn, error)")
	initConfig := flag.Bool("init-config", false, "write the default configuration to -config and exit")
	validateConfig := flag.Bool("validate-config", false, "load and validate configuration, print the resolved config as JSON, and exit")
	flag.Parse()

	if *initConfig {
		if err := config.Save(*configPath, config.Default()); err != nil {
			log.Fatalf("failed to write default config: %v", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyEnvOverrides()
	if *bindAddr != "" {
		cfg.Server.BindAddr = *bindAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if *validateConfig {
		data, err := cfg.JSON()
		if err != nil {
			log.Fatalf("failed to render config: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Observability.OTLP.Endpoint != "" {
		if cfg.Observability.OTLP.ServiceName == "" {
			cfg.Observability.OTLP.ServiceName = "promptivd"
		}
		shutdown, err := observability.InitOTLP(ctx, cfg.Observability.OTLP)
		if err != nil {
			logger.Warn("failed to initialize OTLP", "error", err.Error())
		} else {
			defer shutdown(context.Background())
			logger.Info("OTLP observability initialized", "endpoint", cfg.Observability.OTLP.Endpoint)
		}
	}

	backend, err := audit.NewBackend(ctx, cfg.Audit)
	if err != nil {
		log.Fatalf("failed to initialize audit backend: %v", err)
	}
	auditWriter := audit.NewWriter(backend, cfg.Audit.QueueCapacity, logger)
	defer auditWriter.Close()

	registry := sink.NewRegistry()
	engine := sink.NewEngine(registry, cfg.Server.DispatchTimeout.Duration())
	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	server, err := api.NewServer(cfg, registry, engine, limiter, auditWriter, logger)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	logger.Info("promptivd starting", "bind_addr", cfg.Server.BindAddr, "require_sink", cfg.Server.RequireSink)
	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("promptivd shutdown complete")
}
