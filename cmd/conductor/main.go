package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/conductor-config/internal/application"
	"github.com/eugenenazirov/conductor-config/internal/conductor"
	"github.com/eugenenazirov/conductor-config/internal/config"
	"github.com/eugenenazirov/conductor-config/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("conductor", "Conductor - resolves layered device test session configuration")

	resolveCmd := kingpinApp.Command("resolve", "Resolve a session configuration and print it")
	resolveSource := resolveCmd.Flag("source", "Path to the session YAML source (defaults to ./"+conductor.DefaultSourceFile+")").String()
	resolveProperties := resolveCmd.Flag("define", "Override variable NAME=VALUE, beats the environment").Short('D').StringMap()
	resolvePlatform := resolveCmd.Flag("platform", "Pin the platform (NONE, IOS, ANDROID)").String()
	resolveSchemes := resolveCmd.Flag("schemes", "Comma-separated scheme list replacing currentSchemes").String()
	resolveSets := resolveCmd.Flag("set", "Set a resolved key after loading, key=value").StringMap()
	resolveFormat := resolveCmd.Flag("format", "Output format").Default(formatJSON).Enum(formatJSON, formatYAML, formatCapabilities)
	resolveLogLevel := resolveCmd.Flag("log-level", "Log level for binding warnings").Default("warn").String()

	serveCmd := kingpinApp.Command("serve", "Serve the configuration inspection API")
	configFile := serveCmd.Flag("config", "Path to YAML configuration file").String()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	source := serveCmd.Flag("source", "Path to the session YAML source resolved at startup").String()
	logLevel := serveCmd.Flag("log-level", "Log level (debug, info, warn, error)").String()
	serveProperties := serveCmd.Flag("define", "Override variable NAME=VALUE, beats the environment").Short('D').StringMap()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	switch kingpin.MustParse(kingpinApp.Parse(os.Args[1:])) {
	case resolveCmd.FullCommand():
		logger, err := logging.New(*resolveLogLevel)
		if err != nil {
			kingpinApp.Fatalf("failed to initialize logger: %v", err)
		}
		defer func() {
			_ = logger.Sync()
		}()

		opts := resolveOptions{
			source:     *resolveSource,
			properties: *resolveProperties,
			platform:   *resolvePlatform,
			schemes:    *resolveSchemes,
			sets:       *resolveSets,
			format:     *resolveFormat,
		}
		if err := runResolve(opts, logger, os.Stdout); err != nil {
			logger.Error("resolve failed", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}

	case serveCmd.FullCommand():
		overrides := &config.CLIOverrides{
			ConfigFile: *configFile,
		}
		if *port != "" {
			overrides.Port = port
		}
		if *source != "" {
			overrides.Source = source
		}
		if *logLevel != "" {
			overrides.LogLevel = logLevel
		}
		if *rateLimitRPSFlag >= 0 {
			overrides.RateLimitRPS = rateLimitRPSFlag
		}
		if *rateLimitBurstFlag >= 0 {
			overrides.RateLimitBurst = rateLimitBurstFlag
		}

		serve(overrides, conductor.ProcessOverrides(*serveProperties))
	}
}

func serve(overrides *config.CLIOverrides, sessionOverrides conductor.Overrides) {
	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger, sessionOverrides)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
