package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HealthForge/vitalsim/internal/chat"
	"github.com/HealthForge/vitalsim/internal/config"
	"github.com/HealthForge/vitalsim/internal/event"
	"github.com/HealthForge/vitalsim/internal/feed"
	"github.com/HealthForge/vitalsim/internal/generator"
	"github.com/HealthForge/vitalsim/internal/history"
	"github.com/HealthForge/vitalsim/internal/records"
	"github.com/HealthForge/vitalsim/internal/server"
	"github.com/HealthForge/vitalsim/internal/share"
	"github.com/HealthForge/vitalsim/internal/simulator"
	"github.com/HealthForge/vitalsim/internal/store"
	"github.com/HealthForge/vitalsim/internal/version"
	"github.com/HealthForge/vitalsim/internal/ws"
	"go.uber.org/zap"
)

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "generate":
			runGenerate(os.Args[2:])
			return
		case "version":
			fmt.Println(version.Info())
			return
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger from configuration.
	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("VitalSim server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	// Open database
	dbPath := viperCfg.GetString("database.path")
	if dbPath == "" {
		dbPath = "vitalsim.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		logger.Fatal("database version check failed", zap.Error(err))
	}
	if err := db.Migrate(ctx, "history", history.Migrations()); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	hist := history.NewHistoryStore(db.DB())

	// Create shared services
	bus := event.NewBus(logger.Named("event"))
	logger.Info("event bus created", zap.String("component", "event"))

	// Synthesizers are not safe for concurrent use; the HTTP surface and the
	// background feed each get their own.
	var apiSynth, feedSynth *generator.Synthesizer
	if seed := viperCfg.GetUint64("generator.seed"); seed != 0 {
		apiSynth = generator.NewSeeded(seed)
		feedSynth = generator.NewSeeded(seed + 1)
		logger.Info("deterministic generation enabled",
			zap.String("component", "generator"),
			zap.Uint64("seed", seed),
		)
	} else {
		apiSynth = generator.New(nil)
		feedSynth = generator.New(nil)
	}

	// Share code service
	shareSecret := viperCfg.GetString("share.secret")
	if shareSecret == "" {
		// Generate an ephemeral secret -- share codes won't survive restarts.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			logger.Fatal("failed to generate share secret", zap.Error(err))
		}
		shareSecret = hex.EncodeToString(b)
		logger.Info("using auto-generated share secret (set share.secret in config to keep codes valid across restarts)",
			zap.String("component", "share"),
		)
	}
	codeTTL := viperCfg.GetDuration("share.code_ttl")
	if codeTTL == 0 {
		codeTTL = 7 * 24 * time.Hour
	}
	tokens := share.NewTokenService([]byte(shareSecret), codeTTL)
	shareHandler := share.NewHandler(tokens, hist, viperCfg.GetString("share.base_url"), logger.Named("share"))
	logger.Info("share service initialized",
		zap.String("component", "share"),
		zap.Duration("code_ttl", codeTTL),
	)

	// Simulator HTTP surface
	simHandler := simulator.NewHandler(apiSynth, hist, logger.Named("simulator"))

	// Medical document registry
	recordsHandler := records.NewHandler(hist, logger.Named("records"))

	// WebSocket handler for live reading streams
	wsHandler := ws.NewHandler(tokens, bus, logger.Named("ws"))
	logger.Info("websocket handler initialized", zap.String("component", "ws"))

	// LLM analysis service
	chatClient, err := chat.NewClient(chat.Config{
		URL:     viperCfg.GetString("chat.url"),
		Model:   viperCfg.GetString("chat.model"),
		Timeout: viperCfg.GetDuration("chat.timeout"),
	}, logger.Named("chat"))
	if err != nil {
		logger.Fatal("failed to initialize chat client", zap.Error(err))
	}
	chatHandler := chat.NewHandler(chatClient, hist, logger.Named("chat"))
	logger.Info("chat service initialized",
		zap.String("component", "chat"),
		zap.String("model", viperCfg.GetString("chat.model")),
	)

	// Background live feed
	var liveFeed *feed.Feed
	if viperCfg.GetBool("feed.enabled") {
		var mirror *feed.Mirror
		if brokers := viperCfg.GetStringSlice("kafka.brokers"); len(brokers) > 0 {
			mirror = feed.NewMirror(brokers, viperCfg.GetString("kafka.topic"))
			defer mirror.Close()
			logger.Info("kafka mirror enabled",
				zap.String("component", "feed"),
				zap.Strings("brokers", brokers),
				zap.String("topic", viperCfg.GetString("kafka.topic")),
			)
		}
		liveFeed = feed.New(feedSynth, hist, bus, mirror, feed.Config{
			Interval: viperCfg.GetDuration("feed.interval"),
			Persist:  viperCfg.GetBool("feed.persist"),
		}, logger.Named("feed"))
		liveFeed.Start(ctx)
	}

	// Create and start HTTP server
	addr := viperCfg.GetString("server.host") + ":" + viperCfg.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8080"
	}
	logger.Info("HTTP server configured",
		zap.String("component", "server"),
		zap.String("addr", addr),
	)
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(addr, logger, readyCheck, simHandler, recordsHandler, shareHandler, chatHandler, wsHandler)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("VitalSim server ready", zap.String("addr", addr))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if liveFeed != nil {
		liveFeed.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("VitalSim server stopped")
}
