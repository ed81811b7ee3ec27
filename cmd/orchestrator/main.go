package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	apphttp "github.com/yieldrail/bridge-orchestrator/pkg/app/http"
	"github.com/yieldrail/bridge-orchestrator/pkg/auth"
	"github.com/yieldrail/bridge-orchestrator/pkg/bridge"
	"github.com/yieldrail/bridge-orchestrator/pkg/cache"
	"github.com/yieldrail/bridge-orchestrator/pkg/chains"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
	"github.com/yieldrail/bridge-orchestrator/pkg/consensus"
	"github.com/yieldrail/bridge-orchestrator/pkg/db"
	"github.com/yieldrail/bridge-orchestrator/pkg/liquidity"
	"github.com/yieldrail/bridge-orchestrator/pkg/monitor"
	"github.com/yieldrail/bridge-orchestrator/pkg/notify"
	"github.com/yieldrail/bridge-orchestrator/pkg/pgutil"
	"github.com/yieldrail/bridge-orchestrator/pkg/server"
	"github.com/yieldrail/bridge-orchestrator/pkg/subscriptions"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Orchestrator exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting bridge orchestrator",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	bunDB, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = bunDB.Close() }()

	store := db.NewStore(bunDB)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database))

	redisCache := cache.New(&cfg.Redis)
	defer func() { _ = redisCache.Close() }()
	if err := redisCache.Ping(ctx); err != nil {
		// The orchestrator degrades to store-only reads when the cache is
		// down, so this is a warning rather than a startup failure.
		logger.Warn("Redis unreachable at startup", zap.Error(err))
	} else {
		logger.Info("Connected to Redis", zap.String("host", cfg.Redis.Host))
	}

	registry := chains.NewRegistry()

	liquidityMgr, err := liquidity.NewManager(&cfg.Liquidity, logger)
	if err != nil {
		return fmt.Errorf("setup liquidity manager: %w", err)
	}

	engine := consensus.NewEngine(&cfg.Consensus, nil, redisCache, cfg.Bridge.ConsensusTimeout, logger)
	logger.Info("Consensus engine ready",
		zap.Int("active_validators", len(engine.ActiveValidators())))

	tracker := subscriptions.NewTracker()
	notifier := notify.NewLogNotifier(logger)

	mon := monitor.NewMonitor(cfg.Monitoring, nil, liquidityMgr, liquidityMgr, logger)

	bridgeSvc := bridge.NewService(
		cfg.Bridge,
		registry,
		store,
		redisCache,
		engine,
		liquidityMgr,
		nil,
		tracker,
		notifier,
		mon,
		logger,
	)
	defer bridgeSvc.Close()

	mon.SetSynchronizer(bridgeSvc)
	if cfg.Monitoring.Enabled {
		mon.Start()
		defer mon.Stop()
	}

	guard := auth.NewGuard(cfg.Auth)
	handler := server.NewHandler(
		bridgeSvc,
		registry,
		liquidityMgr,
		engine,
		tracker,
		mon,
		[]server.ReadinessChecker{pingerFunc(bunDB.PingContext), redisCache},
		logger,
	)
	router := server.NewRouter(handler, guard, &cfg.Server)

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
