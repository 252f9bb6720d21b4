package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"dex-guard/agent/database"
	"dex-guard/agent/internal/blacklist"
	"dex-guard/agent/internal/chains"
	"dex-guard/agent/internal/handlers"
	"dex-guard/agent/internal/risk"
	"dex-guard/agent/internal/services"
	"dex-guard/agent/internal/session"
	"dex-guard/agent/internal/trade"
	"dex-guard/shared/config"
	"dex-guard/shared/env"
	"dex-guard/shared/logger"
	"dex-guard/shared/notifications"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// telegramNotifier forwards submitted trades to the alert channel.
type telegramNotifier struct{}

func (telegramNotifier) TradeSubmitted(req trade.TradeRequest, txID string) {
	notifications.SendTelegramMessage(fmt.Sprintf(
		"✅ *Trade submitted* | chain=`%s` tokenOut=`%s` amount=`%v` tx=`%s`",
		req.Chain, req.TokenOut, req.Amount, txID))
}

func chainPolicy(cfg *config.Config, chain chains.Chain) config.ChainPolicy {
	return cfg.Chains[string(chain)]
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Fatalf("FATAL: Failed to load environment variables: %v", err)
	}

	cfg, err := config.LoadConfig("agent/config.yaml")
	if err != nil {
		log.Fatalf("FATAL: Failed to load agent/config.yaml: %v", err)
	}
	config.SetGlobalConfig(cfg)

	enableTelegram := env.TelegramBotToken != "" && env.TelegramChatID != 0
	appLogger, err := logger.NewLogger(logger.Config{
		Level:          cfg.Logging.Level,
		Environment:    cfg.App.Environment,
		EnableTelegram: enableTelegram,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info("Logger initialized", "telegramAlerts", enableTelegram)

	if err := notifications.InitTelegramBot(); err != nil {
		appLogger.Warn("Telegram initialization failed, alerts disabled", "error", err)
	}

	// Persistence is best-effort: without a database the service still scores
	// and trades, it just forgets snapshots and blacklist entries on restart.
	var db *gorm.DB
	dsn, dsnErr := env.DatabaseDSN()
	if dsnErr != nil {
		appLogger.Warn("No database configured, running without persistence", "error", dsnErr)
	} else {
		db, err = database.ConnectToDatabase(dsn)
		if err != nil {
			appLogger.Warn("Database connection failed, running without persistence", "error", err)
			db = nil
		} else if err := database.MigrateDatabase(db, dsn); err != nil {
			appLogger.Fatal("Database migration failed", "error", err)
		}
	}

	blRegistry := blacklist.NewRegistry()
	var blacklistStore *database.BlacklistStore
	if db != nil {
		blacklistStore = database.NewBlacklistStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := blacklistStore.LoadInto(ctx, blRegistry); err != nil {
			appLogger.Warn("Failed to load persisted blacklist entries", "error", err)
		}
		cancel()
	}
	appLogger.Info("Blacklist registry initialized", "entries", len(blRegistry.Snapshot()))

	chainRegistry := chains.NewRegistry()

	heliusSvc, err := services.NewHeliusService(env.HeliusRPCURL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Solana RPC service", "error", err)
	}
	solPolicy := chainPolicy(cfg, chains.Solana)
	chainRegistry.Register(chains.Solana, &chains.Capabilities{
		Metadata:         heliusSvc,
		Quoter:           services.NewJupiterClient(env.JupiterAPIURL, appLogger),
		MinLiquidityUSD:  solPolicy.MinLiquidityUSD,
		KnownAMMPrograms: toSet(solPolicy.KnownAMMPrograms),
		AllowedRouteAMMs: toSet(solPolicy.AllowedRouteAMMs),
	})
	appLogger.Info("Solana capabilities registered", "minLiquidityUsd", solPolicy.MinLiquidityUSD)

	if env.EthereumRPCURL != "" {
		ethSvc, err := services.NewEthereumRPCService(env.EthereumRPCURL, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize Ethereum RPC service", "error", err)
		}
		ethPolicy := chainPolicy(cfg, chains.Ethereum)
		chainRegistry.Register(chains.Ethereum, &chains.Capabilities{
			Metadata:         ethSvc,
			Quoter:           services.NewZeroExClient(env.ZeroExAPIURL, env.ZeroExAPIKey, appLogger),
			MinLiquidityUSD:  ethPolicy.MinLiquidityUSD,
			KnownAMMPrograms: toSet(ethPolicy.KnownAMMPrograms),
			AllowedRouteAMMs: toSet(ethPolicy.AllowedRouteAMMs),
		})
		appLogger.Info("Ethereum capabilities registered", "minLiquidityUsd", ethPolicy.MinLiquidityUSD)
	} else {
		appLogger.Warn("ETHEREUM_RPC_URL not set, Ethereum support disabled")
	}

	var snapshotStore risk.SnapshotStore
	if db != nil {
		snapshotStore = database.NewSnapshotStore(db)
	}
	aggregator := risk.NewAggregator(
		chainRegistry,
		services.NewDexScreenerClient(env.DexScreenerAPIURL, appLogger),
		services.NewRugCheckClient(env.RugCheckAPIURL, appLogger),
		services.NewFakeVolumeClient(env.FakeVolumeAPIURL, appLogger),
		snapshotStore,
		risk.AggregatorConfig{
			FetchTimeout:    time.Duration(cfg.Risk.FetchTimeoutSeconds) * time.Second,
			OptionalTimeout: time.Duration(cfg.Risk.OptionalTimeoutSeconds) * time.Second,
		},
		appLogger,
	)

	engine := risk.NewEngine(chainRegistry, blRegistry, risk.Thresholds{
		MaxCreatorBurns:      cfg.Risk.MaxCreatorBurns,
		VolumeLiquidityRatio: cfg.Risk.VolumeLiquidityRatio,
		MinHolderCount:       cfg.Risk.MinHolderCount,
	})
	analyzer := risk.NewAnalyzer(aggregator, engine, time.Duration(cfg.Risk.FreshnessSeconds)*time.Second)

	credentialClient, err := services.NewCredentialClient(env.CredentialCheckURL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize credential client", "error", err)
	}
	sessions := session.NewManager(credentialClient, time.Duration(cfg.Session.TimeoutMinutes)*time.Minute)

	blockLevel, err := risk.ParseLevel(cfg.Guard.BlockLevel)
	if err != nil {
		appLogger.Fatal("Invalid guard.block_level in config", "error", err)
	}
	guard := trade.NewGuard(chainRegistry, trade.GuardConfig{
		MaxPriceImpact:    cfg.Guard.MaxPriceImpact,
		PerTradeMaxAmount: cfg.Guard.PerTradeMaxAmount,
		BlockLevel:        blockLevel,
	})

	walletClient, err := services.NewWalletClient(env.WalletServiceURL, env.WalletServiceToken, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize wallet client", "error", err)
	}
	var tradeStore trade.TradeStore
	if db != nil {
		tradeStore = database.NewTradeStore(db)
	}
	executor := trade.NewExecutor(sessions, analyzer, guard, chainRegistry, walletClient, tradeStore, telegramNotifier{}, trade.ExecutorConfig{
		Retries:        cfg.Trade.Retries,
		AttemptTimeout: time.Duration(cfg.Trade.AttemptTimeoutSeconds) * time.Second,
	}, appLogger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router, appLogger)
	handlers.RegisterAPIRoutes(router, &handlers.API{
		Analyzer:  analyzer,
		Executor:  executor,
		Blacklist: blRegistry,
		Sessions:  sessions,
		Store:     blacklistStore,
		Log:       appLogger,
	})

	serverAddr := ":" + env.Port
	appLogger.Info("Starting web server", "address", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		appLogger.Fatal("Web server stopped", "error", err)
	}
}
