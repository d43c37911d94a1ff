package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"gitlab.com/codearena.net/internal/adapter/amqp/verdictpublisher"
	"gitlab.com/codearena.net/internal/adapter/crypto"
	"gitlab.com/codearena.net/internal/adapter/metrics"
	"gitlab.com/codearena.net/internal/adapter/postgres/problemrepository"
	"gitlab.com/codearena.net/internal/adapter/postgres/submissionrepository"
	"gitlab.com/codearena.net/internal/adapter/postgres/userrepository"
	"gitlab.com/codearena.net/internal/adapter/redis/historycache"
	"gitlab.com/codearena.net/internal/adapter/sandbox"
	"gitlab.com/codearena.net/internal/config"
	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	auth2 "gitlab.com/codearena.net/internal/core/services/auth"
	"gitlab.com/codearena.net/internal/core/services/judge"
	"gitlab.com/codearena.net/internal/core/services/submission"
	logger2 "gitlab.com/codearena.net/internal/global/logger"
	"gitlab.com/codearena.net/internal/handlers"
	http2 "gitlab.com/codearena.net/internal/http"
	"gitlab.com/codearena.net/internal/schedulerengine"
)

func main() {
	InitReader()

	sysCfg := config.NewSystemConfig()
	logger := logger2.Init(sysCfg.DebugMode)
	defer func() { _ = logger.Sync() }()
	logger2.Info("Starting code judging service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupDatabase(ctx, sysCfg.PostgresConfig)
	if err != nil {
		logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	judgeMetrics := metrics.NewJudgeMetrics(registry)

	// SECONDARY PORTS
	schema := sysCfg.PostgresConfig.Schema
	submissionPort := submissionrepository.New(db, logger, schema)
	problemPort := problemrepository.New(db, logger, schema)
	userPort := userrepository.New(db, logger, schema)
	historyCache := historycache.NewHistoryCache(redisClient, logger, sysCfg.RedisConfig.HistoryTTL)
	publisher := setupPublisher(ctx, sysCfg.AmqpConfig, logger)
	executor := sandbox.NewClient(sysCfg.SandboxConfig, logger, sandbox.WithMetrics(judgeMetrics))

	//primary ports
	jwtProvider := crypto.NewJWTService(sysCfg.JwtConfig)

	//services
	judgeSvc := judge.NewJudgeService(executor, judgeMetrics, logger)
	submissionSvc := submission.NewSubmissionService(
		submissionPort,
		problemPort,
		judgeSvc,
		auth2.ActorResolver{},
		historyCache,
		publisher,
		logger,
	)
	localAuth := auth2.NewLocalAuthService(userPort, jwtProvider, logger)

	healthChecks := map[string]handlers.Pinger{
		"postgres": db,
		"redis": handlers.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}
	serviceProvider := http2.NewServiceProvider(submissionSvc, localAuth, jwtProvider, healthChecks, registry)

	//server
	httpServer := http2.NewServer(sysCfg.HttpConfig, "codearena", *serviceProvider, logger)
	if err := httpServer.Init(); err != nil {
		logger.Error("Failed to init http server", "error", err)
		os.Exit(1)
	}
	serveErr := httpServer.Start(ctx)

	if err := sysCfg.SweeperConfig.CheckJudgeDeadline(sysCfg.HttpConfig.JudgeDeadline()); err != nil {
		logger.Warn("Stale sweeper may finalize submissions that are still being judged",
			"staleAfter", sysCfg.SweeperConfig.StaleAfter,
			"judgeDeadline", sysCfg.HttpConfig.JudgeDeadline(),
			"error", err)
	}
	sweeper := schedulerengine.NewSchedulerEngine(sysCfg.SweeperConfig, submissionSvc, logger)
	sweeper.StartStaleSweeper(ctx)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Http server stopped", "error", err)
		}
		stop()
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	sweeper.Wait()
	if closer, ok := publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close verdict publisher", "error", err)
		}
	}

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(ctx context.Context, cfg *config.PostgresConfig) (*sqlx.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := sqlx.ConnectContext(connectCtx, "postgres", cfg.Url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// setupPublisher connects to the verdict exchange; without a broker verdicts are not published
func setupPublisher(ctx context.Context, cfg *config.AmqpConfig, logger primary.Logger) secondary.VerdictPublisher {
	if cfg.Url == "" {
		logger.Info("AMQP_URL not set, verdict events disabled")
		return verdictpublisher.Noop{}
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	publisher, err := verdictpublisher.NewPublisher(dialCtx, cfg, logger)
	if err != nil {
		logger.Warn("Failed to connect verdict publisher, events disabled", "error", err)
		return verdictpublisher.Noop{}
	}
	return publisher
}

// InitReader loads <env>.env when an environment name is passed as the first argument
func InitReader() {
	if len(os.Args) < 2 {
		return
	}
	environment := os.Args[1]
	if err := godotenv.Load(environment + ".env"); err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
