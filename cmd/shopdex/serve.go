package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/config"
	dbRedis "github.com/kailas-cloud/shopdex/internal/db/redis"
	"github.com/kailas-cloud/shopdex/internal/domain/vocabulary"
	logpkg "github.com/kailas-cloud/shopdex/internal/logger"
	"github.com/kailas-cloud/shopdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/shopdex/internal/repository/budget"
	searchrepo "github.com/kailas-cloud/shopdex/internal/repository/search"
	"github.com/kailas-cloud/shopdex/internal/telemetry"
	chiTransport "github.com/kailas-cloud/shopdex/internal/transport/chi"
	openaiIntent "github.com/kailas-cloud/shopdex/internal/transport/openai"
	"github.com/kailas-cloud/shopdex/internal/usecase/classify"
	"github.com/kailas-cloud/shopdex/internal/usecase/concept"
	healthuc "github.com/kailas-cloud/shopdex/internal/usecase/health"
	intentuc "github.com/kailas-cloud/shopdex/internal/usecase/intent"
	searchuc "github.com/kailas-cloud/shopdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/shopdex/internal/usecase/usage"
	"github.com/kailas-cloud/shopdex/internal/version"
)

// Budget counter lifetimes: a day window outlives its day, a month window its month.
const (
	dailyBudgetTTL   = 48 * time.Hour
	monthlyBudgetTTL = 62 * 24 * time.Hour
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the shopdex HTTP API using config/<env>.yaml.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, _ := cmd.Flags().GetString("env")
			if env == "" {
				env = config.GetEnv()
			}
			return runServe(env)
		},
	}
	cmd.Flags().String("env", "", "Config environment (overrides ENV)")
	return cmd
}

func runServe(env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shopdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("intent_enabled", cfg.Intent.Enabled),
	)

	flush := telemetry.Init(telemetry.Config{
		DSN:              cfg.Telemetry.SentryDSN,
		Environment:      cfg.Telemetry.Environment,
		Release:          version.Version,
		TracesSampleRate: cfg.Telemetry.TracesSampleRate,
	}, logger)
	defer flush()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.Database.Addrs,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		DB:          cfg.Database.DB,
		DialTimeout: time.Duration(cfg.Database.DialTimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create database store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database")

	metrics.RegisterSearchMetrics()
	metrics.RegisterIntentMetrics()

	vocab, err := loadVocabulary(cfg.Search.VocabularyPath)
	if err != nil {
		return err
	}

	policy, err := searchuc.PolicyFromPresets(cfg.Search.Fusion.MultiConcept, cfg.Search.Fusion.Default)
	if err != nil {
		return fmt.Errorf("fusion policy: %w", err)
	}

	searchSvc := searchuc.New(
		searchrepo.New(store),
		classify.New(vocab),
		concept.New(vocab),
		searchuc.Options{
			DefaultCollection:  cfg.Search.DefaultCollection,
			BranchTimeout:      cfg.Search.BranchTimeout(),
			TruncateDimensions: cfg.Search.TruncateDimensions,
			Policy:             policy,
		},
		logger,
	).WithReporter(telemetry.Reporter{}).WithRecorder(metrics.SearchRecorder{})

	// Pass nil interfaces, not typed nil pointers, when the analyzer or its
	// budget is off: (*intentuc.Budget)(nil) in an interface is not nil.
	var (
		intentChecker healthuc.IntentChecker
		budgetReader  usageuc.BudgetReader
	)
	if cfg.Intent.Enabled {
		client := openaiIntent.NewIntentAnalyzer(&openaiIntent.Config{
			APIKey:  cfg.Intent.APIKey,
			BaseURL: cfg.Intent.BaseURL,
			Model:   cfg.Intent.Model,
			Timeout: time.Duration(cfg.Intent.TimeoutSec) * time.Second,
			Logger:  logger,
		})

		var budgetChecker intentuc.BudgetChecker
		if budget := buildBudget(ctx, cfg.Intent.Budget, store, logger); budget != nil {
			budgetChecker = budget
			budgetReader = budget
		}
		searchSvc.WithAnalyzer(intentuc.NewAnalyzer(client, cfg.Intent.Model, budgetChecker, logger))
		intentChecker = client
		logger.Info("Intent analyzer enabled",
			zap.String("model", cfg.Intent.Model),
			zap.Bool("budget", budgetChecker != nil),
		)
	}

	healthSvc := healthuc.New(store, intentChecker)
	usageSvc := usageuc.New(budgetReader)
	server := chiTransport.NewServer(searchSvc, healthSvc, usageSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildBudget returns nil when no limit is configured.
func buildBudget(
	ctx context.Context, cfg config.BudgetConfig, store *dbRedis.Store, logger *zap.Logger,
) *intentuc.Budget {
	if !cfg.HasBudget() {
		return nil
	}
	action := intentuc.BudgetActionWarn
	if cfg.Action == "reject" {
		action = intentuc.BudgetActionReject
	}
	return intentuc.NewBudget(cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, logger).
		WithStore(ctx, budgetrepo.New(store, dailyBudgetTTL, monthlyBudgetTTL))
}

func loadVocabulary(path string) (*vocabulary.Vocabulary, error) {
	if path == "" {
		return vocabulary.Default(), nil
	}
	v, err := vocabulary.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}
	return v, nil
}
