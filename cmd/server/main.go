// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quickscore/internal/common/config"
	"quickscore/internal/common/database"
	"quickscore/internal/common/logger"
	"quickscore/internal/common/observability"
	"quickscore/internal/datasource"
	"quickscore/internal/genai"
	"quickscore/internal/httpapi"
	"quickscore/internal/notify"
	"quickscore/internal/onboarding"
	"quickscore/internal/pipeline/credit"
	"quickscore/internal/pipeline/document"
	"quickscore/internal/pipeline/facematch"
	"quickscore/internal/pipeline/financial"
	"quickscore/internal/pipeline/identity"
	"quickscore/internal/pipeline/insights"
	"quickscore/internal/pipeline/liveness"
	"quickscore/internal/progress"
	"quickscore/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// instrumentedOnboarding records run outcomes and durations on top of the
// orchestrator's own Prometheus counters.
type instrumentedOnboarding struct {
	svc *onboarding.Orchestrator
	obs *observability.Observability
}

func (i *instrumentedOnboarding) ProcessIndividual(ctx context.Context, req onboarding.IndividualRequest) onboarding.Result {
	start := time.Now()
	result := i.svc.ProcessIndividual(ctx, req)
	i.obs.RecordRun(ctx, result.Assessment.ApprovalStatus)
	i.obs.RecordRunDuration(ctx, time.Since(start), result.Assessment.ApprovalStatus)
	return result
}

func (i *instrumentedOnboarding) ProcessBusiness(ctx context.Context, req onboarding.BusinessRequest) onboarding.Result {
	start := time.Now()
	result := i.svc.ProcessBusiness(ctx, req)
	i.obs.RecordRun(ctx, result.Assessment.ApprovalStatus)
	i.obs.RecordRunDuration(ctx, time.Since(start), result.Assessment.ApprovalStatus)
	return result
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting quickscore server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("quickscore")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry (optional) ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Host != "" {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	} else {
		zapLog.Warn("PostgreSQL not configured, application persistence disabled")
	}

	// --- Init Redis with retry (optional) ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Warn("Redis not configured, progress cache disabled")
	}

	// --- Model gateway client ---
	gen := genai.NewClient(genai.ConfigFromApp(cfg), log)

	// --- Financial data source ---
	source, err := datasource.New(cfg.DataSource, log)
	if err != nil {
		zapLog.Fatal("data source init failed", zap.Error(err))
	}
	zapLog.Info("Financial data source initialized", zap.String("mode", cfg.DataSource.Mode))

	// --- Pipeline adapters ---
	livenessHandler := liveness.NewHandler(liveness.DefaultConfig(), gen, log)
	documentHandler := document.NewHandler(document.DefaultConfig(), gen, log)
	facematchHandler := facematch.NewHandler(facematch.DefaultConfig(), gen, log)

	identityCfg := identity.DefaultConfig()
	identityCfg.ReviewThreshold = cfg.Onboarding.ReviewThreshold
	identityHandler := identity.NewHandler(identityCfg, gen, log)

	financialHandler := financial.NewHandler(financial.DefaultConfig(), gen, log)
	creditHandler := credit.NewHandler(credit.DefaultConfig(), gen, log)
	insightsHandler := insights.NewHandler(insights.DefaultConfig(), gen, log)

	// --- Progress observer ---
	var observer onboarding.ProgressObserver
	var progressReader httpapi.ProgressReader
	if cfg.Onboarding.ProgressCacheEnabled && redis != nil {
		cache := progress.NewCache(redis, cfg.Database.Redis.ProgressTTL, log)
		observer = cache
		progressReader = cache
	}

	orchestrator := onboarding.NewOrchestrator(
		cfg.Onboarding,
		livenessHandler,
		documentHandler,
		facematchHandler,
		financialHandler,
		creditHandler,
		source,
		observer,
		log,
	)

	// --- Persistence & notifications ---
	var applicationStore httpapi.ApplicationStore
	if pg != nil {
		applicationStore = store.NewPostgres(pg, log)
	}

	var notifier httpapi.DecisionNotifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sender, err := notify.NewSender(ctx, cfg.Notifications, log)
		if err != nil {
			zapLog.Fatal("notification sender init failed", zap.Error(err))
		}
		notifier = sender
	}

	// --- HTTP server ---
	handlers := httpapi.NewHandlers(
		&instrumentedOnboarding{svc: orchestrator, obs: obs},
		identityHandler,
		financialHandler,
		creditHandler,
		insightsHandler,
		applicationStore,
		progressReader,
		notifier,
		log,
	)
	router := httpapi.NewRouter(handlers, log)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Server stopped gracefully")
}
