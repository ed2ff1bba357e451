package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/httpapi"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/logging"
	"github.com/hamed0406/sitewatch/internal/monitor"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	"github.com/hamed0406/sitewatch/internal/repo/postgres"
	"github.com/hamed0406/sitewatch/internal/repo/sqlite"
	"github.com/hamed0406/sitewatch/internal/scheduler"
	"github.com/hamed0406/sitewatch/internal/status"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_error", zap.String("storage", cfg.Storage()), zap.Error(err))
	}
	defer store.Close()

	if cfg.SeedFile != "" {
		if err := seedEndpoints(ctx, store, cfg.SeedFile, logger); err != nil {
			logger.Fatal("seed_error", zap.Error(err))
		}
	}

	checker := probe.NewHTTPChecker()
	defer checker.Close()
	orch := monitor.NewOrchestrator(logger, checker, cfg.MaxConcurrency)
	svc := status.NewService(logger, store, orch, cfg.ProbeTimeout)

	rc := scheduler.NewRechecker(logger, store, store, orch, cfg.CheckInterval, cfg.ProbeTimeout)
	go rc.Run(ctx)

	trusted, err := apimw.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal("trusted_proxies_error", zap.Error(err))
	}

	api := httpapi.NewServer(logger, store, store, svc, probe.NewDNSDiagnoser(3*time.Second))
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			StatusRPM:      cfg.StatusRPM,
			StatusBurst:    cfg.StatusBurst,
			TrustedProxies: trusted,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout+5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api_shutdown_error", zap.Error(err))
		}
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage()),
		zap.Duration("probe_timeout", cfg.ProbeTimeout),
		zap.Duration("check_interval", cfg.CheckInterval),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}

// openStore picks postgres, then sqlite, then memory.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, error) {
	switch cfg.Storage() {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case "sqlite":
		lite, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return memory.New(), nil
	}
}

// seedEndpoints adds the seed file entries whose URL is not registered yet.
func seedEndpoints(ctx context.Context, store repo.EndpointStore, path string, logger *zap.Logger) error {
	entries, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	existing, err := store.ListEndpoints(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, ep := range existing {
		known[ep.TargetURL] = true
	}
	added := 0
	for _, e := range entries {
		ep, err := repo.Prepare(e.Name, e.URL)
		if err != nil {
			logger.Warn("seed_skip", zap.String("name", e.Name), zap.String("url", e.URL), zap.Error(err))
			continue
		}
		if known[ep.TargetURL] {
			continue
		}
		if _, err := store.AddEndpoint(ctx, e.Name, e.URL); err != nil {
			return err
		}
		known[ep.TargetURL] = true
		added++
	}
	logger.Info("seed_loaded", zap.String("file", path), zap.Int("added", added))
	return nil
}
