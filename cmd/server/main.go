package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"barberbook/internal/api"
	"barberbook/internal/audit"
	"barberbook/internal/booking"
	"barberbook/internal/catalog"
	"barberbook/internal/config"
	"barberbook/internal/database"
	"barberbook/internal/metrics"
	"barberbook/internal/notify"
	"barberbook/internal/schedule"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("BARBERBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.New(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}
	serviceCatalog := catalog.New(db, rdb, cfg.RedisCacheTTL(), &logger)

	var sender notify.Sender
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		sender, err = notify.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram init error")
		}
	} else {
		logger.Warn().Msg("telegram disabled, notifications are logged only")
		sender = logSender{&logger}
	}

	dispatcher := notify.NewDispatcher(sender, notify.Config{
		QueueSize:   cfg.Notifications.QueueSize,
		RatePerSec:  cfg.Notifications.RatePerSec,
		Burst:       cfg.Notifications.Burst,
		MaxAttempts: cfg.Notifications.MaxAttempts,
		RetryDelay:  2 * time.Second,
	}, &logger)
	dispatcher.Start(ctx)

	resolver := schedule.New(serviceCatalog, db, db, &logger)
	bookingSvc := booking.NewService(db, resolver, dispatcher, &logger)

	auditSvc := audit.NewService(audit.Config{
		RetentionDays: cfg.Audit.RetentionDays,
		ExportDir:     cfg.Audit.ExportDir,
		ExportOnStart: cfg.Audit.ExportOnStart,
	}, audit.NewExporter(db), db, &logger)
	auditSvc.Start()
	defer auditSvc.Stop()

	go closureCleanupLoop(ctx, db, cfg.ClosureCleanupInterval(), &logger)

	if cfg.Backup.Enabled {
		go backupLoop(ctx, db, cfg, &logger)
	}

	if cfg.Monitoring.Enabled {
		if cfg.Monitoring.HealthPort == 0 {
			cfg.Monitoring.HealthPort = 8090
		}
		go startHealthServer(ctx, cfg.Monitoring.HealthPort, db, rdb, &logger)

		if cfg.Monitoring.MetricsPort == 0 {
			cfg.Monitoring.MetricsPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.MetricsPort, &logger)
	}

	server := api.NewHTTPServer(cfg.Server.Address, bookingSvc, resolver, db, &logger)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Msg("barberbook started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("http server error")
	}
	dispatcher.Wait()
}

// logSender stands in for Telegram when no bot token is configured.
type logSender struct {
	logger *zerolog.Logger
}

func (s logSender) Send(_ context.Context, msg notify.Message) error {
	s.logger.Info().Int64("receiver_id", msg.ReceiverID).Str("text", msg.Text).Msg("notification")
	return nil
}

// closureCleanupLoop periodically drops temporary closures whose date has
// passed, for every barber that has any.
func closureCleanupLoop(ctx context.Context, db *database.DB, interval time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := db.CleanupAllPastClosures(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("closure cleanup failed")
				continue
			}
			if deleted > 0 {
				logger.Info().Int64("deleted", deleted).Msg("cleaned up past closures")
			}
		}
	}
}

func backupLoop(ctx context.Context, db *database.DB, cfg *config.Config, logger *zerolog.Logger) {
	dir := cfg.Backup.Path
	if dir == "" {
		dir = "backups"
	}

	ticker := time.NewTicker(cfg.BackupInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dest := filepath.Join(dir, fmt.Sprintf("barberbook_%s.db", time.Now().Format("20060102_150405")))
			if err := db.Backup(ctx, dest); err != nil {
				logger.Error().Err(err).Msg("backup failed")
				continue
			}
			logger.Info().Str("path", dest).Msg("backup completed")

			deleted, err := db.CleanupBackups(dir, cfg.BackupRetention())
			if err != nil {
				logger.Error().Err(err).Msg("backup cleanup failed")
			} else if deleted > 0 {
				logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
			}
		}
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
