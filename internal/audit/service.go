package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Cleaner deletes audit entries older than a cutoff.
type Cleaner interface {
	PurgeAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config tunes the audit scheduler.
type Config struct {
	RetentionDays int
	ExportDir     string
	ExportOnStart bool
}

func DefaultConfig() Config {
	return Config{RetentionDays: 90, ExportDir: "exports"}
}

// Service exports the audit tables to a monthly workbook and purges entries
// past retention. The export runs on the first of each month.
type Service struct {
	cfg      Config
	exporter *Exporter
	cleaner  Cleaner
	logger   *zerolog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewService(cfg Config, exporter *Exporter, cleaner Cleaner, logger *zerolog.Logger) *Service {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultConfig().RetentionDays
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = DefaultConfig().ExportDir
	}
	return &Service{
		cfg:      cfg,
		exporter: exporter,
		cleaner:  cleaner,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the monthly scheduler.
func (s *Service) Start() {
	if s.cfg.ExportOnStart {
		go s.runOnce()
	}

	s.wg.Add(1)
	go s.loop()
	s.logger.Info().Int("retention_days", s.cfg.RetentionDays).Msg("audit scheduler started")
}

// Stop shuts the scheduler down and waits for a running export to finish.
func (s *Service) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Service) loop() {
	defer s.wg.Done()

	next := nextFirstOfMonth(time.Now())
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
			s.runOnce()
			next = nextFirstOfMonth(time.Now())
			timer.Reset(time.Until(next))
		}
	}
}

func nextFirstOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, now.Location())
}

func (s *Service) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	path, err := s.ExportToFile(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("audit export failed")
	} else {
		s.logger.Info().Str("path", path).Msg("audit export written")
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	deleted, err := s.cleaner.PurgeAuditBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("audit purge failed")
		return
	}
	s.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("audit purge done")
}

// ExportToFile writes the current workbook under the export directory and
// returns its path.
func (s *Service) ExportToFile(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("audit_%s.xlsx", time.Now().Format("2006-01"))
	path := filepath.Join(s.cfg.ExportDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := s.exporter.Export(ctx, f); err != nil {
		return "", err
	}
	return path, nil
}
