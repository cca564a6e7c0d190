// Package database implements sqlite-backed storage for reservations, the
// per-service slot ledger, shop schedules and the audit trail.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB represents the database connection.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// New opens the database at path and creates tables if they don't exist.
func New(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and busy timeout: concurrent booking requests hit the same
	// file, and the unique slot index is the contention point.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	instance := &DB{DB: db, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS barbers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			chat_id INTEGER NOT NULL DEFAULT 0,
			payout_account TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS services (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			barber_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL DEFAULT 30,
			price REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		// Weekly schedule of a service: ordered slot labels per day.
		// Position preserves declaration order; labels are unique per day.
		`CREATE TABLE IF NOT EXISTS service_slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service_id INTEGER NOT NULL,
			day_of_week TEXT NOT NULL,
			position INTEGER NOT NULL,
			slot TEXT NOT NULL,
			UNIQUE(service_id, day_of_week, slot),
			FOREIGN KEY (service_id) REFERENCES services(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS shop_schedules (
			barber_id INTEGER PRIMARY KEY,
			service_time_notes TEXT NOT NULL DEFAULT '',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS shop_weekly_closures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			barber_id INTEGER NOT NULL,
			day_of_week TEXT NOT NULL,
			is_closed BOOLEAN NOT NULL DEFAULT 0,
			UNIQUE(barber_id, day_of_week),
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		// At most one temporary closure per (barber, date); writes use
		// ON CONFLICT DO UPDATE so records merge instead of duplicating.
		`CREATE TABLE IF NOT EXISTS temporary_closures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			barber_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			day_of_week TEXT NOT NULL,
			affected_slots TEXT NOT NULL DEFAULT '[]',
			reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(barber_id, date),
			FOREIGN KEY (barber_id) REFERENCES barbers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			barber_id INTEGER NOT NULL,
			customer_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'upcoming',
			payment_status TEXT NOT NULL DEFAULT 'pending',
			price REAL NOT NULL DEFAULT 0,
			tips REAL NOT NULL DEFAULT 0,
			transaction_ref TEXT NOT NULL UNIQUE,
			cancel_requested BOOLEAN NOT NULL DEFAULT 0,
			transferred BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (barber_id) REFERENCES barbers(id),
			FOREIGN KEY (service_id) REFERENCES services(id)
		)`,

		// The slot ledger. The unique index is the authoritative
		// no-double-booking guard: the availability check is only an
		// optimistic pre-check, the insert decides the race.
		`CREATE TABLE IF NOT EXISTS booked_slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			reservation_id INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(service_id, date, time_slot),
			FOREIGN KEY (service_id) REFERENCES services(id),
			FOREIGN KEY (reservation_id) REFERENCES reservations(id)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			entity TEXT NOT NULL,
			entity_id INTEGER NOT NULL DEFAULT 0,
			details TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_services_barber ON services(barber_id)`,
		`CREATE INDEX IF NOT EXISTS idx_service_slots_day ON service_slots(service_id, day_of_week, position)`,
		`CREATE INDEX IF NOT EXISTS idx_closures_barber_date ON temporary_closures(barber_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_barber_date ON reservations(barber_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_customer ON reservations(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_booked_slots_reservation ON booked_slots(reservation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// isUniqueViolation reports whether err is a sqlite unique-constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (db *DB) Close() error {
	return db.DB.Close()
}
