package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barberbook/internal/models"
)

// CreateBarber inserts a barber and returns its id.
func (db *DB) CreateBarber(ctx context.Context, b *models.Barber) (int64, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO barbers (name, chat_id, payout_account) VALUES (?, ?, ?)`,
		b.Name, b.ChatID, b.PayoutAccount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert barber: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	b.ID = id
	return id, nil
}

// GetBarber returns a barber by id.
func (db *DB) GetBarber(ctx context.Context, id int64) (*models.Barber, error) {
	var b models.Barber
	err := db.QueryRowContext(ctx, `
		SELECT id, name, chat_id, payout_account, created_at
		FROM barbers WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.ChatID, &b.PayoutAccount, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get barber: %w", err)
	}
	return &b, nil
}

// HasPayoutAccount reports whether a barber has payout information.
func (db *DB) HasPayoutAccount(ctx context.Context, barberID int64) (bool, error) {
	b, err := db.GetBarber(ctx, barberID)
	if err != nil {
		return false, err
	}
	return b.HasPayoutAccount(), nil
}

// SetPayoutAccount stores payout information for a barber.
func (db *DB) SetPayoutAccount(ctx context.Context, barberID int64, account string) error {
	result, err := db.ExecContext(ctx,
		"UPDATE barbers SET payout_account = ? WHERE id = ?", account, barberID)
	if err != nil {
		return fmt.Errorf("set payout account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateService inserts a service together with its weekly schedule.
func (db *DB) CreateService(ctx context.Context, s *models.Service) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO services (barber_id, name, duration_minutes, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.BarberID, s.Name, s.DurationMinutes, s.Price, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert service: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := insertWeeklySlots(ctx, tx, id, s.WeeklySchedule); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.ID = id
	return id, nil
}

// UpdateServiceSchedule replaces the full weekly schedule of a service.
func (db *DB) UpdateServiceSchedule(ctx context.Context, serviceID int64, weekly map[models.Day][]string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM service_slots WHERE service_id = ?", serviceID); err != nil {
		return fmt.Errorf("clear service slots: %w", err)
	}
	if err := insertWeeklySlots(ctx, tx, serviceID, weekly); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE services SET updated_at = ? WHERE id = ?", time.Now(), serviceID); err != nil {
		return fmt.Errorf("touch service: %w", err)
	}
	return tx.Commit()
}

func insertWeeklySlots(ctx context.Context, tx *sql.Tx, serviceID int64, weekly map[models.Day][]string) error {
	for day, slots := range weekly {
		for pos, slot := range slots {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO service_slots (service_id, day_of_week, position, slot)
				VALUES (?, ?, ?, ?)`,
				serviceID, day, pos, slot,
			); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: duplicate slot %q on %s", models.ErrInvalidInput, slot, day)
				}
				return fmt.Errorf("insert service slot: %w", err)
			}
		}
	}
	return nil
}

// GetService returns a service with its weekly schedule assembled, slots in
// declaration order.
func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	err := db.QueryRowContext(ctx, `
		SELECT id, barber_id, name, duration_minutes, price, created_at, updated_at
		FROM services WHERE id = ?`, id,
	).Scan(&s.ID, &s.BarberID, &s.Name, &s.DurationMinutes, &s.Price, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, slot FROM service_slots
		WHERE service_id = ? ORDER BY day_of_week, position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get service slots: %w", err)
	}
	defer rows.Close()

	s.WeeklySchedule = make(map[models.Day][]string)
	for rows.Next() {
		var day, slot string
		if err := rows.Scan(&day, &slot); err != nil {
			return nil, err
		}
		d := models.Day(day)
		s.WeeklySchedule[d] = append(s.WeeklySchedule[d], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListServices returns the services of a barber without schedules.
func (db *DB) ListServices(ctx context.Context, barberID int64) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, barber_id, name, duration_minutes, price, created_at, updated_at
		FROM services WHERE barber_id = ? ORDER BY id`,
		barberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.BarberID, &s.Name, &s.DurationMinutes, &s.Price, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
