package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"barberbook/internal/models"
)

// GetShopSchedule returns the weekly closure map and temporary closures for
// a barber. ErrNotFound means the barber never configured a shop schedule.
func (db *DB) GetShopSchedule(ctx context.Context, barberID int64) (*models.ShopSchedule, error) {
	sched := &models.ShopSchedule{
		BarberID:      barberID,
		WeeklyClosure: make(map[models.Day]bool),
	}

	err := db.QueryRowContext(ctx, `
		SELECT service_time_notes, updated_at FROM shop_schedules WHERE barber_id = ?`,
		barberID,
	).Scan(&sched.ServiceTimeNotes, &sched.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shop schedule: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, is_closed FROM shop_weekly_closures WHERE barber_id = ?`,
		barberID,
	)
	if err != nil {
		return nil, fmt.Errorf("get weekly closures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var closed bool
		if err := rows.Scan(&day, &closed); err != nil {
			return nil, err
		}
		sched.WeeklyClosure[models.Day(day)] = closed
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	closures, err := db.listTemporaryClosures(ctx, barberID)
	if err != nil {
		return nil, err
	}
	sched.TemporaryClosures = closures
	return sched, nil
}

// UpsertShopSchedule replaces the full weekly closure shape and notes.
func (db *DB) UpsertShopSchedule(ctx context.Context, barberID int64, weekly map[models.Day]bool, notes string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shop_schedules (barber_id, service_time_notes, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(barber_id) DO UPDATE SET
			service_time_notes = excluded.service_time_notes,
			updated_at = excluded.updated_at`,
		barberID, notes, now,
	)
	if err != nil {
		return fmt.Errorf("upsert shop schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM shop_weekly_closures WHERE barber_id = ?", barberID); err != nil {
		return fmt.Errorf("clear weekly closures: %w", err)
	}
	for day, closed := range weekly {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shop_weekly_closures (barber_id, day_of_week, is_closed)
			VALUES (?, ?, ?)`,
			barberID, day, closed,
		); err != nil {
			return fmt.Errorf("insert weekly closure: %w", err)
		}
	}

	return tx.Commit()
}

// AddTemporaryClosure creates or replaces the closure for a specific date.
// Upsert-by-date keeps the one-record-per-date invariant: a second closure
// for the same date replaces the first instead of duplicating it.
func (db *DB) AddTemporaryClosure(ctx context.Context, c *models.TemporaryClosure) error {
	slots, err := json.Marshal(c.AffectedSlots)
	if err != nil {
		return fmt.Errorf("marshal affected slots: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO temporary_closures (barber_id, date, day_of_week, affected_slots, reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(barber_id, date) DO UPDATE SET
			day_of_week = excluded.day_of_week,
			affected_slots = excluded.affected_slots,
			reason = excluded.reason`,
		c.BarberID, c.Date, c.DayOfWeek, string(slots), c.Reason,
	)
	if err != nil {
		return fmt.Errorf("upsert temporary closure: %w", err)
	}
	return nil
}

// GetTemporaryClosure returns the closure for an exact date, or ErrNotFound.
func (db *DB) GetTemporaryClosure(ctx context.Context, barberID int64, date string) (*models.TemporaryClosure, error) {
	var c models.TemporaryClosure
	var slots string
	err := db.QueryRowContext(ctx, `
		SELECT id, barber_id, date, day_of_week, affected_slots, reason, created_at
		FROM temporary_closures WHERE barber_id = ? AND date = ?`,
		barberID, date,
	).Scan(&c.ID, &c.BarberID, &c.Date, &c.DayOfWeek, &slots, &c.Reason, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get temporary closure: %w", err)
	}
	if err := json.Unmarshal([]byte(slots), &c.AffectedSlots); err != nil {
		return nil, fmt.Errorf("unmarshal affected slots: %w", err)
	}
	return &c, nil
}

// RemoveTemporaryClosure deletes or trims the closure for a date.
//
// With an empty slotsToRemove the whole record is deleted. With a slot
// list, the listed slots are removed from the closure; a partial closure
// that becomes empty is deleted. A whole-day closure (empty affected-slot
// list) cannot be trimmed slot by slot, because an empty list means
// "everything" and removing slots from it would silently reopen the day.
// That combination is rejected; the caller must replace the closure.
func (db *DB) RemoveTemporaryClosure(ctx context.Context, barberID int64, date string, slotsToRemove []string) error {
	if len(slotsToRemove) == 0 {
		result, err := db.ExecContext(ctx,
			"DELETE FROM temporary_closures WHERE barber_id = ? AND date = ?",
			barberID, date,
		)
		if err != nil {
			return fmt.Errorf("delete temporary closure: %w", err)
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

	closure, err := db.GetTemporaryClosure(ctx, barberID, date)
	if err != nil {
		return err
	}
	if closure.WholeDay() {
		return fmt.Errorf("%w: closure for %s blocks the whole day; replace it instead of removing slots", models.ErrInvalidInput, date)
	}

	remove := make(map[string]bool, len(slotsToRemove))
	for _, s := range slotsToRemove {
		remove[s] = true
	}
	var remaining []string
	for _, s := range closure.AffectedSlots {
		if !remove[s] {
			remaining = append(remaining, s)
		}
	}

	if len(remaining) == 0 {
		_, err := db.ExecContext(ctx,
			"DELETE FROM temporary_closures WHERE barber_id = ? AND date = ?",
			barberID, date,
		)
		if err != nil {
			return fmt.Errorf("delete emptied closure: %w", err)
		}
		return nil
	}

	slots, err := json.Marshal(remaining)
	if err != nil {
		return fmt.Errorf("marshal remaining slots: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		UPDATE temporary_closures SET affected_slots = ?
		WHERE barber_id = ? AND date = ?`,
		string(slots), barberID, date,
	)
	if err != nil {
		return fmt.Errorf("update closure slots: %w", err)
	}
	return nil
}

// CleanupPastClosures deletes temporary closures dated before today.
func (db *DB) CleanupPastClosures(ctx context.Context, barberID int64) (int64, error) {
	today := time.Now().Format(models.DateLayout)
	result, err := db.ExecContext(ctx,
		"DELETE FROM temporary_closures WHERE barber_id = ? AND date < ?",
		barberID, today,
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup past closures: %w", err)
	}
	return result.RowsAffected()
}

// CleanupAllPastClosures is the cross-barber form used by the periodic
// cleanup loop.
func (db *DB) CleanupAllPastClosures(ctx context.Context) (int64, error) {
	today := time.Now().Format(models.DateLayout)
	result, err := db.ExecContext(ctx,
		"DELETE FROM temporary_closures WHERE date < ?", today)
	if err != nil {
		return 0, fmt.Errorf("cleanup past closures: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) listTemporaryClosures(ctx context.Context, barberID int64) ([]models.TemporaryClosure, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, barber_id, date, day_of_week, affected_slots, reason, created_at
		FROM temporary_closures WHERE barber_id = ? ORDER BY date`,
		barberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list temporary closures: %w", err)
	}
	defer rows.Close()

	var out []models.TemporaryClosure
	for rows.Next() {
		var c models.TemporaryClosure
		var slots string
		if err := rows.Scan(&c.ID, &c.BarberID, &c.Date, &c.DayOfWeek, &slots, &c.Reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(slots), &c.AffectedSlots); err != nil {
			return nil, fmt.Errorf("unmarshal affected slots: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
