package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barberbook/internal/models"
)

const reservationColumns = `id, barber_id, customer_id, service_id, date, time_slot,
	status, payment_status, price, tips, transaction_ref,
	cancel_requested, transferred, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(
		&r.ID, &r.BarberID, &r.CustomerID, &r.ServiceID, &r.Date, &r.TimeSlot,
		&r.Status, &r.PaymentStatus, &r.Price, &r.Tips, &r.TransactionRef,
		&r.CancelRequested, &r.Transferred, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReservation persists a reservation and its slot ledger entry in one
// transaction. The ledger's unique index rejects the second of two
// concurrent writers for the same (service, date, slot) with ErrSlotTaken,
// and the rollback keeps the loser's reservation row out of the table.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (
			barber_id, customer_id, service_id, date, time_slot,
			status, payment_status, price, tips, transaction_ref,
			cancel_requested, transferred, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		r.BarberID, r.CustomerID, r.ServiceID, r.Date, r.TimeSlot,
		r.Status, r.PaymentStatus, r.Price, r.Tips, r.TransactionRef,
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO booked_slots (service_id, date, time_slot, reservation_id)
		VALUES (?, ?, ?, ?)`,
		r.ServiceID, r.Date, r.TimeSlot, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrSlotTaken
		}
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return id, nil
}

// GetReservation returns a reservation by id.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

// UpdateReservationStatus sets the status field.
func (db *DB) UpdateReservationStatus(ctx context.Context, id int64, status models.ReservationStatus) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
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

// SetCancelRequested flags a customer's cancellation request. The status
// itself only changes when the barber approves the cancellation.
func (db *DB) SetCancelRequested(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations SET cancel_requested = 1, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set cancel requested: %w", err)
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

// SetPaymentStatus updates the payment state of a reservation.
func (db *DB) SetPaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations SET payment_status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
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

// ListReservations returns reservations matching the filter, newest first.
func (db *DB) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	var conds []string
	var args []any

	if filter.BarberID > 0 {
		conds = append(conds, "barber_id = ?")
		args = append(args, filter.BarberID)
	}
	if filter.CustomerID > 0 {
		conds = append(conds, "customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if filter.ServiceID > 0 {
		conds = append(conds, "service_id = ?")
		args = append(args, filter.ServiceID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.DateFrom != "" {
		conds = append(conds, "date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conds = append(conds, "date <= ?")
		args = append(args, filter.DateTo)
	}

	query := "SELECT " + reservationColumns + " FROM reservations"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, time_slot DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
