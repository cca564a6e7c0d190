package database

import (
	"context"
	"fmt"

	"barberbook/internal/models"
)

// ReserveSlot inserts a slot ledger entry. The unique index on
// (service_id, date, time_slot) makes the insert the authoritative guard
// against double booking: the second concurrent writer gets ErrSlotTaken.
func (db *DB) ReserveSlot(ctx context.Context, entry *models.SlotEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO booked_slots (service_id, date, time_slot, reservation_id)
		VALUES (?, ?, ?, ?)`,
		entry.ServiceID, entry.Date, entry.TimeSlot, entry.ReservationID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrSlotTaken
		}
		return fmt.Errorf("reserve slot: %w", err)
	}
	return nil
}

// ReleaseSlot removes the ledger entry for a reservation. It matches by
// reservation id first and falls back to the (service, date, slot) triple
// when the id linkage is missing. Releasing an already-released slot is a
// no-op, which keeps status-change retries idempotent.
func (db *DB) ReleaseSlot(ctx context.Context, r *models.Reservation) error {
	result, err := db.ExecContext(ctx,
		"DELETE FROM booked_slots WHERE reservation_id = ?", r.ID)
	if err != nil {
		return fmt.Errorf("release slot by reservation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	_, err = db.ExecContext(ctx, `
		DELETE FROM booked_slots
		WHERE service_id = ? AND date = ? AND time_slot = ?`,
		r.ServiceID, r.Date, r.TimeSlot,
	)
	if err != nil {
		return fmt.Errorf("release slot by date: %w", err)
	}
	return nil
}

// IsSlotBooked reports whether a ledger entry exists for the triple.
func (db *DB) IsSlotBooked(ctx context.Context, serviceID int64, date, slot string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM booked_slots
		WHERE service_id = ? AND date = ? AND time_slot = ?`,
		serviceID, date, slot,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check slot: %w", err)
	}
	return count > 0, nil
}

// BookedSlots returns the booked slot labels for a service on a date.
func (db *DB) BookedSlots(ctx context.Context, serviceID int64, date string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT time_slot FROM booked_slots
		WHERE service_id = ? AND date = ?`,
		serviceID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}
	defer rows.Close()

	booked := make(map[string]bool)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		booked[slot] = true
	}
	return booked, rows.Err()
}

// LedgerEntry returns the live ledger entry for a reservation, if any.
func (db *DB) LedgerEntry(ctx context.Context, reservationID int64) (*models.SlotEntry, error) {
	var e models.SlotEntry
	err := db.QueryRowContext(ctx, `
		SELECT id, service_id, date, time_slot, reservation_id, created_at
		FROM booked_slots WHERE reservation_id = ?`,
		reservationID,
	).Scan(&e.ID, &e.ServiceID, &e.Date, &e.TimeSlot, &e.ReservationID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
