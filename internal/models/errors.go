package models

import "errors"

// Sentinel errors returned by the engine. API handlers map these to
// HTTP statuses; everything else is treated as internal.
var (
	// ErrNotFound means a service, reservation, barber or shop schedule
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSlot means the requested slot is not in the service's
	// weekly schedule for that day, or the day has no schedule at all.
	ErrInvalidSlot = errors.New("slot not in service schedule")

	// ErrClosedByShop means a weekly or temporary shop closure blocks the
	// slot or the whole day.
	ErrClosedByShop = errors.New("shop closed")

	// ErrSlotTaken means the (service, date, slot) pair is already held by
	// a live reservation. It is the authoritative conflict signal from the
	// slot ledger's unique insert.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrPreconditionFailed means an operation's precondition does not
	// hold, e.g. completion without a payout account or a transition out
	// of a terminal status.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidInput means malformed dates, slot labels or missing fields.
	ErrInvalidInput = errors.New("invalid input")
)
