package models

import "time"

// ReservationStatus represents the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusUpcoming  ReservationStatus = "upcoming"
	StatusAccepted  ReservationStatus = "accepted"
	StatusCanceled  ReservationStatus = "canceled"
	StatusCompleted ReservationStatus = "completed"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCanceled || s == StatusCompleted
}

// IsValid reports whether s is one of the known statuses.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusAccepted, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus represents the payment state of a reservation.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Reservation represents a single booking of a service slot.
type Reservation struct {
	ID              int64             `json:"id"`
	BarberID        int64             `json:"barber_id"`
	CustomerID      int64             `json:"customer_id"`
	ServiceID       int64             `json:"service_id"`
	Date            string            `json:"date"`      // YYYY-MM-DD
	TimeSlot        string            `json:"time_slot"` // HH:MM
	Status          ReservationStatus `json:"status"`
	PaymentStatus   PaymentStatus     `json:"payment_status"`
	Price           float64           `json:"price"`
	Tips            float64           `json:"tips"`
	TransactionRef  string            `json:"transaction_ref"`
	CancelRequested bool              `json:"cancel_requested"`
	Transferred     bool              `json:"transferred"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SlotEntry is one booked (date, time slot) pair in a service's slot ledger.
// The pair is unique per service while the owning reservation is live.
type SlotEntry struct {
	ID            int64     `json:"id"`
	ServiceID     int64     `json:"service_id"`
	Date          string    `json:"date"`
	TimeSlot      string    `json:"time_slot"`
	ReservationID int64     `json:"reservation_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Service is a bookable service offered by a barber.
type Service struct {
	ID              int64              `json:"id"`
	BarberID        int64              `json:"barber_id"`
	Name            string             `json:"name"`
	DurationMinutes int                `json:"duration_minutes"`
	Price           float64            `json:"price"`
	WeeklySchedule  map[Day][]string   `json:"weekly_schedule"` // day -> ordered slot labels
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// SlotsFor returns the declared slot labels for a day, in schedule order.
// A day absent from the mapping means the service is not offered that day.
func (s *Service) SlotsFor(day Day) []string {
	if s.WeeklySchedule == nil {
		return nil
	}
	return s.WeeklySchedule[day]
}

// ShopSchedule is a barber's shop-wide weekly closure map plus dated
// temporary closures. Weekly closures override every service schedule.
type ShopSchedule struct {
	BarberID          int64              `json:"barber_id"`
	WeeklyClosure     map[Day]bool       `json:"weekly_closure"` // day -> is closed
	ServiceTimeNotes  string             `json:"service_time_notes,omitempty"`
	TemporaryClosures []TemporaryClosure `json:"temporary_closures"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// IsClosedOn reports whether the shop is permanently closed on the given day.
func (s *ShopSchedule) IsClosedOn(day Day) bool {
	if s == nil || s.WeeklyClosure == nil {
		return false
	}
	return s.WeeklyClosure[day]
}

// ClosureFor returns the temporary closure for an exact date, if any.
func (s *ShopSchedule) ClosureFor(date string) *TemporaryClosure {
	if s == nil {
		return nil
	}
	for i := range s.TemporaryClosures {
		if s.TemporaryClosures[i].Date == date {
			return &s.TemporaryClosures[i]
		}
	}
	return nil
}

// TemporaryClosure blocks some or all slots on a specific calendar date.
// An empty AffectedSlots list means the whole day is closed.
// At most one closure record exists per (barber, date).
type TemporaryClosure struct {
	ID            int64     `json:"id"`
	BarberID      int64     `json:"barber_id"`
	Date          string    `json:"date"`
	DayOfWeek     Day       `json:"day_of_week"`
	AffectedSlots []string  `json:"affected_slots"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// WholeDay reports whether the closure blocks the entire day.
func (c *TemporaryClosure) WholeDay() bool {
	return len(c.AffectedSlots) == 0
}

// Blocks reports whether the closure blocks the given slot label.
func (c *TemporaryClosure) Blocks(slot string) bool {
	if c.WholeDay() {
		return true
	}
	for _, s := range c.AffectedSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Barber holds the barber fields the engine needs: the notification address
// and the payout account consulted before completion.
type Barber struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ChatID        int64     `json:"chat_id,omitempty"`
	PayoutAccount string    `json:"payout_account,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasPayoutAccount reports whether payout information is configured.
func (b *Barber) HasPayoutAccount() bool {
	return b != nil && b.PayoutAccount != ""
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	BarberID   int64
	CustomerID int64
	ServiceID  int64
	Status     ReservationStatus
	DateFrom   string
	DateTo     string
	Limit      int
	Offset     int
}
