package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"barberbook/internal/models"
)

// Catalog yields service definitions with their weekly schedules.
type Catalog interface {
	GetService(ctx context.Context, id int64) (*models.Service, error)
}

// ShopStore yields the shop-wide schedule of a barber.
type ShopStore interface {
	GetShopSchedule(ctx context.Context, barberID int64) (*models.ShopSchedule, error)
}

// Ledger answers which slots are already booked.
type Ledger interface {
	BookedSlots(ctx context.Context, serviceID int64, date string) (map[string]bool, error)
	IsSlotBooked(ctx context.Context, serviceID int64, date, slot string) (bool, error)
}

// Reason explains why a slot is not available.
type Reason string

const (
	ReasonAvailable        Reason = ""
	ReasonNotInSchedule    Reason = "not_in_schedule"
	ReasonShopClosed       Reason = "shop_closed"
	ReasonTemporaryClosure Reason = "temporary_closure"
	ReasonBooked           Reason = "booked"
)

// Resolver computes bookable slots by filtering a service's weekly schedule
// through shop closures and the slot ledger. Filters apply in a fixed order:
// weekly schedule, shop weekly closure, temporary closure, booked slots. Slot
// order always follows the schedule declaration, never lexical sorting.
type Resolver struct {
	catalog Catalog
	shop    ShopStore
	ledger  Ledger
	logger  *zerolog.Logger
}

func New(catalog Catalog, shop ShopStore, ledger Ledger, logger *zerolog.Logger) *Resolver {
	return &Resolver{catalog: catalog, shop: shop, ledger: ledger, logger: logger}
}

// AvailableSlots returns the bookable slot labels for a service on a date,
// in schedule declaration order. A day with no declared slots, a shop-closed
// day, and a whole-day temporary closure all yield an empty list.
func (r *Resolver) AvailableSlots(ctx context.Context, serviceID int64, date string) ([]string, error) {
	day, err := models.DayOf(date)
	if err != nil {
		return nil, err
	}

	service, err := r.catalog.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	declared := service.SlotsFor(day)
	if len(declared) == 0 {
		return []string{}, nil
	}

	sched, err := r.shopSchedule(ctx, service.BarberID)
	if err != nil {
		return nil, err
	}
	if sched.IsClosedOn(day) {
		return []string{}, nil
	}

	closure := sched.ClosureFor(date)
	if closure != nil && closure.WholeDay() {
		return []string{}, nil
	}

	booked, err := r.ledger.BookedSlots(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}

	available := make([]string, 0, len(declared))
	for _, slot := range declared {
		if closure != nil && closure.Blocks(slot) {
			continue
		}
		if booked[slot] {
			continue
		}
		available = append(available, slot)
	}
	return available, nil
}

// Rejection names the first filter that blocked a slot. Closure is set when
// a temporary closure was the blocking filter, so callers can surface its
// reason.
type Rejection struct {
	Reason  Reason
	Closure *models.TemporaryClosure
}

// IsSlotAvailable checks a single slot and reports the first filter that
// rejects it.
func (r *Resolver) IsSlotAvailable(ctx context.Context, serviceID int64, date, slot string) (bool, Rejection, error) {
	day, err := models.DayOf(date)
	if err != nil {
		return false, Rejection{}, err
	}

	service, err := r.catalog.GetService(ctx, serviceID)
	if err != nil {
		return false, Rejection{}, err
	}

	inSchedule := false
	for _, s := range service.SlotsFor(day) {
		if s == slot {
			inSchedule = true
			break
		}
	}
	if !inSchedule {
		return false, Rejection{Reason: ReasonNotInSchedule}, nil
	}

	sched, err := r.shopSchedule(ctx, service.BarberID)
	if err != nil {
		return false, Rejection{}, err
	}
	if sched.IsClosedOn(day) {
		return false, Rejection{Reason: ReasonShopClosed}, nil
	}
	if closure := sched.ClosureFor(date); closure != nil && closure.Blocks(slot) {
		return false, Rejection{Reason: ReasonTemporaryClosure, Closure: closure}, nil
	}

	booked, err := r.ledger.IsSlotBooked(ctx, serviceID, date, slot)
	if err != nil {
		return false, Rejection{}, err
	}
	if booked {
		return false, Rejection{Reason: ReasonBooked}, nil
	}
	return true, Rejection{}, nil
}

// DayAvailability is one day of a range query.
type DayAvailability struct {
	Date  string     `json:"date"`
	Day   models.Day `json:"day"`
	Slots []string   `json:"slots"`
}

// AvailabilityForRange resolves availability for consecutive dates starting
// at startDate. Days with nothing bookable appear with an empty slot list so
// callers can render a full calendar.
func (r *Resolver) AvailabilityForRange(ctx context.Context, serviceID int64, startDate string, days int) ([]DayAvailability, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: range must cover at least one day", models.ErrInvalidInput)
	}
	start, err := models.ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	out := make([]DayAvailability, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(models.DateLayout)
		slots, err := r.AvailableSlots(ctx, serviceID, date)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", date, err)
		}
		day, _ := models.DayOf(date)
		out = append(out, DayAvailability{Date: date, Day: day, Slots: slots})
	}
	return out, nil
}

// shopSchedule loads the shop schedule, treating a never-configured shop as
// fully open.
func (r *Resolver) shopSchedule(ctx context.Context, barberID int64) (*models.ShopSchedule, error) {
	sched, err := r.shop.GetShopSchedule(ctx, barberID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.ShopSchedule{BarberID: barberID}, nil
	}
	if err != nil {
		return nil, err
	}
	return sched, nil
}
