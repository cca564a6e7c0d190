package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReservationsCreated counts created reservations by initial status.
	ReservationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barberbook_reservations_created_total",
			Help: "Reservations created, labeled by initial status.",
		},
		[]string{"status"},
	)

	// SlotConflicts counts booking attempts rejected because the slot was
	// already taken.
	SlotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "barberbook_slot_conflicts_total",
			Help: "Booking attempts that lost the slot to another reservation.",
		},
	)

	// StatusChanges counts reservation status transitions.
	StatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barberbook_status_changes_total",
			Help: "Reservation status transitions, labeled by target status.",
		},
		[]string{"status"},
	)

	// NotificationsSent counts dispatched notifications by outcome.
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barberbook_notifications_total",
			Help: "Notification dispatch outcomes.",
		},
		[]string{"outcome"},
	)

	// AvailabilityQueries counts schedule resolutions.
	AvailabilityQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "barberbook_availability_queries_total",
			Help: "Availability resolutions served.",
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ReservationsCreated,
			SlotConflicts,
			StatusChanges,
			NotificationsSent,
			AvailabilityQueries,
		)
	})
}
