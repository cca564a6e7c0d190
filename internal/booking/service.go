package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"barberbook/internal/metrics"
	"barberbook/internal/models"
	"barberbook/internal/notify"
	"barberbook/internal/schedule"
)

// Store is the persistence surface the lifecycle needs.
type Store interface {
	CreateReservation(ctx context.Context, r *models.Reservation) (int64, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id int64, status models.ReservationStatus) error
	SetCancelRequested(ctx context.Context, id int64) error
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	ReleaseSlot(ctx context.Context, r *models.Reservation) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetBarber(ctx context.Context, id int64) (*models.Barber, error)
	RecordAudit(ctx context.Context, actor, action, entity string, entityID int64, details string) error
}

// Availability is the pre-insert slot check. The ledger insert stays the
// authoritative guard; this check exists to give callers a specific error
// before they hit the unique index.
type Availability interface {
	IsSlotAvailable(ctx context.Context, serviceID int64, date, slot string) (bool, schedule.Rejection, error)
}

// Notifier queues a notification without blocking.
type Notifier interface {
	Enqueue(msg notify.Message) bool
}

// Service drives the reservation lifecycle: upcoming, accepted, then
// completed, with cancellation allowed out of the two live states. Terminal
// states accept no further transitions.
type Service struct {
	store    Store
	resolver Availability
	notifier Notifier
	logger   *zerolog.Logger
}

func NewService(store Store, resolver Availability, notifier Notifier, logger *zerolog.Logger) *Service {
	return &Service{store: store, resolver: resolver, notifier: notifier, logger: logger}
}

// CreateRequest is the input for a new reservation.
type CreateRequest struct {
	CustomerID int64
	ServiceID  int64
	Date       string
	TimeSlot   string
	Price      float64 // zero means "use the service's listed price"
	Tips       float64
}

// Create books a slot. The slot label is normalized to 24-hour form when
// possible; an unparseable label is kept verbatim, and a normalized label
// the schedule does not know falls back to the verbatim form, so schedules
// declared with their own label style stay bookable. The resolver runs
// first for a precise rejection, but the ledger's unique index decides
// races.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Reservation, error) {
	if _, err := models.ParseDate(req.Date); err != nil {
		return nil, err
	}

	slot := req.TimeSlot
	if normalized, err := models.NormalizeSlot(req.TimeSlot); err == nil {
		slot = normalized
	}

	service, err := s.store.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("load service %d: %w", req.ServiceID, err)
	}

	ok, rej, err := s.resolver.IsSlotAvailable(ctx, req.ServiceID, req.Date, slot)
	if err != nil {
		return nil, err
	}
	if !ok && rej.Reason == schedule.ReasonNotInSchedule && slot != req.TimeSlot {
		// The schedule itself may be declared with the label the caller sent,
		// e.g. a 12-hour form. When the normalized label is unknown, check the
		// verbatim label and book under whichever form the schedule uses.
		slot = req.TimeSlot
		ok, rej, err = s.resolver.IsSlotAvailable(ctx, req.ServiceID, req.Date, slot)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, rejectionError(rej, req.Date, slot)
	}

	price := req.Price
	if price <= 0 {
		price = service.Price
	}

	r := &models.Reservation{
		BarberID:       service.BarberID,
		CustomerID:     req.CustomerID,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		TimeSlot:       slot,
		Status:         models.StatusUpcoming,
		PaymentStatus:  models.PaymentPending,
		Price:          price,
		Tips:           req.Tips,
		TransactionRef: "tx_" + uuid.NewString(),
	}

	if _, err := s.store.CreateReservation(ctx, r); err != nil {
		if errors.Is(err, models.ErrSlotTaken) {
			metrics.SlotConflicts.Inc()
		}
		return nil, err
	}
	metrics.ReservationsCreated.WithLabelValues(string(r.Status)).Inc()

	s.audit(ctx, fmt.Sprintf("customer:%d", req.CustomerID), "create", r.ID,
		fmt.Sprintf("%s %s service=%d", r.Date, r.TimeSlot, r.ServiceID))
	s.notifyBarber(ctx, r,
		fmt.Sprintf("New reservation #%d: %s on %s at %s", r.ID, service.Name, r.Date, r.TimeSlot))

	return r, nil
}

// allowedTransitions lists the legal status moves out of each live state.
var allowedTransitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusUpcoming: {models.StatusAccepted, models.StatusCanceled},
	models.StatusAccepted: {models.StatusCompleted, models.StatusCanceled},
}

func transitionAllowed(from, to models.ReservationStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves a reservation to a new status. Terminal reservations
// reject every transition. Moving into a terminal state releases the slot so
// it becomes bookable again.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status models.ReservationStatus, actor string) (*models.Reservation, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %d is %s", models.ErrPreconditionFailed, id, r.Status)
	}
	if !transitionAllowed(r.Status, status) {
		return nil, fmt.Errorf("%w: cannot move reservation %d from %s to %s",
			models.ErrPreconditionFailed, id, r.Status, status)
	}

	if err := s.store.UpdateReservationStatus(ctx, id, status); err != nil {
		return nil, err
	}
	metrics.StatusChanges.WithLabelValues(string(status)).Inc()

	if status.IsTerminal() {
		if err := s.store.ReleaseSlot(ctx, r); err != nil {
			// The reservation is already terminal; a stuck ledger entry is
			// recoverable, failing the transition here is not.
			s.logger.Error().Err(err).Int64("reservation_id", id).Msg("slot release failed")
		}
	}

	r.Status = status
	s.audit(ctx, actor, "status:"+string(status), id, fmt.Sprintf("%s %s", r.Date, r.TimeSlot))
	s.notifyCustomer(ctx, r, statusMessage(r))
	return r, nil
}

// CancelByCustomer flags a cancellation request and tells the barber. The
// reservation itself stays live until the barber cancels it.
func (s *Service) CancelByCustomer(ctx context.Context, id int64) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %d is %s", models.ErrPreconditionFailed, id, r.Status)
	}

	if err := s.store.SetCancelRequested(ctx, id); err != nil {
		return nil, err
	}
	r.CancelRequested = true

	s.audit(ctx, fmt.Sprintf("customer:%d", r.CustomerID), "cancel_request", id, "")
	s.notifyBarber(ctx, r,
		fmt.Sprintf("Customer asked to cancel reservation #%d (%s at %s)", r.ID, r.Date, r.TimeSlot))
	return r, nil
}

// ConfirmCompletion marks a reservation completed. The barber must have a
// payout account configured first, otherwise the money from the visit has
// nowhere to go.
func (s *Service) ConfirmCompletion(ctx context.Context, id int64, actor string) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	barber, err := s.store.GetBarber(ctx, r.BarberID)
	if err != nil {
		return nil, err
	}
	if !barber.HasPayoutAccount() {
		return nil, fmt.Errorf("%w: barber %d has no payout account", models.ErrPreconditionFailed, r.BarberID)
	}

	return s.UpdateStatus(ctx, id, models.StatusCompleted, actor)
}

// Get returns a reservation by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

// List returns reservations matching the filter.
func (s *Service) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	return s.store.ListReservations(ctx, filter)
}

func rejectionError(rej schedule.Rejection, date, slot string) error {
	switch rej.Reason {
	case schedule.ReasonNotInSchedule:
		return fmt.Errorf("%w: %s is not offered on %s", models.ErrInvalidSlot, slot, date)
	case schedule.ReasonShopClosed:
		return fmt.Errorf("%w: shop is closed on %s", models.ErrClosedByShop, date)
	case schedule.ReasonTemporaryClosure:
		if rej.Closure != nil && rej.Closure.Reason != "" {
			return fmt.Errorf("%w: %s at %s is blocked (%s)", models.ErrClosedByShop, date, slot, rej.Closure.Reason)
		}
		return fmt.Errorf("%w: %s at %s is temporarily blocked", models.ErrClosedByShop, date, slot)
	case schedule.ReasonBooked:
		return fmt.Errorf("%w: %s at %s", models.ErrSlotTaken, date, slot)
	default:
		return fmt.Errorf("%w: slot %s on %s is not available", models.ErrInvalidSlot, slot, date)
	}
}

func statusMessage(r *models.Reservation) string {
	switch r.Status {
	case models.StatusAccepted:
		return fmt.Sprintf("Your reservation #%d on %s at %s was accepted", r.ID, r.Date, r.TimeSlot)
	case models.StatusCanceled:
		return fmt.Sprintf("Your reservation #%d on %s at %s was canceled", r.ID, r.Date, r.TimeSlot)
	case models.StatusCompleted:
		return fmt.Sprintf("Reservation #%d is complete, thank you for your visit", r.ID)
	default:
		return fmt.Sprintf("Reservation #%d is now %s", r.ID, r.Status)
	}
}

// audit records the action and logs on failure; audit problems never abort
// the operation that produced them.
func (s *Service) audit(ctx context.Context, actor, action string, reservationID int64, details string) {
	if err := s.store.RecordAudit(ctx, actor, action, "reservation", reservationID, details); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("audit record failed")
	}
}

func (s *Service) notifyBarber(ctx context.Context, r *models.Reservation, text string) {
	barber, err := s.store.GetBarber(ctx, r.BarberID)
	if err != nil {
		s.logger.Warn().Err(err).
			Int64("barber_id", r.BarberID).
			Int64("reservation_id", r.ID).
			Msg("barber lookup failed, notification dropped")
		return
	}
	if barber.ChatID == 0 {
		return
	}
	_ = s.notifier.Enqueue(notify.Message{
		ReceiverID:  barber.ChatID,
		Text:        text,
		ReferenceID: r.ID,
		Screen:      "barber_reservations",
	})
}

func (s *Service) notifyCustomer(_ context.Context, r *models.Reservation, text string) {
	_ = s.notifier.Enqueue(notify.Message{
		ReceiverID:  r.CustomerID,
		Text:        text,
		ReferenceID: r.ID,
		Screen:      "customer_reservations",
	})
}
