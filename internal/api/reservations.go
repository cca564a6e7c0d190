package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"barberbook/internal/booking"
	"barberbook/internal/models"
)

// CreateReservationRequest is the body for POST /api/reservations.
type CreateReservationRequest struct {
	CustomerID int64   `json:"customer_id" validate:"required,gt=0"`
	ServiceID  int64   `json:"service_id" validate:"required,gt=0"`
	Date       string  `json:"date" validate:"required"`
	TimeSlot   string  `json:"time_slot" validate:"required"`
	Price      float64 `json:"price,omitempty" validate:"gte=0"`
	Tips       float64 `json:"tips,omitempty" validate:"gte=0"`
}

// UpdateStatusRequest is the body for PATCH /api/reservations/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Actor  string `json:"actor,omitempty"`
}

// handleReservations covers the collection: create and list.
func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createReservation(w, r)
	case http.MethodGet:
		s.listReservations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.booking.Create(r.Context(), bookingCreateRequest(req))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ReservationFilter{
		BarberID:   queryInt64(q.Get("barber_id")),
		CustomerID: queryInt64(q.Get("customer_id")),
		ServiceID:  queryInt64(q.Get("service_id")),
		Status:     models.ReservationStatus(q.Get("status")),
		DateFrom:   q.Get("date_from"),
		DateTo:     q.Get("date_to"),
		Limit:      int(queryInt64(q.Get("limit"))),
		Offset:     int(queryInt64(q.Get("offset"))),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", filter.Status))
		return
	}

	list, err := s.booking.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []models.Reservation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

// handleReservationByID routes /api/reservations/{id} and its subresources.
func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/reservations/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.getReservation(w, r, id)
	case len(parts) == 2 && parts[1] == "status":
		if r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed; use PATCH")
			return
		}
		s.updateStatus(w, r, id)
	case len(parts) == 2 && parts[1] == "cancel-request":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
			return
		}
		s.cancelRequest(w, r, id)
	case len(parts) == 2 && parts[1] == "available-slots":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.reservationAvailability(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "unknown path")
	}
}

func (s *HTTPServer) getReservation(w http.ResponseWriter, r *http.Request, id int64) {
	res, err := s.booking.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) updateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	var req UpdateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = "api"
	}

	status := models.ReservationStatus(req.Status)
	var res *models.Reservation
	var err error
	if status == models.StatusCompleted {
		// Completion carries the payout-account precondition.
		res, err = s.booking.ConfirmCompletion(r.Context(), id, actor)
	} else {
		res, err = s.booking.UpdateStatus(r.Context(), id, status, actor)
	}
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) cancelRequest(w http.ResponseWriter, r *http.Request, id int64) {
	res, err := s.booking.CancelByCustomer(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// reservationAvailability lists free slots for the reservation's service.
// Without a date parameter it uses the reservation's own date, which is the
// natural query when rescheduling.
func (s *HTTPServer) reservationAvailability(w http.ResponseWriter, r *http.Request, id int64) {
	res, err := s.booking.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = res.Date
	}
	if _, err := models.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	slots, err := s.resolver.AvailableSlots(r.Context(), res.ServiceID, date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots})
}

func bookingCreateRequest(req CreateReservationRequest) booking.CreateRequest {
	return booking.CreateRequest{
		CustomerID: req.CustomerID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		TimeSlot:   req.TimeSlot,
		Price:      req.Price,
		Tips:       req.Tips,
	}
}

func queryInt64(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
