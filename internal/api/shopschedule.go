package api

import (
	"net/http"

	"barberbook/internal/models"
)

// UpsertShopScheduleRequest replaces a barber's weekly closure shape.
type UpsertShopScheduleRequest struct {
	BarberID      int64           `json:"barber_id" validate:"required,gt=0"`
	WeeklyClosure map[string]bool `json:"weekly_closure"`
	Notes         string          `json:"notes,omitempty"`
}

// TemporaryClosureRequest creates or replaces the closure for a date.
type TemporaryClosureRequest struct {
	BarberID      int64    `json:"barber_id" validate:"required,gt=0"`
	Date          string   `json:"date" validate:"required"`
	AffectedSlots []string `json:"affected_slots,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// RemoveClosureRequest deletes or trims the closure for a date.
type RemoveClosureRequest struct {
	BarberID      int64    `json:"barber_id" validate:"required,gt=0"`
	Date          string   `json:"date" validate:"required"`
	SlotsToRemove []string `json:"slots_to_remove,omitempty"`
}

// handleShopSchedule serves GET and PATCH /api/shop-schedule.
func (s *HTTPServer) handleShopSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getShopSchedule(w, r)
	case http.MethodPatch, http.MethodPut:
		s.upsertShopSchedule(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getShopSchedule(w http.ResponseWriter, r *http.Request) {
	barberID := queryInt64(r.URL.Query().Get("barber_id"))
	if barberID <= 0 {
		writeError(w, http.StatusBadRequest, "barber_id is required")
		return
	}

	sched, err := s.store.GetShopSchedule(r.Context(), barberID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *HTTPServer) upsertShopSchedule(w http.ResponseWriter, r *http.Request) {
	var req UpsertShopScheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	weekly := make(map[models.Day]bool, len(req.WeeklyClosure))
	for name, closed := range req.WeeklyClosure {
		day, err := models.ParseDay(name)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		weekly[day] = closed
	}

	if err := s.store.UpsertShopSchedule(r.Context(), req.BarberID, weekly, req.Notes); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleTemporaryClosure serves POST and DELETE
// /api/shop-schedule/temporary-closure.
func (s *HTTPServer) handleTemporaryClosure(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.addTemporaryClosure(w, r)
	case http.MethodDelete:
		s.removeTemporaryClosure(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) addTemporaryClosure(w http.ResponseWriter, r *http.Request) {
	var req TemporaryClosureRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	day, err := models.DayOf(req.Date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	closure := &models.TemporaryClosure{
		BarberID:      req.BarberID,
		Date:          req.Date,
		DayOfWeek:     day,
		AffectedSlots: req.AffectedSlots,
		Reason:        req.Reason,
	}
	if err := s.store.AddTemporaryClosure(r.Context(), closure); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) removeTemporaryClosure(w http.ResponseWriter, r *http.Request) {
	var req RemoveClosureRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.RemoveTemporaryClosure(r.Context(), req.BarberID, req.Date, req.SlotsToRemove); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
