package api

import (
	"net/http"
	"strconv"
	"strings"

	"barberbook/internal/metrics"
	"barberbook/internal/models"
)

// MaxAvailabilityDays caps the range form of the availability query.
const MaxAvailabilityDays = 90

// handleServiceAvailability serves
// GET /api/services/{id}/available-slots?date=YYYY-MM-DD[&days=N].
// Without days the response carries the slot list for one date; with days it
// carries one entry per date starting at date.
func (s *HTTPServer) handleServiceAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/services/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "available-slots" {
		writeError(w, http.StatusNotFound, "unknown path")
		return
	}
	serviceID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || serviceID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required; expected YYYY-MM-DD")
		return
	}
	if _, err := models.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	metrics.AvailabilityQueries.Inc()

	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		days, err := strconv.Atoi(daysParam)
		if err != nil || days <= 0 || days > MaxAvailabilityDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		result, err := s.resolver.AvailabilityForRange(r.Context(), serviceID, date, days)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": result})
		return
	}

	slots, err := s.resolver.AvailableSlots(r.Context(), serviceID, date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots})
}
