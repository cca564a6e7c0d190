package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"barberbook/internal/booking"
	"barberbook/internal/models"
	"barberbook/internal/schedule"
)

// ScheduleStore is the shop-schedule surface exposed over HTTP.
type ScheduleStore interface {
	GetShopSchedule(ctx context.Context, barberID int64) (*models.ShopSchedule, error)
	UpsertShopSchedule(ctx context.Context, barberID int64, weekly map[models.Day]bool, notes string) error
	AddTemporaryClosure(ctx context.Context, c *models.TemporaryClosure) error
	RemoveTemporaryClosure(ctx context.Context, barberID int64, date string, slotsToRemove []string) error
}

// HTTPServer serves the booking API.
type HTTPServer struct {
	server   *http.Server
	booking  *booking.Service
	resolver *schedule.Resolver
	store    ScheduleStore
	validate *validator.Validate
	logger   *zerolog.Logger
}

func NewHTTPServer(addr string, bookingSvc *booking.Service, resolver *schedule.Resolver, store ScheduleStore, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		booking:  bookingSvc,
		resolver: resolver,
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/reservations", s.handleReservations)
	mux.HandleFunc("/api/reservations/", s.handleReservationByID)
	mux.HandleFunc("/api/services/", s.handleServiceAvailability)
	mux.HandleFunc("/api/shop-schedule", s.handleShopSchedule)
	mux.HandleFunc("/api/shop-schedule/temporary-closure", s.handleTemporaryClosure)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the model sentinels onto HTTP statuses.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrSlotTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrPreconditionFailed):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, models.ErrClosedByShop),
		errors.Is(err, models.ErrInvalidSlot),
		errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
