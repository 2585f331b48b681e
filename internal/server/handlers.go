package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/username/hotel-booking-calendar/internal/booking"
	"github.com/username/hotel-booking-calendar/internal/ledger"
	"github.com/username/hotel-booking-calendar/internal/monthview"
	"github.com/username/hotel-booking-calendar/internal/recurrence"
	"github.com/username/hotel-booking-calendar/internal/selection"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
	"go.uber.org/zap"
)

// maxOccurrences caps recurrence expansion requests without their own limit
const maxOccurrences = 366

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

type evaluateRequest struct {
	RoomID string              `json:"roomId"`
	Range  selection.DateRange `json:"range"`
}

type evaluateResponse struct {
	Selection selection.DateRange `json:"selection"`
	selection.Result
	FormattedTotal string `json:"formattedTotal,omitempty"`
}

type bookingResponse struct {
	Booking ledger.Booking   `json:"booking"`
	Result  selection.Result `json:"result"`
}

type expandRequest struct {
	Start   string             `json:"start"`
	Pattern recurrence.Pattern `json:"pattern"`
	Limit   int                `json:"limit"`
}

type expandResponse struct {
	Occurrences []string `json:"occurrences"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// serviceStatus maps service errors to HTTP status codes
func serviceStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrUnknownRoom):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrOverlap):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNotBookable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := s.service.Quote(r.Context(), req.RoomID, req.Range)
	if err != nil {
		s.writeError(w, r, serviceStatus(err), err)
		return
	}

	resp := evaluateResponse{Selection: req.Range, Result: result}
	if !s.opts.Display.ShowSelectionErrors {
		resp.Error = nil
	}
	if !s.opts.Display.ShowPriceCalculation {
		resp.Calculation = nil
	}
	if resp.Calculation != nil {
		resp.FormattedTotal = selection.FormatMoney(resp.Calculation.TotalPrice, resp.Calculation.Currency, s.opts.Locale)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// yearMonth parses the {year}/{month} URL parameters
func yearMonth(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, errors.New("invalid year")
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errors.New("invalid month")
	}
	return year, time.Month(month), nil
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	q := r.URL.Query()
	rng, err := selection.NewDateRange(q.Get("checkIn"), q.Get("checkOut"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	m, err := s.service.Month(r.Context(), q.Get("room"), year, month, monthview.Options{
		WeekStart: s.opts.WeekStart,
		Selection: rng,
	})
	if err != nil {
		s.writeError(w, r, serviceStatus(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.Dashboard(year, month))
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.Bookings())
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req booking.Reservation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if req.GuestName == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("guestName is required"))
		return
	}

	b, result, err := s.service.Book(r.Context(), req)
	if err != nil {
		if errors.Is(err, booking.ErrNotBookable) {
			s.writeJSON(w, http.StatusUnprocessableEntity, bookingResponse{Result: result})
			return
		}
		s.writeError(w, r, serviceStatus(err), err)
		return
	}

	s.writeJSON(w, http.StatusCreated, bookingResponse{Booking: b, Result: result})
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	b, err := s.service.Cancel(id)
	if err != nil {
		s.writeError(w, r, serviceStatus(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	start, err := dateutil.ParseISODate(req.Start)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > maxOccurrences {
		limit = maxOccurrences
	}

	dates, err := recurrence.Expand(start, req.Pattern, limit)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	resp := expandResponse{Occurrences: make([]string, len(dates))}
	for i, d := range dates {
		resp.Occurrences[i] = dateutil.FormatISODate(d)
	}
	s.writeJSON(w, http.StatusOK, resp)
}
