package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/funnair-assistant/internal/api/response"
	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/service"
)

// BookingHandler handles booking endpoints
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// List returns every booking
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingService.ListBookings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, bookings)
}

// Get returns one booking, identified by its number and the customer name
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := keyFromRequest(r)
	if err := validate.Struct(key); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	view, err := h.bookingService.GetBookingDetails(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, view)
}

// Change moves a booking to a new date and route
func (h *BookingHandler) Change(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangeBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	booking, err := h.bookingService.ChangeBooking(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().Str("booking_number", booking.BookingNumber).Str("date", booking.Date.Format(domain.DateLayout)).Msg("booking changed")
	response.OK(w, map[string]any{
		"message": "Booking " + booking.BookingNumber + " has been changed successfully.",
		"booking": booking.View(),
	})
}

// Cancel cancels a booking
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var key domain.BookingKey
	if err := json.NewDecoder(r.Body).Decode(&key); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(key); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	booking, err := h.bookingService.CancelBooking(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().Str("booking_number", booking.BookingNumber).Msg("booking cancelled")
	response.OK(w, map[string]any{
		"message": "Booking " + booking.BookingNumber + " has been cancelled.",
		"booking": booking.View(),
	})
}

// ChangeSeat assigns a new seat to a booking
func (h *BookingHandler) ChangeSeat(w http.ResponseWriter, r *http.Request) {
	key := keyFromRequest(r)
	if err := validate.Struct(key); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	seat := r.URL.Query().Get("seat_number")
	if seat == "" {
		response.BadRequest(w, "seat_number is required")
		return
	}

	booking, err := h.bookingService.ChangeSeat(r.Context(), key, seat)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"message": "Seat changed to " + booking.SeatNumber + ".",
		"booking": booking.View(),
	})
}

func keyFromRequest(r *http.Request) domain.BookingKey {
	q := r.URL.Query()
	return domain.BookingKey{
		BookingNumber: chi.URLParam(r, "bookingNumber"),
		FirstName:     q.Get("first_name"),
		LastName:      q.Get("last_name"),
	}
}

// writeError maps booking errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	var violation *domain.RuleViolation

	switch {
	case errors.Is(err, domain.ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.As(err, &violation):
		response.BadRequest(w, violation.Reason)
	case errors.Is(err, domain.ErrInvalidDate):
		response.BadRequest(w, err.Error())
	default:
		log.Error().Err(err).Msg("booking request failed")
		response.InternalError(w, "internal server error")
	}
}
