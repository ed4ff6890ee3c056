package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

const (
	msgChangeWindow = "Booking cannot be changed within 24 hours of the start date."
	msgCancelWindow = "Booking cannot be cancelled within 48 hours of the start date."
	msgCompleted    = "Booking has already been completed and cannot be cancelled."
)

// BookingService enforces the booking business rules on top of a repository
type BookingService struct {
	repo domain.BookingRepository
	now  func() time.Time
}

// BookingOption configures a BookingService
type BookingOption func(*BookingService)

// WithClock overrides the clock used for the date rules
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// NewBookingService creates a new booking service
func NewBookingService(repo domain.BookingRepository, opts ...BookingOption) *BookingService {
	s := &BookingService{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListBookings returns every booking in seed order
func (s *BookingService) ListBookings(ctx context.Context) ([]domain.BookingView, error) {
	bookings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	views := make([]domain.BookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, bookings[i].View())
	}
	return views, nil
}

// FindBooking looks a booking up by number and owner name, ignoring case
func (s *BookingService) FindBooking(ctx context.Context, key domain.BookingKey) (*domain.Booking, error) {
	return s.repo.Find(ctx, normalizeKey(key))
}

// GetBookingDetails returns the read projection of a booking
func (s *BookingService) GetBookingDetails(ctx context.Context, key domain.BookingKey) (*domain.BookingView, error) {
	b, err := s.FindBooking(ctx, key)
	if err != nil {
		return nil, err
	}
	view := b.View()
	return &view, nil
}

// ChangeBooking moves a booking to a new date and route. Bookings flying
// today or earlier are rejected before the new values are looked at.
func (s *BookingService) ChangeBooking(ctx context.Context, req domain.ChangeBookingRequest) (*domain.Booking, error) {
	return s.repo.Update(ctx, normalizeKey(req.BookingKey), func(b *domain.Booking) error {
		if !s.isBeforeFlightDay(b) {
			return &domain.RuleViolation{Reason: msgChangeWindow}
		}

		date, err := domain.ParseDate(req.NewDate)
		if err != nil {
			return err
		}

		b.Date = date
		b.FromAirport = strings.ToUpper(strings.TrimSpace(req.FromAirport))
		b.ToAirport = strings.ToUpper(strings.TrimSpace(req.ToAirport))
		return nil
	})
}

// CancelBooking marks a booking as cancelled
func (s *BookingService) CancelBooking(ctx context.Context, key domain.BookingKey) (*domain.Booking, error) {
	return s.repo.Update(ctx, normalizeKey(key), func(b *domain.Booking) error {
		if !s.isBeforeFlightDay(b) {
			return &domain.RuleViolation{Reason: msgCancelWindow}
		}

		switch b.Status {
		case domain.BookingStatusCancelled:
			return nil
		case domain.BookingStatusCompleted:
			return &domain.RuleViolation{Reason: msgCompleted}
		}

		b.Status = domain.BookingStatusCancelled
		return nil
	})
}

// ChangeSeat assigns a new seat; no date rule applies
func (s *BookingService) ChangeSeat(ctx context.Context, key domain.BookingKey, seatNumber string) (*domain.Booking, error) {
	seatNumber = strings.ToUpper(strings.TrimSpace(seatNumber))
	return s.repo.Update(ctx, normalizeKey(key), func(b *domain.Booking) error {
		b.SeatNumber = seatNumber
		return nil
	})
}

// isBeforeFlightDay reports whether today is strictly before the flight date.
// The comparison is by calendar day only.
func (s *BookingService) isBeforeFlightDay(b *domain.Booking) bool {
	today := domain.DateOnly(s.now())
	return domain.DateOnly(b.Date).After(today)
}

func normalizeKey(key domain.BookingKey) domain.BookingKey {
	return domain.BookingKey{
		BookingNumber: strings.TrimSpace(key.BookingNumber),
		FirstName:     strings.TrimSpace(key.FirstName),
		LastName:      strings.TrimSpace(key.LastName),
	}
}
