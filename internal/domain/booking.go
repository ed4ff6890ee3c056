package domain

import (
	"context"
	"strings"
	"time"
)

// DateLayout is the wire format of booking dates
const DateLayout = "2006-01-02"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// BookingClass represents the fare class of a booking
type BookingClass string

const (
	BookingClassEconomy        BookingClass = "ECONOMY"
	BookingClassPremiumEconomy BookingClass = "PREMIUM_ECONOMY"
	BookingClassBusiness       BookingClass = "BUSINESS"
)

// BookingClasses lists every fare class in display order
var BookingClasses = []BookingClass{
	BookingClassEconomy,
	BookingClassPremiumEconomy,
	BookingClassBusiness,
}

// Customer represents the passenger owning a booking
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Booking represents a reservation of one flight segment
type Booking struct {
	BookingNumber string        `json:"booking_number"`
	TicketNumber  string        `json:"ticket_number"`
	Date          time.Time     `json:"date"`
	Customer      Customer      `json:"customer"`
	Status        BookingStatus `json:"status"`
	FromAirport   string        `json:"from_airport"`
	ToAirport     string        `json:"to_airport"`
	SeatNumber    string        `json:"seat_number"`
	BookingClass  BookingClass  `json:"booking_class"`
}

// BookingKey identifies a booking together with its owner
type BookingKey struct {
	BookingNumber string `json:"booking_number" validate:"required"`
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
}

// BookingView is the flattened read projection of a booking
type BookingView struct {
	BookingNumber string        `json:"booking_number"`
	TicketNumber  string        `json:"ticket_number"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	Date          string        `json:"date"`
	BookingStatus BookingStatus `json:"booking_status"`
	FromAirport   string        `json:"from_airport"`
	ToAirport     string        `json:"to_airport"`
	SeatNumber    string        `json:"seat_number"`
	BookingClass  BookingClass  `json:"booking_class"`
}

// View projects the booking for external consumption
func (b *Booking) View() BookingView {
	return BookingView{
		BookingNumber: b.BookingNumber,
		TicketNumber:  b.TicketNumber,
		FirstName:     b.Customer.FirstName,
		LastName:      b.Customer.LastName,
		Date:          b.Date.Format(DateLayout),
		BookingStatus: b.Status,
		FromAirport:   b.FromAirport,
		ToAirport:     b.ToAirport,
		SeatNumber:    b.SeatNumber,
		BookingClass:  b.BookingClass,
	}
}

// ChangeBookingRequest represents a date/route change of a booking
type ChangeBookingRequest struct {
	BookingKey
	NewDate     string `json:"new_date" validate:"required"`
	FromAirport string `json:"from_airport" validate:"required"`
	ToAirport   string `json:"to_airport" validate:"required"`
}

// BookingRepository defines the interface for booking storage.
// Update runs fn under the record's lock; the booking passed to fn may be
// mutated and is persisted only when fn returns nil.
type BookingRepository interface {
	List(ctx context.Context) ([]Booking, error)
	Find(ctx context.Context, key BookingKey) (*Booking, error)
	Update(ctx context.Context, key BookingKey, fn func(b *Booking) error) (*Booking, error)
}

// DateOnly truncates t to its calendar day in UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD booking date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
