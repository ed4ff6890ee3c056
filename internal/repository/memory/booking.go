package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

type bookingRecord struct {
	// identity fields are copied out of the booking and never written again
	number    string
	firstName string
	lastName  string

	mu      sync.Mutex
	booking domain.Booking
}

func (r *bookingRecord) matches(key domain.BookingKey) bool {
	return strings.EqualFold(r.number, key.BookingNumber) &&
		strings.EqualFold(r.firstName, key.FirstName) &&
		strings.EqualFold(r.lastName, key.LastName)
}

// BookingStore implements domain.BookingRepository in process memory.
// The set of records is fixed at construction; each record carries its own
// mutex so mutations of different bookings never contend.
type BookingStore struct {
	records []*bookingRecord
}

var _ domain.BookingRepository = (*BookingStore)(nil)

// NewBookingStore creates a store seeded with bookings
func NewBookingStore(bookings []domain.Booking) (*BookingStore, error) {
	seen := make(map[string]struct{}, len(bookings))
	records := make([]*bookingRecord, 0, len(bookings))
	for _, b := range bookings {
		number := strings.ToLower(b.BookingNumber)
		if _, ok := seen[number]; ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateBooking, b.BookingNumber)
		}
		seen[number] = struct{}{}
		records = append(records, &bookingRecord{
			number:    b.BookingNumber,
			firstName: b.Customer.FirstName,
			lastName:  b.Customer.LastName,
			booking:   b,
		})
	}
	return &BookingStore{records: records}, nil
}

// List returns a snapshot of all bookings in seed order
func (s *BookingStore) List(ctx context.Context) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0, len(s.records))
	for _, rec := range s.records {
		rec.mu.Lock()
		bookings = append(bookings, rec.booking)
		rec.mu.Unlock()
	}
	return bookings, nil
}

// Find returns a copy of the booking matching key
func (s *BookingStore) Find(ctx context.Context, key domain.BookingKey) (*domain.Booking, error) {
	rec, err := s.lookup(key)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	b := rec.booking
	return &b, nil
}

// Update applies fn to the booking matching key under the record lock
func (s *BookingStore) Update(ctx context.Context, key domain.BookingKey, fn func(b *domain.Booking) error) (*domain.Booking, error) {
	rec, err := s.lookup(key)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	draft := rec.booking
	if err := fn(&draft); err != nil {
		return nil, err
	}
	// identity is not updatable
	draft.BookingNumber = rec.booking.BookingNumber
	draft.Customer = rec.booking.Customer
	rec.booking = draft

	b := draft
	return &b, nil
}

// lookup scans for the record matching key. It only reads the immutable
// identity fields, so no record lock is taken.
func (s *BookingStore) lookup(key domain.BookingKey) (*bookingRecord, error) {
	for _, rec := range s.records {
		if rec.matches(key) {
			return rec, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}
