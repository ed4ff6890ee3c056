package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/repository/memory"
)

var testNow = time.Date(2026, 5, 20, 16, 30, 0, 0, time.UTC)

func newTestBookingService(t *testing.T, daysAhead int) *BookingService {
	t.Helper()
	store, err := memory.NewBookingStore([]domain.Booking{{
		BookingNumber: "101",
		TicketNumber:  "FN100101",
		Date:          domain.DateOnly(testNow).AddDate(0, 0, daysAhead),
		Customer:      domain.Customer{FirstName: "Frank", LastName: "Li"},
		Status:        domain.BookingStatusConfirmed,
		FromAirport:   "LAX",
		ToAirport:     "HND",
		SeatNumber:    "3A",
		BookingClass:  domain.BookingClassBusiness,
	}})
	require.NoError(t, err)
	return NewBookingService(store, WithClock(func() time.Time { return testNow }))
}

var frankKey = domain.BookingKey{BookingNumber: "101", FirstName: "Frank", LastName: "Li"}

func TestBookingService_GetBookingDetails(t *testing.T) {
	svc := newTestBookingService(t, 4)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		view, err := svc.GetBookingDetails(ctx, domain.BookingKey{BookingNumber: " 101 ", FirstName: "frank", LastName: "LI"})
		require.NoError(t, err)
		assert.Equal(t, "101", view.BookingNumber)
		assert.Equal(t, "Frank", view.FirstName)
		assert.Equal(t, "2026-05-24", view.Date)
		assert.Equal(t, domain.BookingStatusConfirmed, view.BookingStatus)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetBookingDetails(ctx, domain.BookingKey{BookingNumber: "999", FirstName: "Nobody", LastName: "Nobody"})
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("future flight is cancelled", func(t *testing.T) {
		svc := newTestBookingService(t, 4)

		b, err := svc.CancelBooking(ctx, frankKey)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, b.Status)

		view, err := svc.GetBookingDetails(ctx, frankKey)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, view.BookingStatus)

		// cancelling twice is a no-op
		_, err = svc.CancelBooking(ctx, frankKey)
		assert.NoError(t, err)
	})

	t.Run("flight today is rejected", func(t *testing.T) {
		svc := newTestBookingService(t, 0)

		_, err := svc.CancelBooking(ctx, domain.BookingKey{BookingNumber: "101", FirstName: "frank", LastName: "LI"})
		assert.ErrorIs(t, err, domain.ErrBusinessRule)
		assert.EqualError(t, err, msgCancelWindow)

		view, err := svc.GetBookingDetails(ctx, frankKey)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusConfirmed, view.BookingStatus)
	})

	t.Run("past flight is rejected", func(t *testing.T) {
		svc := newTestBookingService(t, -3)
		_, err := svc.CancelBooking(ctx, frankKey)
		assert.ErrorIs(t, err, domain.ErrBusinessRule)
	})

	t.Run("tomorrow is allowed", func(t *testing.T) {
		svc := newTestBookingService(t, 1)
		_, err := svc.CancelBooking(ctx, frankKey)
		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestBookingService(t, 4)
		_, err := svc.CancelBooking(ctx, domain.BookingKey{BookingNumber: "101", FirstName: "Frank", LastName: "Lee"})
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestBookingService_ChangeBooking(t *testing.T) {
	ctx := context.Background()
	req := domain.ChangeBookingRequest{
		BookingKey:  frankKey,
		NewDate:     "2026-06-01",
		FromAirport: "jfk",
		ToAirport:   "cdg",
	}

	t.Run("success", func(t *testing.T) {
		svc := newTestBookingService(t, 2)

		b, err := svc.ChangeBooking(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "2026-06-01", b.Date.Format(domain.DateLayout))
		assert.Equal(t, "JFK", b.FromAirport)
		assert.Equal(t, "CDG", b.ToAirport)
	})

	t.Run("rule is checked before arguments", func(t *testing.T) {
		svc := newTestBookingService(t, 0)

		bad := req
		bad.NewDate = "not-a-date"
		_, err := svc.ChangeBooking(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrBusinessRule)
		assert.EqualError(t, err, msgChangeWindow)
	})

	t.Run("invalid date", func(t *testing.T) {
		svc := newTestBookingService(t, 2)

		bad := req
		bad.NewDate = "01/06/2026"
		_, err := svc.ChangeBooking(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidDate)

		view, _ := svc.GetBookingDetails(ctx, frankKey)
		assert.Equal(t, "LAX", view.FromAirport)
	})
}

func TestBookingService_ChangeSeat(t *testing.T) {
	svc := newTestBookingService(t, -10)

	b, err := svc.ChangeSeat(context.Background(), frankKey, "12c")
	require.NoError(t, err)
	assert.Equal(t, "12C", b.SeatNumber)
}

func TestBookingService_ListBookings(t *testing.T) {
	svc := newTestBookingService(t, 4)

	views, err := svc.ListBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Li", views[0].LastName)
}

func TestBookingService_ConcurrentMutations(t *testing.T) {
	svc := newTestBookingService(t, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = svc.CancelBooking(ctx, frankKey)
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.ChangeSeat(ctx, frankKey, "9F")
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.GetBookingDetails(ctx, frankKey)
		}()
	}
	wg.Wait()

	view, err := svc.GetBookingDetails(ctx, frankKey)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, view.BookingStatus)
	assert.Equal(t, "9F", view.SeatNumber)
}
