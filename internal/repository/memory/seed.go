package memory

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

var (
	demoFirstNames = []string{"Frank", "Danny", "Michael", "Eugenia", "Robert"}
	demoLastNames  = []string{"Li", "Smith", "Wu", "Williams", "Xiong"}
	demoAirports   = []string{"LAX", "YVR", "JFK", "LHR", "CDG", "ARN", "HEL", "HND", "MUC", "FRA", "MAD", "FUN", "SJC"}
)

// DemoBookings generates the five demo bookings 101..105. Flight dates are
// spread two days apart starting tomorrow, so every demo booking can still be
// changed or cancelled.
func DemoBookings(now time.Time, rnd *rand.Rand) []domain.Booking {
	today := domain.DateOnly(now)
	bookings := make([]domain.Booking, 0, len(demoFirstNames))

	for i := range demoFirstNames {
		first, last := demoFirstNames[i], demoLastNames[i]
		from := demoAirports[rnd.IntN(len(demoAirports))]
		to := demoAirports[rnd.IntN(len(demoAirports))]
		for to == from {
			to = demoAirports[rnd.IntN(len(demoAirports))]
		}

		bookings = append(bookings, domain.Booking{
			BookingNumber: fmt.Sprintf("10%d", i+1),
			TicketNumber:  fmt.Sprintf("FN%d", 100000+rnd.IntN(900000)),
			Date:          today.AddDate(0, 0, 1+2*i),
			Customer: domain.Customer{
				FirstName: first,
				LastName:  last,
				Email:     fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
			},
			Status:       domain.BookingStatusConfirmed,
			FromAirport:  from,
			ToAirport:    to,
			SeatNumber:   fmt.Sprintf("%dA", 1+rnd.IntN(19)),
			BookingClass: domain.BookingClasses[rnd.IntN(len(domain.BookingClasses))],
		})
	}

	return bookings
}
