package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/funnair-assistant/internal/domain"
	"github.com/Rrens/funnair-assistant/internal/llm"
)

// BookingOperations is the part of the booking service exposed as tools
type BookingOperations interface {
	GetBookingDetails(ctx context.Context, key domain.BookingKey) (*domain.BookingView, error)
	ChangeBooking(ctx context.Context, req domain.ChangeBookingRequest) (*domain.Booking, error)
	CancelBooking(ctx context.Context, key domain.BookingKey) (*domain.Booking, error)
}

// PolicySearcher finds passages of the terms of service
type PolicySearcher interface {
	Search(ctx context.Context, query string) []string
}

// Result is the envelope every tool invocation returns. Search results are
// carried as plain text instead.
type Result struct {
	Success bool                `json:"success"`
	Booking *domain.BookingView `json:"booking,omitempty"`
	Message string              `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
	Text    string              `json:"-"`
}

// Failure wraps err into an error envelope
func Failure(err error) Result {
	return Result{Success: false, Error: errorMessage(err)}
}

// Content renders the result as the tool message sent back to the model
func (r Result) Content() string {
	if r.Text != "" {
		return r.Text
	}
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"failed to encode tool result"}`
	}
	return string(b)
}

func errorMessage(err error) string {
	var rv *domain.RuleViolation
	switch {
	case errors.As(err, &rv):
		return rv.Reason
	case errors.Is(err, domain.ErrBookingNotFound):
		return "Booking not found"
	default:
		return err.Error()
	}
}

// Registry exposes booking operations and policy search as tools. It holds
// no state of its own.
type Registry struct {
	bookings BookingOperations
	policies PolicySearcher
}

// NewRegistry creates a new tool registry
func NewRegistry(bookings BookingOperations, policies PolicySearcher) *Registry {
	return &Registry{bookings: bookings, policies: policies}
}

var keyParams = []llm.ToolParam{
	{Name: "booking_number", Description: "The booking number, e.g. 101"},
	{Name: "first_name", Description: "First name of the customer on the booking"},
	{Name: "last_name", Description: "Last name of the customer on the booking"},
}

// Specs describes every tool for the completion engine
func (r *Registry) Specs() []llm.ToolSpec {
	changeParams := append(append([]llm.ToolParam{}, keyParams...),
		llm.ToolParam{Name: "new_date", Description: "New flight date in YYYY-MM-DD format"},
		llm.ToolParam{Name: "from_airport", Description: "IATA code of the departure airport"},
		llm.ToolParam{Name: "to_airport", Description: "IATA code of the arrival airport"},
	)

	return []llm.ToolSpec{
		{
			Name:        NameGetBookingDetails,
			Description: "Get booking details (requires booking number, first name, last name)",
			Params:      keyParams,
		},
		{
			Name:        NameChangeBooking,
			Description: "Change booking dates and route (requires booking number, first name, last name, new date, from airport, to airport)",
			Params:      changeParams,
		},
		{
			Name:        NameCancelBooking,
			Description: "Cancel a booking (requires booking number, first name, last name)",
			Params:      keyParams,
		},
		{
			Name:        NameSearchPolicy,
			Description: "Search the airline terms of service for policies, fees, refunds, baggage and similar questions",
			Params:      []llm.ToolParam{{Name: "query", Description: "The customer question to look up"}},
		},
	}
}

// Dispatch runs one tool call. It always returns a result; decoding errors,
// domain errors and panics all come back as error envelopes.
func (r *Registry) Dispatch(ctx context.Context, call domain.ToolCall) (res Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Str("tool", call.Name).
				Interface("panic", p).
				Msg("tool handler panicked")
			res = Failure(fmt.Errorf("tool %s failed unexpectedly", call.Name))
		}
	}()

	cmd, err := Decode(call)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Msg("rejected tool call")
		return Failure(err)
	}

	res = cmd.run(ctx, r)

	log.Info().
		Str("tool", call.Name).
		Str("tool_call_id", call.ID).
		Bool("success", res.Success).
		Str("error", res.Error).
		Dur("duration", time.Since(start)).
		Msg("tool call")
	return res
}
