package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

const (
	NameGetBookingDetails = "get_booking_details"
	NameChangeBooking     = "change_booking"
	NameCancelBooking     = "cancel_booking"
	NameSearchPolicy      = "search_policy"
)

const noPolicyFound = "No relevant policy information found."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Command is one decoded tool invocation
type Command interface {
	Name() string
	run(ctx context.Context, r *Registry) Result
}

// GetBookingDetailsCommand reads one booking
type GetBookingDetailsCommand struct {
	domain.BookingKey
}

func (GetBookingDetailsCommand) Name() string { return NameGetBookingDetails }

func (c GetBookingDetailsCommand) run(ctx context.Context, r *Registry) Result {
	view, err := r.bookings.GetBookingDetails(ctx, c.BookingKey)
	if err != nil {
		return Failure(err)
	}
	return Result{Success: true, Booking: view}
}

// ChangeBookingCommand moves a booking to a new date and route
type ChangeBookingCommand struct {
	domain.ChangeBookingRequest
}

func (ChangeBookingCommand) Name() string { return NameChangeBooking }

func (c ChangeBookingCommand) run(ctx context.Context, r *Registry) Result {
	if _, err := r.bookings.ChangeBooking(ctx, c.ChangeBookingRequest); err != nil {
		return Failure(err)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Booking %s has been changed successfully.", c.BookingNumber),
	}
}

// CancelBookingCommand cancels a booking
type CancelBookingCommand struct {
	domain.BookingKey
}

func (CancelBookingCommand) Name() string { return NameCancelBooking }

func (c CancelBookingCommand) run(ctx context.Context, r *Registry) Result {
	if _, err := r.bookings.CancelBooking(ctx, c.BookingKey); err != nil {
		return Failure(err)
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Booking %s has been cancelled.", c.BookingNumber),
	}
}

// SearchPolicyCommand looks up the terms of service
type SearchPolicyCommand struct {
	Query string `json:"query" validate:"required"`
}

func (SearchPolicyCommand) Name() string { return NameSearchPolicy }

func (c SearchPolicyCommand) run(ctx context.Context, r *Registry) Result {
	passages := r.policies.Search(ctx, c.Query)
	if len(passages) == 0 {
		return Result{Success: true, Text: noPolicyFound}
	}
	return Result{Success: true, Text: strings.Join(passages, "\n\n")}
}

// Decode turns a raw tool call into a validated command
func Decode(call domain.ToolCall) (Command, error) {
	var cmd Command
	switch call.Name {
	case NameGetBookingDetails:
		cmd = &GetBookingDetailsCommand{}
	case NameChangeBooking:
		cmd = &ChangeBookingCommand{}
	case NameCancelBooking:
		cmd = &CancelBookingCommand{}
	case NameSearchPolicy:
		cmd = &SearchPolicyCommand{}
	default:
		return nil, fmt.Errorf("unknown tool: %s", call.Name)
	}

	args := strings.TrimSpace(call.Arguments)
	if args == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), cmd); err != nil {
		return nil, fmt.Errorf("invalid arguments for %s: %w", call.Name, err)
	}

	if err := validate.Struct(cmd); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return nil, fmt.Errorf("missing required arguments for %s: %s", call.Name, strings.Join(missing, ", "))
		}
		return nil, fmt.Errorf("invalid arguments for %s: %w", call.Name, err)
	}

	return cmd, nil
}
