package capability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	"github.com/Sampath-yadav/Sahay-Project/agent/resolver"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

type RescheduleNeeded struct {
	NeedNewDatetime bool           `json:"need_new_datetime"`
	Booking         storex.Booking `json:"booking"`
}

func (h *Handlers) CreateBooking(ctx context.Context, req CreateBookingRequest) Result {
	date, err := h.bookableDate(req.Date)
	if err != nil {
		return fail(err)
	}
	clock, err := h.resolver.Time(req.Time)
	if err != nil {
		return fail(err)
	}
	provider, err := h.resolveProvider(ctx, req.Provider)
	if err != nil {
		return fail(err)
	}
	if err := h.checkSlot(provider, date, clock); err != nil {
		return fail(err)
	}

	if err := h.ensureFree(ctx, provider, date, clock, ""); err != nil {
		return fail(err)
	}

	contact, err := NormalizeE164(req.Contact, h.defaultCC)
	if err != nil {
		return fail(err)
	}

	// The id is fixed before the insert so a retried attempt that already
	// committed can be recognised as this booking.
	id := uuid.NewString()
	created, err := h.store.InsertBooking(ctx, storex.Booking{
		ID:          id,
		ProviderID:  provider.ID,
		PatientName: req.PatientName,
		Contact:     contact,
		Date:        date,
		Time:        clock,
		Status:      storex.StatusConfirmed,
	})
	if errors.Is(err, contractx.ErrConflict) {
		created, err = h.ownBooking(ctx, provider, date, clock, id, err)
	}
	if err != nil {
		if errors.Is(err, contractx.ErrConflict) {
			return failWith(err, fmt.Sprintf("%s is already booked on %s at %s", provider.Name, date, clock))
		}
		return fail(err)
	}

	h.logger.Info().Str("booking_id", created.ID).Str("provider_id", provider.ID).Str("date", date).Str("time", clock).Msg("booking created")
	h.notify(ctx, contact, fmt.Sprintf("Hi %s, your appointment with %s is confirmed for %s at %s. Ref: %s",
		req.PatientName, provider.Name, date, clock, created.ID))

	return ok(fmt.Sprintf("booked %s with %s on %s at %s", req.PatientName, provider.Name, date, clock), created)
}

func (h *Handlers) RescheduleBooking(ctx context.Context, req RescheduleBookingRequest) Result {
	provider, err := h.resolveProvider(ctx, req.Provider)
	if err != nil {
		return fail(err)
	}
	oldDate, err := h.resolver.Date(req.OldDate)
	if err != nil {
		return fail(err)
	}
	current, err := h.findAppointment(ctx, provider, oldDate, req.PatientName)
	if err != nil {
		return fail(err)
	}

	if req.NewDate == "" || req.NewTime == "" {
		return ok(fmt.Sprintf("found %s's appointment with %s on %s at %s; ask for the new date and time",
			current.PatientName, provider.Name, current.Date, current.Time),
			RescheduleNeeded{NeedNewDatetime: true, Booking: current})
	}

	newDate, err := h.bookableDate(req.NewDate)
	if err != nil {
		return fail(err)
	}
	newClock, err := h.resolver.Time(req.NewTime)
	if err != nil {
		return fail(err)
	}
	if newDate == current.Date && newClock == current.Time {
		return ok(fmt.Sprintf("the appointment is already on %s at %s", newDate, newClock), current)
	}
	if err := h.checkSlot(provider, newDate, newClock); err != nil {
		return fail(err)
	}
	if err := h.ensureFree(ctx, provider, newDate, newClock, current.ID); err != nil {
		return fail(err)
	}

	moved, err := h.store.RescheduleBooking(ctx, current.ID, newDate, newClock)
	if err != nil {
		if errors.Is(err, contractx.ErrConflict) {
			return failWith(err, fmt.Sprintf("%s is already booked on %s at %s", provider.Name, newDate, newClock))
		}
		return fail(err)
	}

	h.logger.Info().Str("booking_id", moved.ID).Str("from", current.Date+" "+current.Time).Str("to", newDate+" "+newClock).Msg("booking rescheduled")
	h.notify(ctx, moved.Contact, fmt.Sprintf("Hi %s, your appointment with %s has moved to %s at %s.",
		moved.PatientName, provider.Name, newDate, newClock))

	return ok(fmt.Sprintf("moved %s's appointment with %s to %s at %s", moved.PatientName, provider.Name, newDate, newClock), moved)
}

func (h *Handlers) CancelBooking(ctx context.Context, req CancelBookingRequest) Result {
	provider, err := h.resolveProvider(ctx, req.Provider)
	if err != nil {
		return fail(err)
	}
	date, err := h.resolver.Date(req.Date)
	if err != nil {
		return fail(err)
	}
	current, err := h.findAppointment(ctx, provider, date, req.PatientName)
	if err != nil {
		return fail(err)
	}

	cancelled, err := h.store.CancelBooking(ctx, current.ID)
	if err != nil {
		return fail(err)
	}

	h.logger.Info().Str("booking_id", cancelled.ID).Msg("booking cancelled")
	h.notify(ctx, cancelled.Contact, fmt.Sprintf("Hi %s, your appointment with %s on %s at %s has been cancelled.",
		cancelled.PatientName, provider.Name, cancelled.Date, cancelled.Time))

	return ok(fmt.Sprintf("cancelled %s's appointment with %s on %s at %s", cancelled.PatientName, provider.Name, cancelled.Date, cancelled.Time), cancelled)
}

// findAppointment locates the patient's confirmed booking. A miss is NotFound,
// which callers must keep distinct from an unavailable store.
func (h *Handlers) findAppointment(ctx context.Context, provider storex.Provider, date, patient string) (storex.Booking, error) {
	bookings, err := h.store.ListConfirmedBookings(ctx, provider.ID, date)
	if err != nil {
		return storex.Booking{}, err
	}
	b, err := resolver.MatchPatient(bookings, patient)
	if errors.Is(err, contractx.ErrNotFound) {
		return storex.Booking{}, fmt.Errorf("%w: no such appointment for %s with %s on %s", contractx.ErrNotFound, patient, provider.Name, date)
	}
	return b, err
}

// ownBooking resolves an insert conflict. When the slot is held by the booking
// we just tried to write, an earlier attempt committed and the insert succeeded.
func (h *Handlers) ownBooking(ctx context.Context, provider storex.Provider, date, clock, id string, conflict error) (storex.Booking, error) {
	existing, err := h.store.FindConfirmedBooking(ctx, provider.ID, date, clock)
	if err != nil || existing.ID != id {
		return storex.Booking{}, conflict
	}
	h.logger.Debug().Str("booking_id", id).Msg("insert conflict is our own committed booking")
	return existing, nil
}

// ensureFree fails with Conflict when another confirmed booking holds the slot.
func (h *Handlers) ensureFree(ctx context.Context, provider storex.Provider, date, clock, self string) error {
	existing, err := h.store.FindConfirmedBooking(ctx, provider.ID, date, clock)
	switch {
	case errors.Is(err, contractx.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == self:
		return nil
	default:
		return fmt.Errorf("%w: %s is already booked on %s at %s", contractx.ErrConflict, provider.Name, date, clock)
	}
}
