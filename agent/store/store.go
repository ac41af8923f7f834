package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Provider is read-only to the scheduler. WorkStart and WorkEnd are "HH:MM".
type Provider struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	WorkStart string `json:"work_start"`
	WorkEnd   string `json:"work_end"`
}

// WorkingHours parses the provider window and enforces start < end.
func (p Provider) WorkingHours() (start, end time.Duration, err error) {
	start, err = ClockOffset(p.WorkStart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: provider %s work_start: %v", contractx.ErrInvalidInput, p.ID, err)
	}
	end, err = ClockOffset(p.WorkEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: provider %s work_end: %v", contractx.ErrInvalidInput, p.ID, err)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: provider %s working hours %s-%s are empty", contractx.ErrInvalidInput, p.ID, p.WorkStart, p.WorkEnd)
	}
	return start, end, nil
}

type Booking struct {
	ID          string        `json:"id"`
	ProviderID  string        `json:"provider_id"`
	PatientName string        `json:"patient_name"`
	Contact     string        `json:"contact"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (b Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// Store is the backing-store contract. Implementations return errors wrapping
// contract.ErrNotFound / ErrConflict for permanent conditions and raw driver
// errors for everything else, so the gateway can classify them.
type Store interface {
	SearchProviders(ctx context.Context, term string) ([]Provider, error)
	ListProviders(ctx context.Context) ([]Provider, error)
	GetProvider(ctx context.Context, id string) (Provider, error)

	ListConfirmedBookings(ctx context.Context, providerID, date string) ([]Booking, error)
	FindConfirmedBooking(ctx context.Context, providerID, date, clock string) (Booking, error)
	InsertBooking(ctx context.Context, b Booking) (Booking, error)
	// RescheduleBooking moves a confirmed booking in place. It never inserts.
	RescheduleBooking(ctx context.Context, id, date, clock string) (Booking, error)
	// CancelBooking is conditional on the booking still being confirmed.
	CancelBooking(ctx context.Context, id string) (Booking, error)

	Ping(ctx context.Context) error
}

// ClockOffset parses "HH:MM" into an offset from midnight.
func ClockOffset(clock string) (time.Duration, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(clock))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock renders an offset from midnight as "HH:MM".
func FormatClock(d time.Duration) string {
	total := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
