// Package supabasestore implements store.Store over the Supabase PostgREST API.
package supabasestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

const (
	providersTable = "providers"
	bookingsTable  = "bookings"
)

type Config struct {
	URL    string `envconfig:"URL" required:"true"`
	Key    string `envconfig:"KEY" required:"true"`
	Schema string `envconfig:"SCHEMA" default:"public"`
}

type providerRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	WorkStart string `json:"work_start"`
	WorkEnd   string `json:"work_end"`
}

type bookingRow struct {
	ID          string    `json:"id"`
	ProviderID  string    `json:"provider_id"`
	PatientName string    `json:"patient_name"`
	Contact     string    `json:"contact"`
	SlotDate    string    `json:"slot_date"`
	SlotTime    string    `json:"slot_time"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r bookingRow) toBooking() storex.Booking {
	return storex.Booking{
		ID:          r.ID,
		ProviderID:  r.ProviderID,
		PatientName: r.PatientName,
		Contact:     r.Contact,
		Date:        r.SlotDate,
		Time:        r.SlotTime,
		Status:      storex.BookingStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Store talks to PostgREST. The client is not context aware, so cancellation
// and deadlines are enforced by the gateway wrapping this store.
type Store struct {
	client *supabase.Client
	now    func() time.Time
}

var _ storex.Store = (*Store)(nil)

func NewClient(cfg Config) (*supabase.Client, error) {
	url := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	client, err := supabase.NewClient(url, strings.TrimSpace(cfg.Key), &supabase.ClientOptions{
		Schema: strings.TrimSpace(cfg.Schema),
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: create client: %w", err)
	}
	return client, nil
}

func New(client *supabase.Client) *Store {
	return &Store{client: client, now: time.Now}
}

func (s *Store) SearchProviders(_ context.Context, term string) ([]storex.Provider, error) {
	pattern := "*" + sanitizeFilterValue(term) + "*"
	filter := fmt.Sprintf("name.ilike.%s,specialty.ilike.%s", pattern, pattern)

	var rows []providerRow
	_, err := s.client.From(providersTable).
		Select("*", "", false).
		Or(filter, "").
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, mapError(err, "search providers")
	}
	return toProviders(rows), nil
}

func (s *Store) ListProviders(context.Context) ([]storex.Provider, error) {
	var rows []providerRow
	_, err := s.client.From(providersTable).
		Select("*", "", false).
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, mapError(err, "list providers")
	}
	return toProviders(rows), nil
}

func (s *Store) GetProvider(_ context.Context, id string) (storex.Provider, error) {
	var rows []providerRow
	_, err := s.client.From(providersTable).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return storex.Provider{}, mapError(err, "provider "+id)
	}
	if len(rows) == 0 {
		return storex.Provider{}, fmt.Errorf("%w: provider %s", contractx.ErrNotFound, id)
	}
	return toProviders(rows)[0], nil
}

func (s *Store) ListConfirmedBookings(_ context.Context, providerID, date string) ([]storex.Booking, error) {
	var rows []bookingRow
	_, err := s.client.From(bookingsTable).
		Select("*", "", false).
		Match(map[string]string{
			"provider_id": providerID,
			"slot_date":   date,
			"status":      string(storex.StatusConfirmed),
		}).
		Order("slot_time", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, mapError(err, "list bookings")
	}
	return toBookings(rows), nil
}

func (s *Store) FindConfirmedBooking(_ context.Context, providerID, date, clock string) (storex.Booking, error) {
	var rows []bookingRow
	_, err := s.client.From(bookingsTable).
		Select("*", "", false).
		Match(map[string]string{
			"provider_id": providerID,
			"slot_date":   date,
			"slot_time":   clock,
			"status":      string(storex.StatusConfirmed),
		}).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return storex.Booking{}, mapError(err, "find booking")
	}
	if len(rows) == 0 {
		return storex.Booking{}, fmt.Errorf("%w: booking %s %s %s", contractx.ErrNotFound, providerID, date, clock)
	}
	return rows[0].toBooking(), nil
}

func (s *Store) InsertBooking(_ context.Context, b storex.Booking) (storex.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = storex.StatusConfirmed
	}
	now := s.now().UTC()
	row := bookingRow{
		ID:          b.ID,
		ProviderID:  b.ProviderID,
		PatientName: b.PatientName,
		Contact:     b.Contact,
		SlotDate:    b.Date,
		SlotTime:    b.Time,
		Status:      string(b.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var rows []bookingRow
	_, err := s.client.From(bookingsTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return storex.Booking{}, mapError(err, "insert booking")
	}
	if len(rows) == 0 {
		return row.toBooking(), nil
	}
	return rows[0].toBooking(), nil
}

func (s *Store) RescheduleBooking(_ context.Context, id, date, clock string) (storex.Booking, error) {
	return s.updateConfirmed(id, map[string]any{
		"slot_date":  date,
		"slot_time":  clock,
		"updated_at": s.now().UTC(),
	})
}

func (s *Store) CancelBooking(_ context.Context, id string) (storex.Booking, error) {
	return s.updateConfirmed(id, map[string]any{
		"status":     string(storex.StatusCancelled),
		"updated_at": s.now().UTC(),
	})
}

func (s *Store) Ping(context.Context) error {
	_, _, err := s.client.From(providersTable).
		Select("id", "", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return mapError(err, "ping")
	}
	return nil
}

func (s *Store) updateConfirmed(id string, patch map[string]any) (storex.Booking, error) {
	var rows []bookingRow
	_, err := s.client.From(bookingsTable).
		Update(patch, "representation", "").
		Match(map[string]string{
			"id":     id,
			"status": string(storex.StatusConfirmed),
		}).
		ExecuteTo(&rows)
	if err != nil {
		return storex.Booking{}, mapError(err, "update booking "+id)
	}
	if len(rows) == 0 {
		return storex.Booking{}, fmt.Errorf("%w: confirmed booking %s", contractx.ErrNotFound, id)
	}
	return rows[0].toBooking(), nil
}

func toProviders(rows []providerRow) []storex.Provider {
	out := make([]storex.Provider, 0, len(rows))
	for _, r := range rows {
		out = append(out, storex.Provider(r))
	}
	return out
}

func toBookings(rows []bookingRow) []storex.Booking {
	out := make([]storex.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toBooking())
	}
	return out
}

// sanitizeFilterValue drops characters with meaning inside a PostgREST or() filter.
func sanitizeFilterValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '%', '"', '\\':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
