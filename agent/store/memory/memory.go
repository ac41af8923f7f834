// Package memorystore is an in-process store.Store used by tests and the
// "memory" driver for local runs.
package memorystore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithProviders(providers ...storex.Provider) Option {
	return func(s *Store) {
		for _, p := range providers {
			s.providers[p.ID] = p
			s.order = append(s.order, p.ID)
		}
	}
}

// Store mirrors the uniqueness rule of the SQL schema: one confirmed booking
// per (provider, date, time).
type Store struct {
	mu        sync.RWMutex
	providers map[string]storex.Provider
	order     []string
	bookings  map[string]storex.Booking
	now       func() time.Time
}

var _ storex.Store = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{
		providers: map[string]storex.Provider{},
		bookings:  map[string]storex.Booking{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) SearchProviders(ctx context.Context, term string) ([]storex.Provider, error) {
	needle := strings.ToLower(strings.TrimSpace(term))
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storex.Provider{}
	for _, id := range s.order {
		p := s.providers[id]
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Specialty), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListProviders(ctx context.Context) ([]storex.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storex.Provider, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.providers[id])
	}
	return out, nil
}

func (s *Store) GetProvider(ctx context.Context, id string) (storex.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return storex.Provider{}, fmt.Errorf("%w: provider %s", contractx.ErrNotFound, id)
	}
	return p, nil
}

func (s *Store) ListConfirmedBookings(ctx context.Context, providerID, date string) ([]storex.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storex.Booking{}
	for _, b := range s.bookings {
		if b.ProviderID == providerID && b.Date == date && b.IsConfirmed() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (s *Store) FindConfirmedBooking(ctx context.Context, providerID, date, clock string) (storex.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.confirmedAt(providerID, date, clock, ""); ok {
		return b, nil
	}
	return storex.Booking{}, fmt.Errorf("%w: no confirmed booking for provider=%s at %s %s", contractx.ErrNotFound, providerID, date, clock)
}

func (s *Store) InsertBooking(ctx context.Context, b storex.Booking) (storex.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[b.ProviderID]; !ok {
		return storex.Booking{}, fmt.Errorf("%w: provider %s", contractx.ErrNotFound, b.ProviderID)
	}
	if b.Status == "" {
		b.Status = storex.StatusConfirmed
	}
	if b.IsConfirmed() {
		if _, taken := s.confirmedAt(b.ProviderID, b.Date, b.Time, ""); taken {
			return storex.Booking{}, fmt.Errorf("%w: slot %s %s already booked", contractx.ErrConflict, b.Date, b.Time)
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := s.now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bookings[b.ID] = b
	return b, nil
}

func (s *Store) RescheduleBooking(ctx context.Context, id, date, clock string) (storex.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || !b.IsConfirmed() {
		return storex.Booking{}, fmt.Errorf("%w: confirmed booking %s", contractx.ErrNotFound, id)
	}
	if _, taken := s.confirmedAt(b.ProviderID, date, clock, id); taken {
		return storex.Booking{}, fmt.Errorf("%w: slot %s %s already booked", contractx.ErrConflict, date, clock)
	}
	b.Date = date
	b.Time = clock
	b.UpdatedAt = s.now().UTC()
	s.bookings[id] = b
	return b, nil
}

func (s *Store) CancelBooking(ctx context.Context, id string) (storex.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || !b.IsConfirmed() {
		return storex.Booking{}, fmt.Errorf("%w: confirmed booking %s", contractx.ErrNotFound, id)
	}
	b.Status = storex.StatusCancelled
	b.UpdatedAt = s.now().UTC()
	s.bookings[id] = b
	return b, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// Bookings returns every stored booking regardless of status, sorted by creation.
func (s *Store) Bookings() []storex.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storex.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) confirmedAt(providerID, date, clock, exceptID string) (storex.Booking, bool) {
	for _, b := range s.bookings {
		if b.ID == exceptID {
			continue
		}
		if b.ProviderID == providerID && b.Date == date && b.Time == clock && b.IsConfirmed() {
			return b, true
		}
	}
	return storex.Booking{}, false
}

// DemoProviders seeds the memory driver for local runs.
func DemoProviders() []storex.Provider {
	return []storex.Provider{
		{ID: "prov-aditya", Name: "K. S. S. Aditya", Specialty: "Cardiology", WorkStart: "09:00", WorkEnd: "17:00"},
		{ID: "prov-meera", Name: "Meera Raghavan", Specialty: "Dermatology", WorkStart: "10:00", WorkEnd: "18:30"},
		{ID: "prov-rao", Name: "Srinivas Rao", Specialty: "Orthopedics", WorkStart: "08:00", WorkEnd: "13:00"},
		{ID: "prov-lakshmi", Name: "Lakshmi Narayan", Specialty: "Pediatrics", WorkStart: "12:00", WorkEnd: "20:00"},
	}
}
