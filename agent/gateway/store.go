package gateway

import (
	"context"

	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

// ResilientStore routes every store call through the gateway.
type ResilientStore struct {
	inner storex.Store
	g     *Gateway
}

var _ storex.Store = (*ResilientStore)(nil)

func NewResilientStore(inner storex.Store, g *Gateway) *ResilientStore {
	if g == nil {
		g = New()
	}
	return &ResilientStore{inner: inner, g: g}
}

func (s *ResilientStore) SearchProviders(ctx context.Context, term string) ([]storex.Provider, error) {
	return Do(ctx, s.g, "store.search_providers", func(ctx context.Context) ([]storex.Provider, error) {
		return s.inner.SearchProviders(ctx, term)
	})
}

func (s *ResilientStore) ListProviders(ctx context.Context) ([]storex.Provider, error) {
	return Do(ctx, s.g, "store.list_providers", s.inner.ListProviders)
}

func (s *ResilientStore) GetProvider(ctx context.Context, id string) (storex.Provider, error) {
	return Do(ctx, s.g, "store.get_provider", func(ctx context.Context) (storex.Provider, error) {
		return s.inner.GetProvider(ctx, id)
	})
}

func (s *ResilientStore) ListConfirmedBookings(ctx context.Context, providerID, date string) ([]storex.Booking, error) {
	return Do(ctx, s.g, "store.list_confirmed_bookings", func(ctx context.Context) ([]storex.Booking, error) {
		return s.inner.ListConfirmedBookings(ctx, providerID, date)
	})
}

func (s *ResilientStore) FindConfirmedBooking(ctx context.Context, providerID, date, clock string) (storex.Booking, error) {
	return Do(ctx, s.g, "store.find_confirmed_booking", func(ctx context.Context) (storex.Booking, error) {
		return s.inner.FindConfirmedBooking(ctx, providerID, date, clock)
	})
}

func (s *ResilientStore) InsertBooking(ctx context.Context, b storex.Booking) (storex.Booking, error) {
	return Do(ctx, s.g, "store.insert_booking", func(ctx context.Context) (storex.Booking, error) {
		return s.inner.InsertBooking(ctx, b)
	})
}

func (s *ResilientStore) RescheduleBooking(ctx context.Context, id, date, clock string) (storex.Booking, error) {
	return Do(ctx, s.g, "store.reschedule_booking", func(ctx context.Context) (storex.Booking, error) {
		return s.inner.RescheduleBooking(ctx, id, date, clock)
	})
}

func (s *ResilientStore) CancelBooking(ctx context.Context, id string) (storex.Booking, error) {
	return Do(ctx, s.g, "store.cancel_booking", func(ctx context.Context) (storex.Booking, error) {
		return s.inner.CancelBooking(ctx, id)
	})
}

func (s *ResilientStore) Ping(ctx context.Context) error {
	_, err := Do(ctx, s.g, "store.ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.Ping(ctx)
	})
	return err
}
