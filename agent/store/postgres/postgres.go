// Package postgresstore implements store.Store on Postgres through bun.
package postgresstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

type providerRow struct {
	bun.BaseModel `bun:"table:providers,alias:p"`

	ID        string `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	Specialty string `bun:"specialty,notnull"`
	WorkStart string `bun:"work_start,notnull"`
	WorkEnd   string `bun:"work_end,notnull"`
}

func (r providerRow) toProvider() storex.Provider {
	return storex.Provider{
		ID:        r.ID,
		Name:      r.Name,
		Specialty: r.Specialty,
		WorkStart: r.WorkStart,
		WorkEnd:   r.WorkEnd,
	}
}

type bookingRow struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID          string    `bun:"id,pk"`
	ProviderID  string    `bun:"provider_id,notnull"`
	PatientName string    `bun:"patient_name,notnull"`
	Contact     string    `bun:"contact,notnull"`
	SlotDate    string    `bun:"slot_date,notnull"`
	SlotTime    string    `bun:"slot_time,notnull"`
	Status      string    `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
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

type Store struct {
	db  bun.IDB
	now func() time.Time
}

var _ storex.Store = (*Store)(nil)

func New(db bun.IDB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) SearchProviders(ctx context.Context, term string) ([]storex.Provider, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(term)) + "%"

	var rows []providerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("p.name ILIKE ? OR p.specialty ILIKE ?", pattern, pattern).
		OrderExpr("p.name ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError(err, "search providers")
	}
	return toProviders(rows), nil
}

func (s *Store) ListProviders(ctx context.Context) ([]storex.Provider, error) {
	var rows []providerRow
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("p.name ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError(err, "list providers")
	}
	return toProviders(rows), nil
}

func (s *Store) GetProvider(ctx context.Context, id string) (storex.Provider, error) {
	var row providerRow
	err := s.db.NewSelect().
		Model(&row).
		Where("p.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return storex.Provider{}, mapError(err, "provider "+id)
	}
	return row.toProvider(), nil
}

func (s *Store) ListConfirmedBookings(ctx context.Context, providerID, date string) ([]storex.Booking, error) {
	var rows []bookingRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("b.provider_id = ?", providerID).
		Where("b.slot_date = ?", date).
		Where("b.status = ?", string(storex.StatusConfirmed)).
		OrderExpr("b.slot_time ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError(err, "list bookings")
	}

	out := make([]storex.Booking, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toBooking())
	}
	return out, nil
}

func (s *Store) FindConfirmedBooking(ctx context.Context, providerID, date, clock string) (storex.Booking, error) {
	var row bookingRow
	err := s.db.NewSelect().
		Model(&row).
		Where("b.provider_id = ?", providerID).
		Where("b.slot_date = ?", date).
		Where("b.slot_time = ?", clock).
		Where("b.status = ?", string(storex.StatusConfirmed)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return storex.Booking{}, mapError(err, fmt.Sprintf("booking %s %s %s", providerID, date, clock))
	}
	return row.toBooking(), nil
}

func (s *Store) InsertBooking(ctx context.Context, b storex.Booking) (storex.Booking, error) {
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

	if _, err := s.db.NewInsert().Model(&row).Returning("NULL").Exec(ctx); err != nil {
		return storex.Booking{}, mapError(err, "insert booking")
	}
	return row.toBooking(), nil
}

func (s *Store) RescheduleBooking(ctx context.Context, id, date, clock string) (storex.Booking, error) {
	row := bookingRow{ID: id}
	res, err := s.db.NewUpdate().
		Model(&row).
		Set("slot_date = ?", date).
		Set("slot_time = ?", clock).
		Set("updated_at = ?", s.now().UTC()).
		Where("b.id = ?", id).
		Where("b.status = ?", string(storex.StatusConfirmed)).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return storex.Booking{}, mapError(err, "reschedule booking "+id)
	}
	if err := expectOneRow(res, "confirmed booking "+id); err != nil {
		return storex.Booking{}, err
	}
	return row.toBooking(), nil
}

func (s *Store) CancelBooking(ctx context.Context, id string) (storex.Booking, error) {
	row := bookingRow{ID: id}
	res, err := s.db.NewUpdate().
		Model(&row).
		Set("status = ?", string(storex.StatusCancelled)).
		Set("updated_at = ?", s.now().UTC()).
		Where("b.id = ?", id).
		Where("b.status = ?", string(storex.StatusConfirmed)).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return storex.Booking{}, mapError(err, "cancel booking "+id)
	}
	if err := expectOneRow(res, "confirmed booking "+id); err != nil {
		return storex.Booking{}, err
	}
	return row.toBooking(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.NewSelect().ColumnExpr("1").Scan(ctx, &one); err != nil {
		return mapError(err, "ping")
	}
	return nil
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", contractx.ErrNotFound, what)
	}
	return nil
}

func toProviders(rows []providerRow) []storex.Provider {
	out := make([]storex.Provider, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toProvider())
	}
	return out
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
