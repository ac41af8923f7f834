package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	"github.com/Sampath-yadav/Sahay-Project/agent/notify"
	"github.com/Sampath-yadav/Sahay-Project/agent/resolver"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
	logx "github.com/Sampath-yadav/Sahay-Project/pkg/logger"
)

// Resolver is the entity-resolution surface the handlers depend on.
type Resolver interface {
	ResolveProvider(ctx context.Context, query string) (storex.Provider, error)
	SearchProviders(ctx context.Context, query string) ([]storex.Provider, error)
	Date(input string) (string, error)
	Time(input string) (string, error)
	Today() string
	Now() time.Time
}

type Notifier interface {
	Notify(ctx context.Context, to, text string) error
}

type Option func(*Handlers)

func WithDefaultCountryCode(cc string) Option {
	return func(h *Handlers) {
		h.defaultCC = cc
	}
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(h *Handlers) {
		if d > 0 {
			h.notifyTimeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(h *Handlers) {
		h.logger = l
	}
}

// WithSyncNotify makes notifications block the handler. Tests use it.
func WithSyncNotify() Option {
	return func(h *Handlers) {
		h.syncNotify = true
	}
}

// Handlers implements the scheduling capabilities on top of a gateway-wrapped store.
type Handlers struct {
	store    storex.Store
	resolver Resolver
	notifier Notifier

	defaultCC     string
	notifyTimeout time.Duration
	syncNotify    bool
	logger        zerolog.Logger
}

func New(store storex.Store, res Resolver, notifier Notifier, opts ...Option) *Handlers {
	h := &Handlers{
		store:         store,
		resolver:      res,
		notifier:      notifier,
		defaultCC:     "91",
		notifyTimeout: 10 * time.Second,
		logger:        logx.Component("capability"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Invoke decodes raw tool arguments and runs the capability.
func (h *Handlers) Invoke(ctx context.Context, tool string, args map[string]any) Result {
	req, err := Decode(tool, args)
	if err != nil {
		return fail(err)
	}
	return h.Handle(ctx, req)
}

func (h *Handlers) Handle(ctx context.Context, req Request) Result {
	switch r := req.(type) {
	case FindProviderRequest:
		return h.FindProvider(ctx, r)
	case ListAvailabilityRequest:
		return h.ListAvailability(ctx, r)
	case CreateBookingRequest:
		return h.CreateBooking(ctx, r)
	case RescheduleBookingRequest:
		return h.RescheduleBooking(ctx, r)
	case CancelBookingRequest:
		return h.CancelBooking(ctx, r)
	default:
		return fail(fmt.Errorf("%w: unsupported request %T", contractx.ErrInvalidInput, req))
	}
}

// resolveProvider collapses ambiguity into a Conflict listing the candidates.
func (h *Handlers) resolveProvider(ctx context.Context, query string) (storex.Provider, error) {
	p, err := h.resolver.ResolveProvider(ctx, query)
	if err == nil {
		return p, nil
	}
	var amb *resolver.AmbiguousError
	if errors.As(err, &amb) {
		names := make([]string, 0, len(amb.Candidates))
		for _, c := range amb.Candidates {
			names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Specialty))
		}
		return storex.Provider{}, fmt.Errorf("%w: %q could mean %s; ask which one", contractx.ErrAmbiguous, query, strings.Join(names, ", "))
	}
	return storex.Provider{}, err
}

// bookableDate normalises input and rejects dates before today.
func (h *Handlers) bookableDate(input string) (string, error) {
	date, err := h.resolver.Date(input)
	if err != nil {
		return "", err
	}
	if date < h.resolver.Today() {
		return "", fmt.Errorf("%w: %s is in the past", contractx.ErrInvalidInput, date)
	}
	return date, nil
}

// checkSlot verifies clock is a free-standing slot start for p on date.
func (h *Handlers) checkSlot(p storex.Provider, date, clock string) error {
	if !IsSlot(p, clock) {
		return fmt.Errorf("%w: %s is not a bookable slot; %s works %s-%s in 30 minute slots",
			contractx.ErrInvalidInput, clock, p.Name, p.WorkStart, p.WorkEnd)
	}
	if date == h.resolver.Today() {
		off, _ := storex.ClockOffset(clock)
		if off <= sinceMidnight(h.resolver.Now()) {
			return fmt.Errorf("%w: %s today has already passed", contractx.ErrInvalidInput, clock)
		}
	}
	return nil
}

// notify sends text to the patient without ever failing the caller.
func (h *Handlers) notify(ctx context.Context, to, text string) {
	if h.notifier == nil || strings.TrimSpace(to) == "" {
		return
	}

	send := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, h.notifyTimeout)
		defer cancel()
		if err := h.notifier.Notify(ctx, to, text); err != nil {
			h.logger.Warn().Err(err).Str("to", notify.MaskContact(to)).Msg("notify failed")
		}
	}

	if h.syncNotify {
		send(ctx)
		return
	}
	go send(context.WithoutCancel(ctx))
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}
