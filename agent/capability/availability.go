package capability

import (
	"context"
	"fmt"
	"strings"

	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

type Availability struct {
	Provider         storex.Provider `json:"provider"`
	Date             string          `json:"date"`
	AvailablePeriods []Period        `json:"available_periods"`
	HasSlots         bool            `json:"has_slots"`
	SlotCount        int             `json:"slot_count"`
}

type PeriodSlots struct {
	Provider storex.Provider `json:"provider"`
	Date     string          `json:"date"`
	Period   Period          `json:"period"`
	Slots    []string        `json:"slots"`
}

// ListAvailability answers in two steps. Without a period it reports which
// parts of the day still have room; with one it lists the free slots.
func (h *Handlers) ListAvailability(ctx context.Context, req ListAvailabilityRequest) Result {
	var period Period
	if req.Period != "" {
		p, err := ParsePeriod(req.Period)
		if err != nil {
			return fail(err)
		}
		period = p
	}

	provider, err := h.resolveProvider(ctx, req.Provider)
	if err != nil {
		return fail(err)
	}
	date, err := h.bookableDate(req.Date)
	if err != nil {
		return fail(err)
	}

	all, err := GenerateSlots(provider)
	if err != nil {
		return fail(err)
	}
	booked, err := h.store.ListConfirmedBookings(ctx, provider.ID, date)
	if err != nil {
		return fail(err)
	}
	free := FreeSlots(all, booked)
	if date == h.resolver.Today() {
		free = SlotsAfter(free, sinceMidnight(h.resolver.Now()))
	}
	parts := Partition(free)

	if period != "" {
		slots := parts[period]
		if slots == nil {
			slots = []string{}
		}
		msg := fmt.Sprintf("%s has %d free slots on %s in the %s", provider.Name, len(slots), date, period)
		if len(slots) == 0 {
			msg = fmt.Sprintf("%s has no free slots on %s in the %s", provider.Name, date, period)
		}
		return ok(msg, PeriodSlots{Provider: provider, Date: date, Period: period, Slots: slots})
	}

	available := make([]Period, 0, len(Periods))
	names := make([]string, 0, len(Periods))
	for _, p := range Periods {
		if len(parts[p]) > 0 {
			available = append(available, p)
			names = append(names, string(p))
		}
	}

	out := Availability{
		Provider:         provider,
		Date:             date,
		AvailablePeriods: available,
		HasSlots:         len(free) > 0,
		SlotCount:        len(free),
	}
	if !out.HasSlots {
		return ok(fmt.Sprintf("no slots available for %s on %s", provider.Name, date), out)
	}
	return ok(fmt.Sprintf("%s has openings on %s in the %s", provider.Name, date, strings.Join(names, ", ")), out)
}
