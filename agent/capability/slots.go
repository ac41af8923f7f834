package capability

import (
	"fmt"
	"sort"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

const SlotLength = 30 * time.Minute

type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

var Periods = []Period{PeriodMorning, PeriodAfternoon, PeriodEvening}

const (
	noon       = 12 * time.Hour
	eveningCut = 17 * time.Hour
)

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown period %q, use morning, afternoon or evening", contractx.ErrInvalidInput, s)
}

// PeriodOf buckets an HH:MM slot start.
func PeriodOf(clock string) Period {
	off, err := storex.ClockOffset(clock)
	switch {
	case err != nil, off < noon:
		return PeriodMorning
	case off < eveningCut:
		return PeriodAfternoon
	default:
		return PeriodEvening
	}
}

// GenerateSlots lists every 30 minute start that fits inside the provider's
// working hours, in increasing order.
func GenerateSlots(p storex.Provider) ([]string, error) {
	start, end, err := p.WorkingHours()
	if err != nil {
		return nil, err
	}
	slots := make([]string, 0, int((end-start)/SlotLength))
	for t := start; t+SlotLength <= end; t += SlotLength {
		slots = append(slots, storex.FormatClock(t))
	}
	return slots, nil
}

// IsSlot reports whether clock is a bookable start for p.
func IsSlot(p storex.Provider, clock string) bool {
	slots, err := GenerateSlots(p)
	if err != nil {
		return false
	}
	i := sort.SearchStrings(slots, clock)
	return i < len(slots) && slots[i] == clock
}

// FreeSlots removes booked starts from all, keeping order.
func FreeSlots(all []string, booked []storex.Booking) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		if b.IsConfirmed() {
			taken[b.Time] = struct{}{}
		}
	}
	free := make([]string, 0, len(all))
	for _, s := range all {
		if _, ok := taken[s]; !ok {
			free = append(free, s)
		}
	}
	return free
}

// SlotsAfter drops starts at or before the given clock offset.
func SlotsAfter(slots []string, after time.Duration) []string {
	out := slots[:0:0]
	for _, s := range slots {
		if off, err := storex.ClockOffset(s); err == nil && off > after {
			out = append(out, s)
		}
	}
	return out
}

func Partition(slots []string) map[Period][]string {
	parts := make(map[Period][]string, len(Periods))
	for _, s := range slots {
		p := PeriodOf(s)
		parts[p] = append(parts[p], s)
	}
	return parts
}
