package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	"github.com/Sampath-yadav/Sahay-Project/agent/resolver"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

type ProviderList struct {
	Providers []storex.Provider `json:"providers"`
	Count     int               `json:"count"`
	Ambiguous bool              `json:"ambiguous,omitempty"`
}

// FindProvider looks providers up by name, by specialty, or lists them all.
// An empty match is a successful answer with count 0.
func (h *Handlers) FindProvider(ctx context.Context, req FindProviderRequest) Result {
	switch {
	case resolver.CleanTerm(req.Name) != "":
		return h.findByName(ctx, req)
	case resolver.CleanTerm(req.Specialty) != "":
		return h.findBySpecialty(ctx, req.Specialty)
	case strings.TrimSpace(req.Name+req.Specialty) != "":
		// Only honorifics or punctuation, e.g. "Dr.".
		return ok(fmt.Sprintf("no provider matches %q", strings.TrimSpace(req.Name+" "+req.Specialty)),
			ProviderList{Providers: []storex.Provider{}})
	}

	all, err := h.store.ListProviders(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("%d providers are available", len(all)), ProviderList{Providers: all, Count: len(all)})
}

func (h *Handlers) findByName(ctx context.Context, req FindProviderRequest) Result {
	p, err := h.resolver.ResolveProvider(ctx, req.Name)
	if err == nil {
		return ok("found "+p.Name, ProviderList{Providers: []storex.Provider{p}, Count: 1})
	}

	var amb *resolver.AmbiguousError
	switch {
	case errors.As(err, &amb):
		candidates := amb.Candidates
		if req.Specialty != "" {
			if narrowed := filterSpecialty(candidates, req.Specialty); len(narrowed) > 0 {
				candidates = narrowed
			}
		}
		if len(candidates) == 1 {
			return ok("found "+candidates[0].Name, ProviderList{Providers: candidates, Count: 1})
		}
		return ok(fmt.Sprintf("%d providers match %q; ask the user which one", len(candidates), req.Name),
			ProviderList{Providers: candidates, Count: len(candidates), Ambiguous: true})
	case errors.Is(err, contractx.ErrNotFound):
		return ok(fmt.Sprintf("no provider matches %q", req.Name), ProviderList{Providers: []storex.Provider{}})
	default:
		return fail(err)
	}
}

func (h *Handlers) findBySpecialty(ctx context.Context, specialty string) Result {
	found, err := h.resolver.SearchProviders(ctx, specialty)
	if err != nil {
		return fail(err)
	}
	matches := filterSpecialty(found, specialty)
	if matches == nil {
		matches = []storex.Provider{}
	}
	msg := fmt.Sprintf("%d providers practise %s", len(matches), specialty)
	if len(matches) == 0 {
		msg = fmt.Sprintf("no provider practises %s", specialty)
	}
	return ok(msg, ProviderList{Providers: matches, Count: len(matches)})
}

// filterSpecialty keeps candidates whose specialty shares the query's broad stem.
func filterSpecialty(candidates []storex.Provider, specialty string) []storex.Provider {
	stem := resolver.Stem(resolver.CleanTerm(specialty), 3)
	if stem == "" {
		return nil
	}
	var out []storex.Provider
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Specialty), stem) {
			out = append(out, c)
		}
	}
	return out
}
