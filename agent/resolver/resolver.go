package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

const (
	narrowStemLen = 5
	broadStemLen  = 3
	minStemLen    = 2
)

var honorifics = map[string]struct{}{
	"dr":        {},
	"doctor":    {},
	"prof":      {},
	"professor": {},
	"mr":        {},
	"mrs":       {},
	"ms":        {},
}

// ProviderLookup is the read side of the store the resolver needs.
type ProviderLookup interface {
	SearchProviders(ctx context.Context, term string) ([]storex.Provider, error)
	GetProvider(ctx context.Context, id string) (storex.Provider, error)
}

// AmbiguousError lists the candidates when a query matched several records
// and none of them was an exact match.
type AmbiguousError struct {
	Query      string
	Candidates []storex.Provider
}

func (e *AmbiguousError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("%v: %q matches %s", contractx.ErrAmbiguous, e.Query, strings.Join(names, ", "))
}

func (e *AmbiguousError) Unwrap() error {
	return contractx.ErrAmbiguous
}

type Option func(*Resolver)

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// Resolver maps free-form text onto canonical records. It never writes.
type Resolver struct {
	providers ProviderLookup
	now       func() time.Time
	loc       *time.Location
}

func New(providers ProviderLookup, opts ...Option) *Resolver {
	r := &Resolver{
		providers: providers,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Today is the current calendar date in the resolver's location.
func (r *Resolver) Today() string {
	return r.Now().Format(storex.DateLayout)
}

func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

func (r *Resolver) Date(input string) (string, error) {
	return NormalizeDate(input, r.Now())
}

func (r *Resolver) Time(input string) (string, error) {
	return NormalizeTime(input)
}

// ResolveProvider finds the single provider a free-form reference points at.
// An exact provider id wins; otherwise a narrow stem search runs first and a
// broad stem search is the fallback when it finds nothing.
func (r *Resolver) ResolveProvider(ctx context.Context, query string) (storex.Provider, error) {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return storex.Provider{}, fmt.Errorf("%w: provider is required", contractx.ErrInvalidInput)
	}

	if !strings.ContainsAny(raw, " \t") {
		p, err := r.providers.GetProvider(ctx, raw)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, contractx.ErrNotFound) && !errors.Is(err, contractx.ErrInvalidInput) {
			return storex.Provider{}, err
		}
	}

	candidates, err := r.SearchProviders(ctx, raw)
	if err != nil {
		return storex.Provider{}, err
	}

	switch len(candidates) {
	case 0:
		return storex.Provider{}, fmt.Errorf("%w: no provider matches %q", contractx.ErrNotFound, raw)
	case 1:
		return candidates[0], nil
	}

	if best, ok := pickExact(candidates, CleanTerm(raw)); ok {
		return best, nil
	}

	log.Debug().Str("query", raw).Int("candidates", len(candidates)).Msg("resolver: ambiguous provider")
	return storex.Provider{}, &AmbiguousError{Query: raw, Candidates: candidates}
}

// SearchProviders runs the stem search without collapsing the result.
func (r *Resolver) SearchProviders(ctx context.Context, query string) ([]storex.Provider, error) {
	cleaned := CleanTerm(query)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: %q has no searchable text", contractx.ErrInvalidInput, query)
	}

	narrow := Stem(cleaned, narrowStemLen)
	candidates, err := r.providers.SearchProviders(ctx, narrow)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	broad := Stem(cleaned, broadStemLen)
	if len([]rune(broad)) < broadStemLen {
		broad = Stem(cleaned, minStemLen)
	}
	if broad == narrow {
		return candidates, nil
	}

	log.Debug().Str("narrow", narrow).Str("broad", broad).Msg("resolver: retrying with broad stem")
	return r.providers.SearchProviders(ctx, broad)
}

// pickExact chooses the only candidate whose name or specialty contains the
// whole cleaned query, falling back to whole-word matches to break ties.
func pickExact(candidates []storex.Provider, cleaned string) (storex.Provider, bool) {
	var contains []storex.Provider
	for _, c := range candidates {
		if strings.Contains(CleanTerm(c.Name), cleaned) || strings.Contains(CleanTerm(c.Specialty), cleaned) {
			contains = append(contains, c)
		}
	}
	if len(contains) == 1 {
		return contains[0], true
	}

	var words []storex.Provider
	for _, c := range contains {
		if hasAllWords(CleanTerm(c.Name), cleaned) {
			words = append(words, c)
		}
	}
	if len(words) == 1 {
		return words[0], true
	}
	return storex.Provider{}, false
}

// CleanTerm lowercases s, strips punctuation and honorifics and collapses spaces.
func CleanTerm(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)

	fields := strings.Fields(mapped)
	out := fields[:0]
	for _, f := range fields {
		if _, ok := honorifics[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// Stem is the first n runes of the longest word in a cleaned term.
func Stem(cleaned string, n int) string {
	longest := ""
	for _, f := range strings.Fields(cleaned) {
		if len([]rune(f)) > len([]rune(longest)) {
			longest = f
		}
	}
	runes := []rune(longest)
	if len(runes) <= n {
		return longest
	}
	return string(runes[:n])
}

func hasAllWords(haystack, needle string) bool {
	words := map[string]struct{}{}
	for _, w := range strings.Fields(haystack) {
		words[w] = struct{}{}
	}
	for _, w := range strings.Fields(needle) {
		if _, ok := words[w]; !ok {
			return false
		}
	}
	return true
}
