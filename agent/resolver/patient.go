package resolver

import (
	"fmt"
	"strings"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	storex "github.com/Sampath-yadav/Sahay-Project/agent/store"
)

// MatchPatient picks the booking whose patient name fuzzily matches name.
// Matching is case and punctuation insensitive and works on whole words:
// either name may contain the other's words, or every query word may prefix a
// word of the stored name. "Manu" never matches a stored "Anu".
func MatchPatient(bookings []storex.Booking, name string) (storex.Booking, error) {
	query := CleanTerm(name)
	if query == "" {
		return storex.Booking{}, fmt.Errorf("%w: patient name is required", contractx.ErrInvalidInput)
	}

	var matches []storex.Booking
	for _, b := range bookings {
		if patientMatches(CleanTerm(b.PatientName), query) {
			matches = append(matches, b)
		}
	}

	switch len(matches) {
	case 0:
		return storex.Booking{}, fmt.Errorf("%w: no appointment for %q", contractx.ErrNotFound, name)
	case 1:
		return matches[0], nil
	}

	var exact, prefixed []storex.Booking
	for _, b := range matches {
		stored := CleanTerm(b.PatientName)
		if stored == query {
			exact = append(exact, b)
		}
		if wordsPrefix(stored, query) {
			prefixed = append(prefixed, b)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	if len(exact) == 0 && len(prefixed) == 1 {
		return prefixed[0], nil
	}
	return storex.Booking{}, fmt.Errorf("%w: %d appointments match %q", contractx.ErrAmbiguous, len(matches), name)
}

func patientMatches(stored, query string) bool {
	if stored == "" {
		return false
	}
	if containsWords(stored, query) || containsWords(query, stored) {
		return true
	}
	return wordsPrefix(stored, query)
}

// containsWords reports whether needle appears in haystack as a run of whole words.
func containsWords(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// wordsPrefix reports whether every query word prefixes some stored word.
func wordsPrefix(stored, query string) bool {
	storedWords := strings.Fields(stored)
	for _, q := range strings.Fields(query) {
		found := false
		for _, s := range storedWords {
			if strings.HasPrefix(s, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
