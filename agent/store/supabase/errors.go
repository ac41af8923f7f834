package supabasestore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

// PostgREST failures arrive as "(CODE) message".
var postgrestCode = regexp.MustCompile(`^\(([A-Z0-9]+)\)\s*(.*)$`)

// transientError marks PostgREST failures that are worth retrying.
type transientError struct {
	err error
}

func (e transientError) Error() string   { return e.err.Error() }
func (e transientError) Unwrap() error   { return e.err }
func (e transientError) Temporary() bool { return true }

func mapError(err error, what string) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	// Non-JSON error bodies come from the proxy in front of PostgREST (502/503 pages).
	if strings.HasPrefix(msg, "error parsing error response") {
		return transientError{err: fmt.Errorf("%s: %w", what, err)}
	}

	m := postgrestCode.FindStringSubmatch(msg)
	if m == nil {
		return err
	}

	code, detail := m[1], m[2]
	switch {
	case code == "PGRST116":
		return fmt.Errorf("%w: %s", contractx.ErrNotFound, what)
	case code == "23505":
		return fmt.Errorf("%w: %s: %s", contractx.ErrConflict, what, detail)
	case code == "23503":
		return fmt.Errorf("%w: %s: %s", contractx.ErrNotFound, what, detail)
	case code == "23514", code == "23502", strings.HasPrefix(code, "22"), strings.HasPrefix(code, "PGRST1"):
		return fmt.Errorf("%w: %s: %s", contractx.ErrInvalidInput, what, detail)
	case code == "57014":
		return fmt.Errorf("%w: %s: statement timeout", contractx.ErrTimeout, what)
	case code == "PGRST000", code == "PGRST001", code == "PGRST002", code == "PGRST003":
		return transientError{err: fmt.Errorf("%s: %w", what, err)}
	case strings.HasPrefix(code, "PGRST3"), code == "42501":
		return fmt.Errorf("%s: permission denied: %w", what, errors.New(detail))
	default:
		return err
	}
}
