package postgresstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

// sqlStateError is satisfied by pgdriver.Error.
type sqlStateError interface {
	error
	Field(k byte) string
}

// mapError turns driver errors into taxonomy sentinels where the outcome is
// permanent. Everything else is returned untouched for the gateway to classify.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", contractx.ErrNotFound, what)
	}

	var pgErr sqlStateError
	if !errors.As(err, &pgErr) {
		return err
	}

	code := pgErr.Field('C')
	switch {
	case code == "23505":
		return fmt.Errorf("%w: %s: %s", contractx.ErrConflict, what, pgErr.Field('M'))
	case code == "23503":
		return fmt.Errorf("%w: %s: %s", contractx.ErrNotFound, what, pgErr.Field('M'))
	case code == "23514", code == "23502", strings.HasPrefix(code, "22"):
		return fmt.Errorf("%w: %s: %s", contractx.ErrInvalidInput, what, pgErr.Field('M'))
	case code == "57014":
		return fmt.Errorf("%w: %s: statement timeout", contractx.ErrTimeout, what)
	default:
		return err
	}
}
