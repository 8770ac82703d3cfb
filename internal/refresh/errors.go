package refresh

import (
	"errors"
	"fmt"
)

// ErrInvalidExchangeData means the rate source answered but flagged an error
// or omitted its rate table.
var ErrInvalidExchangeData = errors.New("invalid exchange rate data")

// PersistenceError wraps any failure inside the refresh transaction. The
// transaction has been rolled back when it is returned.
type PersistenceError struct {
	Country string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Country != "" {
		return fmt.Sprintf("persist %q: %v", e.Country, e.Err)
	}
	return fmt.Sprintf("persist refresh: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
