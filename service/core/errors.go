package core

import "errors"

// Table stage failures abort a run, ErrDegenerateRegression and ErrMissingInput are reported per instrument.
var (
	ErrInsufficientData     = errors.New("insufficient data")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrDegenerateRegression = errors.New("degenerate regression")
	ErrMissingInput         = errors.New("missing input")
	ErrInvalidInput         = errors.New("invalid input")
)

// InvalidInputMessage is the single notice shown when a run is aborted
const InvalidInputMessage = "Please select valid input..."

// IsAbort reports whether err means the whole run produced nothing usable
func IsAbort(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMissingInput)
}

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNoRunHistory = errors.New("run history is not configured")
)
