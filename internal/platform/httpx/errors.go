package httpx

import (
	"errors"
	"net/http"
)

// Error kinds for the ledger domain. Domain packages wrap these with
// fmt.Errorf("%w: ...") so handlers can map any error to a status code.
var (
	// ErrValidation covers missing fields, malformed lines, unbalanced entries.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers missing or soft-deleted accounts, entries, periods.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict covers state-machine violations and duplicates.
	ErrConflict = errors.New("conflict")
	// ErrForbidden covers mutations of system-protected records.
	ErrForbidden = errors.New("forbidden")
)

// StatusFor maps an error to the HTTP status the API contract prescribes.
// Validation failures and state conflicts both map to 400.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes an error envelope. Unexpected errors are reported
// generically so internals never leak to callers.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		Fail(w, status, "internal error")
		return
	}
	Fail(w, status, err.Error())
}
