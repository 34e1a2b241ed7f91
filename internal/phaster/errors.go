package phaster

import (
	"errors"
	"fmt"
)

// ErrAlreadyDownloaded is returned when the output directory for a finished
// job already exists. The download is skipped, not retried.
var ErrAlreadyDownloaded = errors.New("results already downloaded")

// APIError represents a non-success HTTP response from the PHASTER API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("phaster api error: %s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// MissingFieldError reports a JSON response without an expected field. The
// response contract is owned by the remote service, so this terminates the
// run rather than being recorded in the ledger.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("phaster api response missing field %q", e.Field)
}
