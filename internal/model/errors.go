package model

import (
	"fmt"
	"net/http"
	"time"
)

// HTTPError is a non-2xx answer from the search API for the page at Offset.
// Retry and fallback code inspect it with errors.As.
type HTTPError struct {
	StatusCode int
	Offset     int
	RetryAfter time.Duration // zero when the server sent no Retry-After
	Err        error
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("search page at offset %d: HTTP %d %s", e.Offset, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *HTTPError) Unwrap() error { return e.Err }
