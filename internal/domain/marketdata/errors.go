package marketdata

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrMalformedPayload = crerr.New("malformed payload")
	ErrConfiguration    = crerr.New("configuration error")
	ErrInvalidInput     = crerr.New("invalid input")
)

// TransportError reports a failed HTTP call: either the request never completed
// (StatusCode is zero) or the server answered with a non-2xx status. Method defaults to GET.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	method := e.Method
	if method == "" {
		method = "GET"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status=%d", method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BackendWriteError reports a write rejected by the persistence backend.
type BackendWriteError struct {
	Table      string
	Method     string
	StatusCode int
	Body       string
}

func (e *BackendWriteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend request failed (%d) %s %s: %s", e.StatusCode, e.Method, e.Table, e.Body)
	}
	return fmt.Sprintf("backend request failed %s %s: %s", e.Method, e.Table, e.Body)
}
