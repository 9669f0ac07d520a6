package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPermanent matches responses whose status says the resource will not
	// become available by asking again.
	ErrPermanent = errors.New("permanent http failure")

	// ErrRetriesExhausted wraps the last transient failure once every retry
	// has been spent.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// permanentStatus is never retried.
var permanentStatus = map[int]bool{
	http.StatusNotFound:           true,
	http.StatusForbidden:          true,
	http.StatusServiceUnavailable: true,
}

// StatusError reports an HTTP response with a status of 400 or above.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Permanent reports whether retrying this request is pointless.
func (e *StatusError) Permanent() bool {
	return permanentStatus[e.StatusCode]
}

func (e *StatusError) Is(target error) bool {
	return target == ErrPermanent && e.Permanent()
}

// IsPermanent reports whether err carries a permanent HTTP status.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}
