package sage

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the client.
var (
	ErrServerStatus = errors.New("SaGe server returned an error status")
	ErrDecode       = errors.New("decoding SaGe response")
	ErrTooManyPages = errors.New("query exceeded the maximum number of pages")
	ErrEmptyQuery   = errors.New("query is empty")
	ErrNoServer     = errors.New("no server URL")
	ErrNoGraph      = errors.New("no default graph: set default_graph on the server or pick a graph")
)

// maxErrorBody is how much of an error response body is kept.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrServerStatus) true.
func (e *StatusError) Unwrap() error { return ErrServerStatus }
