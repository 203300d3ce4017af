package httpx

import (
	"fmt"
	"net/http"
)

// HTTPError is returned by Do when the server answers with a non-2xx status.
// The body is kept verbatim so callers can interpret server-side diagnostics.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("httpx: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("httpx: http status %d: %s", e.StatusCode, truncate(e.Body, 256))
}

// HTTPStatus reports the HTTP status code carried by the error.
func (e *HTTPError) HTTPStatus() int { return e.StatusCode }

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
