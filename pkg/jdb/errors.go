package jdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JDrit/jdb-jepsen/internal/httpx"
)

// ErrMissingBody reports a reply that arrived without a body. Every jdb
// operation answers with a JSON document, so an empty body means the exchange
// cannot be interpreted.
var ErrMissingBody = errors.New("jdb: response body is missing")

// DecodeError reports a reply whose body could not be interpreted as the
// shape the operation expects. The raw body is preserved for diagnostics.
type DecodeError struct {
	Status int
	Body   string
	cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jdb: undecodable response (status %d): %v", e.Status, e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// HTTPStatus reports the HTTP status the undecodable reply arrived with.
func (e *DecodeError) HTTPStatus() int { return e.Status }

// RemoteError reports a non-2xx reply whose body decoded as JSON. At most one
// of Message, Fields and Body is populated, mirroring the shape the server
// chose for its diagnostic: a bare string, an object, or some other document.
type RemoteError struct {
	Status  int
	Message string
	Fields  map[string]any
	Body    any
}

func (e *RemoteError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("jdb: remote error (status %d): %s", e.Status, e.Message)
	case e.Fields != nil:
		return fmt.Sprintf("jdb: remote error (status %d): %v", e.Status, e.Fields)
	default:
		return fmt.Sprintf("jdb: remote error (status %d): %v", e.Status, e.Body)
	}
}

// HTTPStatus reports the HTTP status code of the failed exchange.
func (e *RemoteError) HTTPStatus() int { return e.Status }

// normalizeRemote rewrites non-2xx transport results into RemoteErrors when
// the server supplied a JSON diagnostic. Anything that is not an
// httpx.HTTPError (timeouts, canceled contexts, connection failures) passes
// through untouched, as does an HTTPError whose body is not valid JSON.
// An object body is carried in Fields minus any server-sent "status" entry;
// the Status field always holds the HTTP status of the exchange.
func normalizeRemote(err error) error {
	if err == nil {
		return nil
	}
	var httpErr *httpx.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}
	var parsed any
	if jsonErr := json.Unmarshal(httpErr.Body, &parsed); jsonErr != nil {
		return err
	}
	switch v := parsed.(type) {
	case string:
		return &RemoteError{Status: httpErr.StatusCode, Message: v}
	case map[string]any:
		fields := make(map[string]any, len(v))
		for k, val := range v {
			if k == "status" {
				continue
			}
			fields[k] = val
		}
		return &RemoteError{Status: httpErr.StatusCode, Fields: fields}
	default:
		return &RemoteError{Status: httpErr.StatusCode, Body: v}
	}
}

// Status extracts the HTTP status carried anywhere in an error chain.
func Status(err error) (int, bool) {
	var coded interface{ HTTPStatus() int }
	if errors.As(err, &coded) {
		return coded.HTTPStatus(), true
	}
	return 0, false
}

// IsNotFound reports whether err is a remote reply with HTTP status 404.
func IsNotFound(err error) bool {
	status, ok := Status(err)
	return ok && status == http.StatusNotFound
}

// errorKind buckets an operation failure for metrics labels.
func errorKind(err error) string {
	var decodeErr *DecodeError
	var remoteErr *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingBody):
		return "missing_body"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &remoteErr):
		return "remote"
	default:
		return "transport"
	}
}
