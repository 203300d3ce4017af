package jdb

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response carries one decoded jdb reply: the JSON value the server returned
// plus the HTTP status it arrived with. The status stays out-of-band metadata
// and is never folded into the value.
type Response struct {
	// Value is the decoded JSON body: string, float64, bool, nil, []any or
	// map[string]any.
	Value any
	// Status is the HTTP status code of the reply.
	Status int
}

// Decode re-marshals the response value into a typed destination.
func (r *Response) Decode(out any) error {
	if r == nil {
		return fmt.Errorf("jdb: response is nil")
	}
	raw, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Errorf("jdb: encode response value: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("jdb: decode response value: %w", err)
	}
	return nil
}

// decodeResponse parses one raw reply body into a Response. An empty body is
// ErrMissingBody; a body that is not JSON is a DecodeError carrying the raw
// text.
func decodeResponse(body []byte, status int) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrMissingBody
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, &DecodeError{Status: status, Body: string(body), cause: err}
	}
	return &Response{Value: value, Status: status}, nil
}

// extractValue performs the second decode stage of a get reply: the decoded
// value is itself a JSON string holding a {"value": ...} document whose value
// field is the stored string.
func extractValue(resp *Response) (string, error) {
	doc, ok := resp.Value.(string)
	if !ok {
		return "", shapeError(resp, "get reply is not a string document")
	}
	var payload struct {
		Value *string `json:"value"`
	}
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return "", &DecodeError{Status: resp.Status, Body: doc, cause: err}
	}
	if payload.Value == nil {
		return "", &DecodeError{Status: resp.Status, Body: doc, cause: fmt.Errorf("jdb: get document has no string value field")}
	}
	return *payload.Value, nil
}

// extractReplaced pulls the boolean replaced field out of a cas reply.
func extractReplaced(resp *Response) (bool, error) {
	obj, ok := resp.Value.(map[string]any)
	if !ok {
		return false, shapeError(resp, "cas reply is not an object")
	}
	replaced, ok := obj["replaced"].(bool)
	if !ok {
		return false, shapeError(resp, "cas reply has no boolean replaced field")
	}
	return replaced, nil
}

func shapeError(resp *Response, msg string) *DecodeError {
	raw, err := json.Marshal(resp.Value)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", resp.Value))
	}
	return &DecodeError{Status: resp.Status, Body: string(raw), cause: fmt.Errorf("jdb: %s", msg)}
}
