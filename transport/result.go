package transport

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorDetail is one entry of an error envelope.
type ErrorDetail struct {
	Description           string `json:"error_description"`
	DescriptionTranslated string `json:"error_description_translated"`
}

// ErrorEnvelope is an application error returned by the remote API with a
// valid signature. It is data, not a transport failure.
type ErrorEnvelope struct {
	StatusCode int
	Errors     []ErrorDetail
}

// Error joins the error descriptions.
func (e *ErrorEnvelope) Error() string {
	descs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		descs = append(descs, d.Description)
	}

	if len(descs) == 0 {
		return fmt.Sprintf("transport: remote error (status %d)", e.StatusCode)
	}

	return fmt.Sprintf("transport: remote error (status %d): %s", e.StatusCode, strings.Join(descs, "; "))
}

// Result is the outcome of a call whose response passed the integrity
// check. Exactly one of Value and Error is meaningful; check IsSuccess first.
type Result[T any] struct {
	Value      T
	Error      *ErrorEnvelope
	StatusCode int
	RequestID  string
}

// IsSuccess reports whether the remote answered with a response body.
func (r Result[T]) IsSuccess() bool {
	return r.Error == nil
}

// Items is the decoded "Response" array. Each element is an object with a
// single key naming its type, for example {"Token": {...}}.
type Items []map[string]json.RawMessage

// Lookup returns the payload of the first item with the given type key.
func (it Items) Lookup(key string) (json.RawMessage, bool) {
	for _, item := range it {
		if raw, ok := item[key]; ok {
			return raw, true
		}
	}

	return nil, false
}

// Find decodes the payload of the first item with the given type key into
// out. It reports false when no such item exists.
func (it Items) Find(key string, out any) (bool, error) {
	raw, ok := it.Lookup(key)
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("transport: decode %s: %w", key, err)
	}

	return true, nil
}

// FindFirst decodes the first item whose type key is one of keys, trying the
// keys in order, and returns the key that matched.
func (it Items) FindFirst(out any, keys ...string) (string, error) {
	for _, key := range keys {
		found, err := it.Find(key, out)
		if err != nil {
			return key, err
		}

		if found {
			return key, nil
		}
	}

	return "", nil
}

type envelope struct {
	Response json.RawMessage `json:"Response"`
	Error    []ErrorDetail   `json:"Error"`
}

// Decode turns a response into a Result. The "Response" array is unmarshaled
// into T; an "Error" array becomes Result.Error.
func Decode[T any](resp *Response) (Result[T], error) {
	res := Result[T]{StatusCode: resp.StatusCode, RequestID: resp.RequestID}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		if resp.StatusCode >= 400 {
			res.Error = &ErrorEnvelope{StatusCode: resp.StatusCode}
			return res, nil
		}

		return res, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	if env.Error != nil || resp.StatusCode >= 400 {
		res.Error = &ErrorEnvelope{StatusCode: resp.StatusCode, Errors: env.Error}
		return res, nil
	}

	if env.Response == nil {
		return res, fmt.Errorf("%w: missing Response", ErrUnexpectedResponse)
	}

	if err := json.Unmarshal(env.Response, &res.Value); err != nil {
		return res, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	return res, nil
}
