package ebay

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUpstream wraps every failure talking to eBay: transport errors and
	// non-2xx replies alike.
	ErrUpstream = errors.New("ebay: upstream error")
	// ErrNotConfigured means client credentials are missing.
	ErrNotConfigured = errors.New("ebay: client credentials not configured")
)

// APIError is a non-2xx reply from eBay.
type APIError struct {
	Op     string
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ebay: %s: status %d: %s", e.Op, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return ErrUpstream }

// Details is the reply body as JSON when it parses, else as text.
func (e *APIError) Details() interface{} {
	var v interface{}
	if err := json.Unmarshal(e.Body, &v); err == nil {
		return v
	}
	return string(e.Body)
}

func transportErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

// Details extracts what eBay said about a failure, for error responses.
func Details(err error) interface{} {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Details()
	}
	if err != nil {
		return err.Error()
	}
	return nil
}
