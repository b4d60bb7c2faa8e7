package httpclient

import (
	"context"
	"fmt"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	// Status is the status line text, e.g. "404 Not Found".
	Status() string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
//
// Get returns a nil Response and an error when no response was received.
// When a response arrived but its body could not be read, it returns the
// response together with a *BodyError. Non-2xx statuses are not errors.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// BodyError reports a response whose body could not be read or decoded.
type BodyError struct {
	StatusCode int
	Err        error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("read response body (status %d): %v", e.StatusCode, e.Err)
}

func (e *BodyError) Unwrap() error { return e.Err }
