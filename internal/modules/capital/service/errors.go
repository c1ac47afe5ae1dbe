package service

import (
	"errors"
	"fmt"
)

// ErrAuthExpired marks a 401 that survived the single re-auth replay.
var ErrAuthExpired = errors.New("session expired and replay failed")

// BrokerRejected is a non-401 4xx from the broker. Never retried.
type BrokerRejected struct {
	StatusCode int
	Body       string
}

func (e *BrokerRejected) Error() string {
	return fmt.Sprintf("broker rejected request: http %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps a network failure or a 5xx/429 that exhausted the
// retry budget.
type TransportError struct {
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error: http %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRejected reports whether err is a broker-side rejection rather than a
// transport or auth failure.
func IsRejected(err error) bool {
	var rej *BrokerRejected
	return errors.As(err, &rej)
}
