package calomeal

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoToken means the subject never completed authorization.
	ErrNoToken = errors.New("calomeal: no token stored for subject")

	// ErrUnauthorized is an authorization failure that survived one refresh.
	ErrUnauthorized = errors.New("calomeal: unauthorized")
)

// StatusError is a non-success HTTP response from the API.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("calomeal %s: status %d: %s", e.Op, e.Code, e.Body)
}

// Unwrap lets callers test errors.Is(err, ErrUnauthorized).
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}
