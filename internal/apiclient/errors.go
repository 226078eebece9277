package apiclient

import (
	"errors"
	"fmt"
)

// Error kinds, one per failure class the UI distinguishes.
const (
	KindValidation = "validation"
	KindAuth       = "auth"
	KindNetwork    = "network"
	KindServer     = "server"
)

// Error is the typed outcome of a failed remote call.
type Error struct {
	Kind    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// AsError unwraps err into an *Error when it is one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuth reports whether err is a remote authorization failure.
func IsAuth(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindAuth
}
