package orchestrators

import "errors"

// Authorization errors shared by every platform operation.
var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrForbidden       = errors.New("platform admin role required")
)

// ValidationError is a caller mistake; handlers answer 400 with its message.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// ProvisioningError is a downstream failure (identity provider or datastore)
// after validation passed. Stage names the step that failed.
type ProvisioningError struct {
	Stage string
	Err   error
}

func (e *ProvisioningError) Error() string { return e.Err.Error() }
func (e *ProvisioningError) Unwrap() error { return e.Err }
