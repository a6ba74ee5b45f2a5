package gallery

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// ErrEmptyResult means the selected gallery and show mode matched no image.
	// It is an expected condition, not a transport fault.
	ErrEmptyResult = errors.New("selected gallery didn't return any image")

	// ErrConfigurationRequired means the settings lack a gallery or a show mode
	ErrConfigurationRequired = errors.New("pick a gallery and a show mode in the side panel")

	ErrInvalidSettings = errors.New("invalid settings")
	ErrNotSaved        = errors.New("settings were not saved")
	ErrNotDeleted      = errors.New("image was not deleted")
)

// NetworkError reports a request that could not complete
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServiceError reports a non-success status or a malformed payload
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: service error (status %d): %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: service error: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: service returned status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: service returned status %d", e.Op, e.StatusCode)
	}
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsExpected reports whether err is a business condition the viewer shows
// as a notice rather than a failure.
func IsExpected(err error) bool {
	return errors.Is(err, ErrEmptyResult) || errors.Is(err, ErrConfigurationRequired)
}
