package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is returned by the provider clients for any non-2xx response
// or transport failure. StatusCode is 0 for transport failures.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 && e.Err != nil {
		return fmt.Sprintf("%s: upstream returned status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream request failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NotFound reports whether the provider answered with a not-found class status.
func (e *UpstreamError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func StatusError(provider string, status int) error {
	return &UpstreamError{Provider: provider, StatusCode: status}
}

func TransportError(provider string, err error) error {
	return &UpstreamError{Provider: provider, Err: err}
}

// IsNotFound reports whether err carries a not-found upstream response.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.NotFound()
}

// IsUpstream reports whether err originated in a provider client.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
