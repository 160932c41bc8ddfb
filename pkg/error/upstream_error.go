package error

import (
	"errors"
	"fmt"
	"net/http"
)

// TimeoutError marks a call that exceeded its configured deadline.
type TimeoutError string

func (err TimeoutError) Error() string {
	return string(err)
}

func (err TimeoutError) ErrCode() string {
	return "NETWORK_TIMEOUT"
}

func (err TimeoutError) StatusCode() int {
	return http.StatusGatewayTimeout
}

// UpstreamServerError marks a 5xx-class response from an external platform.
type UpstreamServerError string

func (err UpstreamServerError) Error() string {
	return string(err)
}

func (err UpstreamServerError) ErrCode() string {
	return "UPSTREAM_SERVER_ERROR"
}

func (err UpstreamServerError) StatusCode() int {
	return http.StatusBadGateway
}

// UpstreamClientError marks a 4xx-class response. These recur regardless of
// upstream health, so they are neither retried nor counted by the breaker.
type UpstreamClientError string

func (err UpstreamClientError) Error() string {
	return string(err)
}

func (err UpstreamClientError) ErrCode() string {
	return "UPSTREAM_CLIENT_ERROR"
}

func (err UpstreamClientError) StatusCode() int {
	return http.StatusBadRequest
}

// CircuitOpenError is the distinguished rejection returned while a resource's
// circuit is open. The underlying operation was never invoked.
type CircuitOpenError string

func (err CircuitOpenError) Error() string {
	return string(err)
}

func (err CircuitOpenError) ErrCode() string {
	return "CIRCUIT_OPEN"
}

func (err CircuitOpenError) StatusCode() int {
	return http.StatusServiceUnavailable
}

// UpstreamError classifies an HTTP status from an external platform.
func UpstreamError(status int, detail string) error {
	if status >= http.StatusInternalServerError {
		return UpstreamServerError(fmt.Sprintf("upstream returned %d: %s", status, detail))
	}
	return UpstreamClientError(fmt.Sprintf("upstream returned %d: %s", status, detail))
}

// IsClientFault reports whether err is caused by the request itself rather
// than upstream health. Client faults never trip the circuit breaker and are
// never retried.
func IsClientFault(err error) bool {
	var clientErr UpstreamClientError
	var validationErr ValidationError
	return errors.As(err, &clientErr) || errors.As(err, &validationErr)
}

// IsCircuitOpen reports whether err is a circuit-open rejection.
func IsCircuitOpen(err error) bool {
	var openErr CircuitOpenError
	return errors.As(err, &openErr)
}

// IsTimeout reports whether err is a deadline-class failure.
func IsTimeout(err error) bool {
	var timeoutErr TimeoutError
	return errors.As(err, &timeoutErr)
}
