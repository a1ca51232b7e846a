package playfab

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	ErrCredentialMissing = errors.New("credential missing")
	ErrDecode            = errors.New("malformed response envelope")
	ErrEncode            = errors.New("request payload could not be encoded")
)

// CredentialMissingError is returned when an endpoint requires a credential that is not configured.
// No network call is attempted.
type CredentialMissingError struct {
	Path string
	Rule CredentialRule
}

func (e *CredentialMissingError) Error() string {
	return fmt.Sprintf("%s: %s requires %s (%s) but none is configured", ErrCredentialMissing, e.Path, e.Rule, e.Rule.HeaderName())
}

// Is matches ErrCredentialMissing.
func (e *CredentialMissingError) Is(target error) bool {
	return target == ErrCredentialMissing
}

// ErrorInfo is the structured failure detail reported by the backend or transport.
type ErrorInfo struct {
	HTTPCode     int                 `json:"code"`
	HTTPStatus   string              `json:"status"`
	ErrorName    string              `json:"error"`
	ErrorCode    int                 `json:"errorCode"`
	ErrorMessage string              `json:"errorMessage"`
	ErrorDetails map[string][]string `json:"errorDetails,omitempty"`
}

// APIError is a transport-level failure: network, HTTP status, or a server-declared error.
type APIError struct {
	ErrorInfo
	// Cause is the underlying transport error (e.g. a dial failure or context cancellation), if any.
	Cause error `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.ErrorMessage
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.HTTPCode == 0 {
		return fmt.Sprintf("%s: %s", e.ErrorName, msg)
	}
	return fmt.Sprintf("%s (%d %s): %s", e.ErrorName, e.HTTPCode, e.HTTPStatus, msg)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewServiceUnavailable wraps a transport failure that never produced a backend response.
func NewServiceUnavailable(cause error) *APIError {
	return &APIError{
		ErrorInfo: ErrorInfo{
			HTTPCode:     503,
			HTTPStatus:   "ServiceUnavailable",
			ErrorName:    "ServiceUnavailable",
			ErrorCode:    1123,
			ErrorMessage: cause.Error(),
		},
		Cause: cause,
	}
}

// DecodeError is returned when a nominally successful body is not a valid envelope.
type DecodeError struct {
	Path string
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s from %s: %v", ErrDecode, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// EncodeError is returned when the request payload cannot be serialized. No network call is attempted.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s for %s: %v", ErrEncode, e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Is matches ErrEncode.
func (e *EncodeError) Is(target error) bool {
	return target == ErrEncode
}
