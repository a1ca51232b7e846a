// Package events reports PlayFab API failures to COMMS subscribers and the error journal.
package events

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

// APIErrorEvent is emitted when a call fails in the transport.
type APIErrorEvent struct {
	ID           string              `json:"id"`
	Endpoint     string              `json:"endpoint"`
	Path         string              `json:"path"`
	Auth         string              `json:"auth"`
	HTTPCode     int                 `json:"httpCode"`
	HTTPStatus   string              `json:"httpStatus,omitempty"`
	ErrorName    string              `json:"error"`
	ErrorCode    int                 `json:"errorCode,omitempty"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	ErrorDetails map[string][]string `json:"errorDetails,omitempty"`
	Cause        string              `json:"cause,omitempty"`
	Service      string              `json:"service,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// NewAPIErrorEvent describes err, the failure of call. Errors that are not
// *playfab.APIError are reported as "TransportError".
func NewAPIErrorEvent(call playfab.CallInfo, err error, service string) *APIErrorEvent {
	ev := &APIErrorEvent{
		ID:        uuid.NewString(),
		Endpoint:  call.Name,
		Path:      call.Path,
		Auth:      call.Auth.String(),
		Service:   service,
		Timestamp: time.Now().UTC(),
	}

	var apiErr *playfab.APIError
	if !errors.As(err, &apiErr) {
		ev.ErrorName = "TransportError"
		if err != nil {
			ev.ErrorMessage = err.Error()
		}
		return ev
	}

	ev.HTTPCode = apiErr.HTTPCode
	ev.HTTPStatus = apiErr.HTTPStatus
	ev.ErrorName = apiErr.ErrorName
	ev.ErrorCode = apiErr.ErrorCode
	ev.ErrorMessage = apiErr.ErrorMessage
	ev.ErrorDetails = apiErr.ErrorDetails
	if apiErr.Cause != nil {
		ev.Cause = apiErr.Cause.Error()
	}
	return ev
}
