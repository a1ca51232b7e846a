// Package relay forwards PlayFab calls received over COMMS to the backend.
package relay

import (
	"encoding/json"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

// Error codes carried in ErrorDetail.Code.
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeEndpointNotFound        = "ENDPOINT_NOT_FOUND"
	CodeInvalidCredentialHeader = "INVALID_CREDENTIAL_HEADER"
	CodeUpstreamError           = "UPSTREAM_ERROR"
	CodeInternalError           = "INTERNAL_ERROR"
)

// RelayRequest is the JSON envelope for one forwarded POST.
type RelayRequest struct {
	ID           string            `json:"id"`
	Path         string            `json:"path"`
	Body         json.RawMessage   `json:"body,omitempty"`
	HeaderName   string            `json:"headerName,omitempty"`
	HeaderValue  string            `json:"headerValue,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
	TimeoutMs    int               `json:"timeoutMs,omitempty"`
}

// RelayResponse carries either the raw backend body or an error.
type RelayResponse struct {
	ID    string          `json:"id"`
	Ok    bool            `json:"ok"`
	Body  json.RawMessage `json:"body,omitempty"`
	Error *ErrorDetail    `json:"error,omitempty"`
}

// ErrorDetail holds structured error information. API is set when the backend
// itself rejected the call.
type ErrorDetail struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	Retryable bool               `json:"retryable"`
	API       *playfab.ErrorInfo `json:"api,omitempty"`
}

// NewRequest builds a relay envelope from a transport request.
func NewRequest(id string, req *playfab.TransportRequest) *RelayRequest {
	return &RelayRequest{
		ID:           id,
		Path:         req.Path,
		Body:         json.RawMessage(req.Body),
		HeaderName:   req.HeaderName,
		HeaderValue:  req.HeaderValue,
		ExtraHeaders: req.ExtraHeaders,
	}
}

// TransportRequest converts the envelope back into a transport request.
func (r *RelayRequest) TransportRequest() *playfab.TransportRequest {
	body := []byte(r.Body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	return &playfab.TransportRequest{
		Path:         r.Path,
		Body:         body,
		HeaderName:   r.HeaderName,
		HeaderValue:  r.HeaderValue,
		ExtraHeaders: r.ExtraHeaders,
	}
}

// AsError converts a failed response into the error a Transport would return.
// Backend rejections become *playfab.APIError; everything else is ServiceUnavailable.
func (d *ErrorDetail) AsError() error {
	if d == nil {
		return playfab.NewServiceUnavailable(errNoDetail)
	}
	if d.API != nil {
		return &playfab.APIError{ErrorInfo: *d.API}
	}
	return &playfab.APIError{ErrorInfo: playfab.ErrorInfo{
		HTTPCode:     httpCodeFor(d.Code),
		HTTPStatus:   d.Code,
		ErrorName:    d.Code,
		ErrorMessage: d.Message,
	}}
}

func httpCodeFor(code string) int {
	switch code {
	case CodeInvalidRequest:
		return 400
	case CodeInvalidCredentialHeader:
		return 401
	case CodeEndpointNotFound:
		return 404
	case CodeInternalError:
		return 500
	default:
		return 503
	}
}
