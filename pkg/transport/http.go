// Package transport provides playfab.Transport implementations: direct HTTPS and
// request-reply over COMMS through the relay.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

const logPrefix = "transport:http"

// DefaultTimeout bounds a single HTTP call when HTTPTransportParams.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a non-JSON error body is copied into ErrorMessage.
const maxErrorBody = 512

// HTTPTransport POSTs to the PlayFab HTTPS API.
type HTTPTransport struct {
	client    *http.Client
	baseURL   string
	sdkHeader string
}

// HTTPTransportParams holds dependencies for NewHTTPTransport.
type HTTPTransportParams struct {
	Settings playfab.Settings
	Client   *http.Client  // optional
	Timeout  time.Duration // used only when Client is nil
}

// NewHTTPTransport creates an HTTPTransport for the title in params.Settings.
func NewHTTPTransport(params HTTPTransportParams) (*HTTPTransport, error) {
	baseURL, err := params.Settings.BaseURL()
	if err != nil {
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	client := params.Client
	if client == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPTransport{
		client:    client,
		baseURL:   baseURL,
		sdkHeader: playfab.SDKHeaderValue(),
	}, nil
}

// BaseURL returns the resolved base URL.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// DoPost implements playfab.Transport. Non-200 responses and network failures
// are returned as *playfab.APIError.
func (t *HTTPTransport) DoPost(ctx context.Context, req *playfab.TransportRequest) ([]byte, error) {
	url := t.baseURL + req.Path + "?sdk=" + t.sdkHeader

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Body))
	if err != nil {
		return nil, playfab.NewServiceUnavailable(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-PlayFabSDK", t.sdkHeader)
	if req.HeaderName != "" {
		httpReq.Header.Set(req.HeaderName, req.HeaderValue)
	}
	for k, v := range req.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - POST %s failed: %v", logPrefix, req.Path, err))
		return nil, playfab.NewServiceUnavailable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, playfab.NewServiceUnavailable(err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := parseErrorBody(resp.StatusCode, body)
		slog.Debug(fmt.Sprintf("%s - POST %s returned %d: %s", logPrefix, req.Path, resp.StatusCode, apiErr.ErrorName))
		return nil, apiErr
	}
	return body, nil
}

// parseErrorBody decodes the backend error envelope, falling back to the HTTP status
// when the body is not one.
func parseErrorBody(status int, body []byte) *playfab.APIError {
	var info playfab.ErrorInfo
	if err := json.Unmarshal(body, &info); err == nil && info.ErrorName != "" {
		if info.HTTPCode == 0 {
			info.HTTPCode = status
		}
		if info.HTTPStatus == "" {
			info.HTTPStatus = http.StatusText(status)
		}
		return &playfab.APIError{ErrorInfo: info}
	}

	msg := string(body)
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &playfab.APIError{ErrorInfo: playfab.ErrorInfo{
		HTTPCode:     status,
		HTTPStatus:   http.StatusText(status),
		ErrorName:    "HTTPError",
		ErrorMessage: msg,
	}}
}
