package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/morezero/playfab-sdk/pkg/catalog"
	"github.com/morezero/playfab-sdk/pkg/playfab"
)

const logPrefix = "relay:relay"

var errNoDetail = errors.New("relay returned a failure without detail")

// Relay validates relay requests against the descriptor table and forwards them upstream.
type Relay struct {
	catalog  *catalog.ResolvedCatalog
	upstream playfab.Transport
	observer playfab.ErrorObserver
}

// RelayParams holds dependencies for NewRelay.
type RelayParams struct {
	Catalog  *catalog.ResolvedCatalog
	Upstream playfab.Transport
	Observer playfab.ErrorObserver // optional, notified of upstream failures
}

// NewRelay creates a Relay.
func NewRelay(params RelayParams) (*Relay, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("%s - catalog is required", logPrefix)
	}
	if params.Upstream == nil {
		return nil, fmt.Errorf("%s - upstream transport is required", logPrefix)
	}
	return &Relay{
		catalog:  params.Catalog,
		upstream: params.Upstream,
		observer: params.Observer,
	}, nil
}

// Handle forwards one request and never returns nil.
func (r *Relay) Handle(ctx context.Context, req *RelayRequest) *RelayResponse {
	slog.Debug(fmt.Sprintf("%s - path=%s id=%s", logPrefix, req.Path, req.ID))

	if req.Path == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "path is required", false)
	}
	d := r.catalog.ByPath(req.Path)
	if d == nil {
		return errorResponse(req.ID, CodeEndpointNotFound, fmt.Sprintf("Unknown endpoint: %s", req.Path), false)
	}
	if err := checkCredentialHeader(d, req); err != nil {
		return errorResponse(req.ID, CodeInvalidCredentialHeader, err.Error(), false)
	}

	body, err := r.upstream.DoPost(ctx, req.TransportRequest())
	if err != nil {
		if r.observer != nil {
			r.observer.ObserveTransportError(ctx, d.CallInfo(), err)
		}
		return upstreamErrorToResponse(req.ID, err)
	}
	return &RelayResponse{ID: req.ID, Ok: true, Body: body}
}

func checkCredentialHeader(d *catalog.Descriptor, req *RelayRequest) error {
	want := d.Auth.HeaderName()
	if !strings.EqualFold(req.HeaderName, want) {
		if want == "" {
			return fmt.Errorf("%s takes no credential, got %s", d.Path, req.HeaderName)
		}
		return fmt.Errorf("%s requires %s, got %q", d.Path, want, req.HeaderName)
	}
	if d.Auth.Required() && req.HeaderValue == "" {
		return fmt.Errorf("%s requires a non-empty %s", d.Path, want)
	}
	return nil
}

func errorResponse(id, code, message string, retryable bool) *RelayResponse {
	return &RelayResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func upstreamErrorToResponse(id string, err error) *RelayResponse {
	var apiErr *playfab.APIError
	if errors.As(err, &apiErr) {
		info := apiErr.ErrorInfo
		return &RelayResponse{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:      CodeUpstreamError,
				Message:   apiErr.Error(),
				Retryable: info.HTTPCode >= 500 || info.HTTPCode == 429,
				API:       &info,
			},
		}
	}
	slog.Error(fmt.Sprintf("%s - unexpected upstream error: %v", logPrefix, err))
	return errorResponse(id, CodeInternalError, err.Error(), true)
}
