package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/playfab-sdk/pkg/commsutil"
	"github.com/morezero/playfab-sdk/pkg/playfab"
	"github.com/morezero/playfab-sdk/pkg/relay"
)

const commsLogPrefix = "transport:comms"

// CommsTransport forwards calls to a relay service over COMMS request-reply.
type CommsTransport struct {
	nc      *comms.Conn
	subject string
	timeout time.Duration
}

// CommsTransportParams holds dependencies for NewCommsTransport.
type CommsTransportParams struct {
	Conn    *comms.Conn
	Subject string        // defaults to commsutil.SubjectRelay
	Timeout time.Duration // applied when ctx has no deadline; defaults to DefaultTimeout
}

// NewCommsTransport creates a CommsTransport.
func NewCommsTransport(params CommsTransportParams) (*CommsTransport, error) {
	if params.Conn == nil {
		return nil, fmt.Errorf("%s - connection is required", commsLogPrefix)
	}
	subject := params.Subject
	if subject == "" {
		subject = commsutil.SubjectRelay
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommsTransport{nc: params.Conn, subject: subject, timeout: timeout}, nil
}

// DoPost implements playfab.Transport.
func (t *CommsTransport) DoPost(ctx context.Context, req *playfab.TransportRequest) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	id := uuid.NewString()
	relayReq := relay.NewRequest(id, req)
	if dl, ok := ctx.Deadline(); ok {
		// The relay stops waiting on upstream when the caller would.
		relayReq.TimeoutMs = int(time.Until(dl).Milliseconds())
	}
	data, err := commsutil.EncodePayload(relayReq)
	if err != nil {
		return nil, playfab.NewServiceUnavailable(err)
	}

	msg, err := t.nc.RequestWithContext(ctx, t.subject, data)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - request %s on %s failed: %v", commsLogPrefix, id, t.subject, err))
		return nil, playfab.NewServiceUnavailable(err)
	}

	resp, err := commsutil.DecodeAs[relay.RelayResponse](msg.Data)
	if err != nil {
		return nil, playfab.NewServiceUnavailable(err)
	}
	if resp.ID != id {
		slog.Warn(fmt.Sprintf("%s - response id %q does not match request %q", commsLogPrefix, resp.ID, id))
	}
	if !resp.Ok {
		return nil, resp.Error.AsError()
	}
	return resp.Body, nil
}
