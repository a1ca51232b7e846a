package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/playfab-sdk/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// GlobalErrorSubject overrides the global error subject (e.g. from ERROR_EVENT_SUBJECT).
	GlobalErrorSubject string
}

// CommsPublisher publishes API error events to COMMS subjects.
type CommsPublisher struct {
	nc                 *comms.Conn
	globalErrorSubject string
}

// NewCommsPublisher creates a new CommsPublisher. Pass nil for opts to use defaults.
func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	globalSubject := commsutil.SubjectErrorEvent
	if opts != nil && opts.GlobalErrorSubject != "" {
		globalSubject = opts.GlobalErrorSubject
	}
	return &CommsPublisher{nc: nc, globalErrorSubject: globalSubject}
}

// PublishAPIError publishes an APIErrorEvent to both the per-endpoint
// and global error subjects.
func (p *CommsPublisher) PublishAPIError(_ context.Context, event *APIErrorEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	granularSubject := commsutil.BuildErrorSubject(event.Endpoint)
	if err := p.nc.Publish(granularSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, granularSubject, err))
		return err
	}

	if err := p.nc.Publish(p.globalErrorSubject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, p.globalErrorSubject, err))
		return err
	}

	slog.Debug(fmt.Sprintf("%s - Published %s for %s", commsPublisherLogPrefix, event.ErrorName, event.Endpoint))
	return nil
}
