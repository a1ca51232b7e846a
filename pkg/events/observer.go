package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/morezero/playfab-sdk/pkg/playfab"
)

const observerLogPrefix = "events:observer"

// DefaultPublishTimeout bounds a single publish made by Observer.
const DefaultPublishTimeout = 5 * time.Second

// Observer adapts an EventPublisher to playfab.ErrorObserver. Events are
// published in the background; call Wait before exiting to flush them.
type Observer struct {
	pub     EventPublisher
	service string
	timeout time.Duration
	pending sync.WaitGroup
}

// NewObserver creates an Observer. service is stamped on every event.
func NewObserver(pub EventPublisher, service string) *Observer {
	if pub == nil {
		pub = &NoOpPublisher{}
	}
	return &Observer{pub: pub, service: service, timeout: DefaultPublishTimeout}
}

// ObserveTransportError implements playfab.ErrorObserver. It returns before
// the event is published. Publishing outlives cancellation of the failed
// call; failures are logged only.
func (o *Observer) ObserveTransportError(ctx context.Context, call playfab.CallInfo, err error) {
	event := NewAPIErrorEvent(call, err, o.service)
	pubCtx := context.WithoutCancel(ctx)

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		ctx, cancel := context.WithTimeout(pubCtx, o.timeout)
		defer cancel()
		if perr := o.pub.PublishAPIError(ctx, event); perr != nil {
			slog.Warn(fmt.Sprintf("%s - failed to publish %s for %s: %v", observerLogPrefix, event.ErrorName, call.Name, perr))
		}
	}()
}

// Wait blocks until every event observed so far has been published or has
// timed out.
func (o *Observer) Wait() {
	o.pending.Wait()
}
