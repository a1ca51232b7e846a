package events

import (
	"context"
	"errors"
)

// EventPublisher is the interface for publishing API error events.
type EventPublisher interface {
	PublishAPIError(ctx context.Context, event *APIErrorEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing.
type NoOpPublisher struct{}

// PublishAPIError is a no-op.
func (p *NoOpPublisher) PublishAPIError(_ context.Context, _ *APIErrorEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *APIErrorEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *APIErrorEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishAPIError calls the callback.
func (p *CallbackPublisher) PublishAPIError(ctx context.Context, event *APIErrorEvent) error {
	return p.callback(ctx, event)
}

// MultiPublisher fans an event out to several publishers. Every publisher is
// tried; their errors are joined.
type MultiPublisher struct {
	publishers []EventPublisher
}

// NewMultiPublisher creates a MultiPublisher. Nil publishers are skipped.
func NewMultiPublisher(publishers ...EventPublisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// PublishAPIError publishes to every publisher.
func (m *MultiPublisher) PublishAPIError(ctx context.Context, event *APIErrorEvent) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.PublishAPIError(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
