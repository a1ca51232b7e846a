package events

import (
	"context"
	"fmt"

	"github.com/morezero/playfab-sdk/pkg/db"
)

// JournalWriter stores API error records. *db.Repository implements it.
type JournalWriter interface {
	InsertAPIError(ctx context.Context, rec *db.APIErrorRecord) (*db.APIErrorRecord, error)
}

// JournalPublisher records API error events in the error journal.
type JournalPublisher struct {
	writer JournalWriter
}

// NewJournalPublisher creates a JournalPublisher.
func NewJournalPublisher(w JournalWriter) *JournalPublisher {
	return &JournalPublisher{writer: w}
}

// PublishAPIError inserts the event as a journal record.
func (p *JournalPublisher) PublishAPIError(ctx context.Context, event *APIErrorEvent) error {
	if _, err := p.writer.InsertAPIError(ctx, ToRecord(event)); err != nil {
		return fmt.Errorf("events:journal_publisher - %w", err)
	}
	return nil
}

// ToRecord converts an event into a journal record. The record ID is left for the journal to assign.
func ToRecord(event *APIErrorEvent) *db.APIErrorRecord {
	return &db.APIErrorRecord{
		EventID:      event.ID,
		Endpoint:     event.Endpoint,
		Path:         event.Path,
		HTTPCode:     event.HTTPCode,
		HTTPStatus:   event.HTTPStatus,
		ErrorName:    event.ErrorName,
		ErrorCode:    event.ErrorCode,
		ErrorMessage: event.ErrorMessage,
		ErrorDetails: event.ErrorDetails,
		Cause:        event.Cause,
		Service:      event.Service,
		Occurred:     event.Timestamp,
	}
}
