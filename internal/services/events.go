package services

import (
	"context"
	"log"

	"stockswap/internal/models"
)

const (
	EventExportRequested = "export_request.created"
	EventExportAccepted  = "export_request.accepted"
	EventExportRejected  = "export_request.rejected"
	EventExportCancelled = "export_request.cancelled"
)

// EventPublisher delivers export notifications to the other party. pkg/rabbitmq.Client
// satisfies it.
type EventPublisher interface {
	PublishExportEvent(ctx context.Context, event models.ExportEvent) error
}

// publish sends the event if a publisher is configured. Failures are logged only; the
// state change has already been committed.
func publish(ctx context.Context, p EventPublisher, eventType string, req *models.ExportRequest) {
	if p == nil {
		return
	}
	if err := p.PublishExportEvent(ctx, models.NewExportEvent(eventType, req)); err != nil {
		log.Printf("Warning: Failed to publish %s event for export request %s: %v", eventType, req.ID, err)
	}
}
