package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/events"
)

// StartAuditWorker subscribes a structured-log handler for every lifecycle
// event the services publish. Dispatch is synchronous, so audit lines land in
// order with the operation that caused them.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}

	audited := []events.EventType{
		events.EventSessionStarted,
		events.EventSessionEnded,
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketDeleted,
		events.EventTicketsSeeded,
	}

	for _, eventType := range audited {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			logger.Info("audit",
				zap.String("event", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.String("user_id", event.UserID),
				zap.Time("at", event.Timestamp),
				zap.Any("payload", event.Payload),
			)
			return nil
		})
	}
}
