package broker

import (
	"context"
	"fmt"
	"time"

	"inventario-service/internal/models"

	"github.com/google/uuid"
)

// EventPublisher handles publishing domain events. Publishing is
// best-effort: callers log failures and continue, the store remains
// the source of truth.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewBaseEvent fills the common envelope for a domain event.
func NewBaseEvent(eventType string, actorID int64) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		ActorID:   actorID,
		Timestamp: time.Now(),
	}
}

// PublishItemsAssigned publishes an ItemsAssigned event
func (ep *EventPublisher) PublishItemsAssigned(ctx context.Context, event *models.ItemsAssignedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("vendedor-%d", event.VendedorID), event)
}

// PublishItemsUnassigned publishes an ItemsUnassigned event
func (ep *EventPublisher) PublishItemsUnassigned(ctx context.Context, event *models.ItemsUnassignedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("actor-%d", event.ActorID), event)
}

// PublishItemsImported publishes an ItemsImported event
func (ep *EventPublisher) PublishItemsImported(ctx context.Context, event *models.ItemsImportedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("actor-%d", event.ActorID), event)
}

// PublishItemSplit publishes an ItemSplit event
func (ep *EventPublisher) PublishItemSplit(ctx context.Context, event *models.ItemSplitEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("item-%d", event.SourceID), event)
}

// PublishVentaCreated publishes a VentaCreated event
func (ep *EventPublisher) PublishVentaCreated(ctx context.Context, event *models.VentaCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("venta-%d", event.VentaID), event)
}

// PublishVentaApproved publishes a VentaApproved event
func (ep *EventPublisher) PublishVentaApproved(ctx context.Context, event *models.VentaApprovedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("venta-%d", event.VentaID), event)
}

// PublishVentaRejected publishes a VentaRejected event
func (ep *EventPublisher) PublishVentaRejected(ctx context.Context, event *models.VentaRejectedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("venta-%d", event.VentaID), event)
}
