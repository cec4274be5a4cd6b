package worker

import (
	"context"
	"encoding/json"
	"time"

	"inventario-service/internal/broker"
	"inventario-service/internal/models"
	"inventario-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditStore is the slice of the store the audit worker needs.
type AuditStore interface {
	InsertAuditEntry(ctx context.Context, entry *models.AuditEntry) (bool, error)
}

// AuditWorker consumes the domain event stream and appends each event
// to the auditoria table. Replays are harmless: insertion is
// idempotent per event id.
type AuditWorker struct {
	consumer *broker.Consumer
	store    AuditStore
	logger   *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, store AuditStore) *AuditWorker {
	return &AuditWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}

// entityRef pulls the primary entity id out of any event payload.
type entityRef struct {
	VentaID  int64   `json:"venta_id"`
	SourceID int64   `json:"source_id"`
	ItemID   int64   `json:"item_id"`
	ItemIDs  []int64 `json:"item_ids"`
}

func (r entityRef) id() int64 {
	switch {
	case r.VentaID != 0:
		return r.VentaID
	case r.SourceID != 0:
		return r.SourceID
	case r.ItemID != 0:
		return r.ItemID
	case len(r.ItemIDs) > 0:
		return r.ItemIDs[0]
	}
	return 0
}

func (w *AuditWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		// Malformed messages are dropped, not retried forever.
		w.logger.Error("Failed to unmarshal event envelope", zap.Error(err))
		return nil
	}

	var ref entityRef
	if err := json.Unmarshal(msg.Value, &ref); err != nil {
		w.logger.Error("Failed to unmarshal event payload",
			zap.String("event_id", base.EventID), zap.Error(err))
		return nil
	}

	ocurrido := base.Timestamp
	if ocurrido.IsZero() {
		ocurrido = time.Now()
	}

	inserted, err := w.store.InsertAuditEntry(ctx, &models.AuditEntry{
		EventID:    base.EventID,
		EventType:  base.EventType,
		ActorID:    base.ActorID,
		EntityID:   ref.id(),
		Payload:    msg.Value,
		OcurridoEn: ocurrido,
	})
	if err != nil {
		return err
	}
	if !inserted {
		w.logger.Debug("Event already audited", zap.String("event_id", base.EventID))
	}
	return nil
}
