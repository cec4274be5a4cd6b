package service

import (
	"context"
	"io"
	"strings"
	"time"

	"inventario-service/internal/apperr"
	"inventario-service/internal/broker"
	"inventario-service/internal/importer"
	"inventario-service/internal/models"
	"inventario-service/internal/store"
	"inventario-service/internal/util"

	"go.uber.org/zap"
)

// ItemStore is the slice of the store the inventory service needs.
type ItemStore interface {
	InsertItem(ctx context.Context, item *models.Item) error
	BulkInsertItems(ctx context.Context, items []models.Item) (int, error)
	GetItem(ctx context.Context, id int64, vis models.Visibility) (*models.Item, error)
	ListItems(ctx context.Context, vis models.Visibility, filter store.ItemFilter) ([]models.Item, error)
	UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (int64, error)
	AssignItems(ctx context.Context, ids []int64, vendedorID int64) ([]int64, error)
	UnassignItems(ctx context.Context, ids []int64) ([]int64, error)
	DeleteItem(ctx context.Context, id int64) (int64, error)
	SplitItem(ctx context.Context, id int64, objetos []string) ([]models.Item, error)
}

// ImportLocker serializes concurrent imports per creator.
type ImportLocker interface {
	AcquireImportLock(ctx context.Context, creadorID int64, ttl time.Duration) (bool, error)
	ReleaseImportLock(ctx context.Context, creadorID int64) error
}

// InventoryService owns the item lifecycle: creation, bulk import,
// updates, assignment, deletion, split and export. Every operation
// takes the resolved Actor explicitly.
type InventoryService struct {
	store    ItemStore
	pipeline *importer.Pipeline
	locker   ImportLocker
	lockTTL  time.Duration
	events   *broker.EventPublisher
	logger   *zap.Logger
}

func NewInventoryService(
	store ItemStore,
	pipeline *importer.Pipeline,
	locker ImportLocker,
	lockTTL time.Duration,
	events *broker.EventPublisher,
) *InventoryService {
	return &InventoryService{
		store:    store,
		pipeline: pipeline,
		locker:   locker,
		lockTTL:  lockTTL,
		events:   events,
		logger:   util.GetLogger(),
	}
}

// CreateItem inserts a single item in available estado.
func (s *InventoryService) CreateItem(ctx context.Context, actor models.Actor, item *models.Item) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.CreateItem")
	defer span.End()

	if !actor.CanManageInventory() {
		return apperr.New(apperr.Unauthorized, "inventory management capability required")
	}
	if allDescriptiveFieldsEmpty(item) {
		return apperr.New(apperr.Validation, "all columns are empty")
	}

	item.Estado = models.ItemEstadoAvailable
	item.AsignadoA = nil
	item.AsignadoEn = nil
	item.CreadoPor = &actor.ID

	if err := s.store.InsertItem(ctx, item); err != nil {
		return apperr.Wrap(apperr.Storage, err, "failed to create item")
	}

	util.ItemsCreatedTotal.Inc()
	s.logger.Info("Item created",
		zap.Int64("item_id", item.ID),
		zap.Int64("creado_por", actor.ID))
	return nil
}

// ImportCSV runs the bulk ingestion pipeline. Concurrent imports by
// the same creator are rejected immediately rather than queued.
func (s *InventoryService) ImportCSV(ctx context.Context, actor models.Actor, rows []map[string]string) (*importer.Result, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.ImportCSV")
	defer span.End()

	if !actor.CanManageInventory() {
		return nil, apperr.New(apperr.Unauthorized, "inventory management capability required")
	}

	if s.locker != nil {
		acquired, err := s.locker.AcquireImportLock(ctx, actor.ID, s.lockTTL)
		if err != nil {
			return nil, apperr.Wrap(apperr.Storage, err, "failed to acquire import lock")
		}
		if !acquired {
			return nil, apperr.New(apperr.Concurrent, "an import by usuario %d is already running", actor.ID)
		}
		defer func() {
			if err := s.locker.ReleaseImportLock(ctx, actor.ID); err != nil {
				s.logger.Error("Failed to release import lock",
					zap.Int64("creador", actor.ID), zap.Error(err))
			}
		}()
	}

	result, err := s.pipeline.Run(ctx, rows, actor.ID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		event := &models.ItemsImportedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeItemsImported, actor.ID),
			Count:     result.SuccessCount,
			RowErrors: len(result.Errors),
		}
		if err := s.events.PublishItemsImported(ctx, event); err != nil {
			s.logger.Error("Failed to publish ItemsImported event", zap.Error(err))
		}
	}
	return result, nil
}

// ExportCSV streams the inventory in export format, narrowed by the
// optional filter.
func (s *InventoryService) ExportCSV(ctx context.Context, actor models.Actor, filter store.ItemFilter, w io.Writer) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.ExportCSV")
	defer span.End()

	if !actor.CanManageInventory() {
		return apperr.New(apperr.Unauthorized, "inventory management capability required")
	}

	items, err := s.store.ListItems(ctx, models.Visibility{All: true}, filter)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "failed to list items for export")
	}
	return importer.WriteCSV(w, items)
}

// GetItem fetches one item within the actor's visibility scope.
func (s *InventoryService) GetItem(ctx context.Context, actor models.Actor, id int64) (*models.Item, error) {
	if !actor.IsAuthenticated() {
		return nil, apperr.New(apperr.Unauthorized, "authentication required")
	}

	item, err := s.store.GetItem(ctx, id, models.VisibilityFor(actor))
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "failed to get item %d", id)
	}
	if item == nil {
		return nil, apperr.New(apperr.NotFound, "item %d not found", id)
	}
	return item, nil
}

// ListItems lists items within the actor's visibility scope, narrowed
// by the optional filter.
func (s *InventoryService) ListItems(ctx context.Context, actor models.Actor, filter store.ItemFilter) ([]models.Item, error) {
	if !actor.IsAuthenticated() {
		return nil, apperr.New(apperr.Unauthorized, "authentication required")
	}

	items, err := s.store.ListItems(ctx, models.VisibilityFor(actor), filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "failed to list items")
	}
	return items, nil
}

// UpdateItem applies a partial update. Managers may patch anything;
// a seller may only patch items assigned to them, and the patch is
// silently stripped of lifecycle fields first.
func (s *InventoryService) UpdateItem(ctx context.Context, actor models.Actor, id int64, patch models.ItemPatch) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.UpdateItem")
	defer span.End()

	if !actor.IsAuthenticated() {
		return apperr.New(apperr.Unauthorized, "authentication required")
	}

	if !actor.CanManageInventory() {
		item, err := s.store.GetItem(ctx, id, models.VisibilityFor(actor))
		if err != nil {
			return apperr.Wrap(apperr.Storage, err, "failed to get item %d", id)
		}
		if item == nil {
			return apperr.New(apperr.NotFound, "item %d not found", id)
		}
		patch = patch.StripLifecycle()
	}

	if patch.Empty() {
		return apperr.New(apperr.Validation, "patch contains no fields to update")
	}

	rows, err := s.store.UpdateItem(ctx, id, patch)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "failed to update item %d", id)
	}
	if rows == 0 {
		return apperr.New(apperr.NotFound, "item %d not found", id)
	}
	return nil
}

// AssignItems assigns the eligible subset of ids to a seller.
// Ineligible ids are dropped silently, not reported as an error.
func (s *InventoryService) AssignItems(ctx context.Context, actor models.Actor, ids []int64, vendedorID int64) ([]int64, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.AssignItems")
	defer span.End()

	if !actor.IsAdmin() {
		return nil, apperr.New(apperr.Unauthorized, "admin capability required")
	}

	assigned, err := s.store.AssignItems(ctx, ids, vendedorID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "failed to assign items")
	}

	util.ItemsAssignedTotal.Add(float64(len(assigned)))
	s.logger.Info("Items assigned",
		zap.Int("requested", len(ids)),
		zap.Int("assigned", len(assigned)),
		zap.Int64("vendedor", vendedorID))

	if s.events != nil && len(assigned) > 0 {
		event := &models.ItemsAssignedEvent{
			BaseEvent:  broker.NewBaseEvent(models.EventTypeItemsAssigned, actor.ID),
			ItemIDs:    assigned,
			VendedorID: vendedorID,
		}
		if err := s.events.PublishItemsAssigned(ctx, event); err != nil {
			s.logger.Error("Failed to publish ItemsAssigned event", zap.Error(err))
		}
	}
	return assigned, nil
}

// UnassignItems returns the eligible subset of ids to available.
func (s *InventoryService) UnassignItems(ctx context.Context, actor models.Actor, ids []int64) ([]int64, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.UnassignItems")
	defer span.End()

	if !actor.IsAdmin() {
		return nil, apperr.New(apperr.Unauthorized, "admin capability required")
	}

	unassigned, err := s.store.UnassignItems(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "failed to unassign items")
	}

	util.ItemsUnassignedTotal.Add(float64(len(unassigned)))

	if s.events != nil && len(unassigned) > 0 {
		event := &models.ItemsUnassignedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeItemsUnassigned, actor.ID),
			ItemIDs:   unassigned,
		}
		if err := s.events.PublishItemsUnassigned(ctx, event); err != nil {
			s.logger.Error("Failed to publish ItemsUnassigned event", zap.Error(err))
		}
	}
	return unassigned, nil
}

// DeleteItem hard-deletes an item.
func (s *InventoryService) DeleteItem(ctx context.Context, actor models.Actor, id int64) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.DeleteItem")
	defer span.End()

	if !actor.CanManageInventory() {
		return apperr.New(apperr.Unauthorized, "inventory management capability required")
	}

	rows, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.Storage, err, "failed to delete item %d", id)
	}
	if rows == 0 {
		return apperr.New(apperr.NotFound, "item %d not found", id)
	}

	s.logger.Info("Item deleted", zap.Int64("item_id", id), zap.Int64("actor", actor.ID))
	return nil
}

// SplitItem replaces an item with one copy per supplied name. Names
// are trimmed; at least two non-empty names are required.
func (s *InventoryService) SplitItem(ctx context.Context, actor models.Actor, id int64, objetos []string) ([]models.Item, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.SplitItem")
	defer span.End()

	if !actor.CanManageInventory() {
		return nil, apperr.New(apperr.Unauthorized, "inventory management capability required")
	}

	nombres := make([]string, 0, len(objetos))
	for _, objeto := range objetos {
		if trimmed := strings.TrimSpace(objeto); trimmed != "" {
			nombres = append(nombres, trimmed)
		}
	}
	if len(nombres) < 2 {
		return nil, apperr.New(apperr.Validation,
			"split requires at least 2 non-empty object names, got %d", len(nombres))
	}

	copies, err := s.store.SplitItem(ctx, id, nombres)
	if err != nil {
		if apperr.KindOf(err) != apperr.Storage {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.Storage, err, "failed to split item %d", id)
	}

	util.ItemsSplitTotal.Inc()
	s.logger.Info("Item split",
		zap.Int64("source", id),
		zap.Int("copies", len(copies)))

	if s.events != nil {
		newIDs := make([]int64, len(copies))
		for i, c := range copies {
			newIDs[i] = c.ID
		}
		event := &models.ItemSplitEvent{
			BaseEvent:  broker.NewBaseEvent(models.EventTypeItemSplit, actor.ID),
			SourceID:   id,
			NewItemIDs: newIDs,
		}
		if err := s.events.PublishItemSplit(ctx, event); err != nil {
			s.logger.Error("Failed to publish ItemSplit event", zap.Error(err))
		}
	}
	return copies, nil
}

func allDescriptiveFieldsEmpty(item *models.Item) bool {
	return item.Identificador == nil && item.Categoria == nil &&
		item.Subcategoria == nil && item.Objeto == nil && item.Condicion == nil &&
		item.Anio == nil && item.Rack == nil && item.Nivel == nil &&
		item.Comentarios == nil
}
