package service

import (
	"context"
	"strings"
	"time"

	"inventario-service/internal/apperr"
	"inventario-service/internal/broker"
	"inventario-service/internal/models"
	"inventario-service/internal/store"
	"inventario-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VentaStore is the slice of the store the sale workflow needs.
type VentaStore interface {
	CreateVentaTx(ctx context.Context, venta *models.Venta) error
	ApproveVentaTx(ctx context.Context, ventaID, aprobadorID int64) (*models.Venta, error)
	RejectVentaTx(ctx context.Context, ventaID int64) (*models.Venta, error)
	GetVenta(ctx context.Context, id int64, vis models.Visibility) (*models.Venta, error)
	ListVentas(ctx context.Context, vis models.Visibility, filter store.VentaFilter) ([]models.Venta, error)
}

// IdempotencyStore remembers which venta was created for a given
// Idempotency-Key so retried requests return the original record.
type IdempotencyStore interface {
	RememberIdempotencyKey(ctx context.Context, key string, ventaID int64, ttl time.Duration) error
	LookupIdempotencyKey(ctx context.Context, key string) (int64, bool, error)
}

// VentaService owns the sale workflow: creation by sellers, approval
// and rejection by admins. Item estado transitions ride the same
// transaction as the venta writes.
type VentaService struct {
	store  VentaStore
	idem   IdempotencyStore
	ttl    time.Duration
	events *broker.EventPublisher
	logger *zap.Logger
}

func NewVentaService(
	store VentaStore,
	idem IdempotencyStore,
	idempotencyTTL time.Duration,
	events *broker.EventPublisher,
) *VentaService {
	return &VentaService{
		store:  store,
		idem:   idem,
		ttl:    idempotencyTTL,
		events: events,
		logger: util.GetLogger(),
	}
}

// CreateVentaRequest carries a seller's sale registration.
type CreateVentaRequest struct {
	ItemID         int64           `json:"item_id" binding:"required"`
	Precio         decimal.Decimal `json:"precio" binding:"required"`
	Moneda         string          `json:"moneda" binding:"required"`
	FechaVenta     time.Time       `json:"fecha_venta" binding:"required"`
	Canal          *string         `json:"canal,omitempty"`
	EvidenciaURL   string          `json:"evidencia_url" binding:"required"`
	Notas          *string         `json:"notas,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// CreateVenta registers a sale for an item assigned to the calling
// seller and moves the item to sale_pending.
func (s *VentaService) CreateVenta(ctx context.Context, actor models.Actor, req *CreateVentaRequest) (*models.Venta, error) {
	ctx, span := util.StartSpan(ctx, "VentaService.CreateVenta")
	defer span.End()

	start := time.Now()
	defer func() {
		util.VentaCreateLatency.Observe(time.Since(start).Seconds())
	}()

	if !actor.IsAuthenticated() {
		util.VentasFailedTotal.WithLabelValues("unauthorized").Inc()
		return nil, apperr.New(apperr.Unauthorized, "authentication required")
	}
	if err := validateVentaRequest(req); err != nil {
		util.VentasFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idem != nil {
		ventaID, found, err := s.idem.LookupIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			s.logger.Warn("Idempotency lookup failed, proceeding",
				zap.String("key", req.IdempotencyKey), zap.Error(err))
		} else if found {
			s.logger.Info("Duplicate venta request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("venta_id", ventaID))
			return s.getOwnVenta(ctx, actor, ventaID)
		}
	}

	venta := &models.Venta{
		ItemID:       req.ItemID,
		VendedorID:   actor.ID,
		Precio:       req.Precio,
		Moneda:       strings.ToUpper(strings.TrimSpace(req.Moneda)),
		FechaVenta:   req.FechaVenta,
		Canal:        req.Canal,
		EvidenciaURL: req.EvidenciaURL,
		Notas:        req.Notas,
	}

	if err := s.store.CreateVentaTx(ctx, venta); err != nil {
		util.VentasFailedTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}

	util.VentasCreatedTotal.Inc()
	s.logger.Info("Venta created",
		zap.Int64("venta_id", venta.ID),
		zap.Int64("item_id", venta.ItemID),
		zap.Int64("vendedor", actor.ID))

	if req.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.RememberIdempotencyKey(ctx, req.IdempotencyKey, venta.ID, s.ttl); err != nil {
			s.logger.Warn("Failed to store idempotency key",
				zap.String("key", req.IdempotencyKey), zap.Error(err))
		}
	}

	if s.events != nil {
		event := &models.VentaCreatedEvent{
			BaseEvent:  broker.NewBaseEvent(models.EventTypeVentaCreated, actor.ID),
			VentaID:    venta.ID,
			ItemID:     venta.ItemID,
			VendedorID: venta.VendedorID,
			Precio:     venta.Precio.String(),
			Moneda:     venta.Moneda,
		}
		if err := s.events.PublishVentaCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish VentaCreated event", zap.Error(err))
		}
	}
	return venta, nil
}

// ApproveVenta approves a pending venta; its item moves to
// sale_approved in the same transaction.
func (s *VentaService) ApproveVenta(ctx context.Context, actor models.Actor, ventaID int64) (*models.Venta, error) {
	ctx, span := util.StartSpan(ctx, "VentaService.ApproveVenta")
	defer span.End()

	if !actor.IsAdmin() {
		return nil, apperr.New(apperr.Unauthorized, "admin capability required")
	}

	venta, err := s.store.ApproveVentaTx(ctx, ventaID, actor.ID)
	if err != nil {
		return nil, err
	}

	util.VentasApprovedTotal.Inc()
	s.logger.Info("Venta approved",
		zap.Int64("venta_id", ventaID),
		zap.Int64("aprobado_por", actor.ID))

	if s.events != nil {
		event := &models.VentaApprovedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeVentaApproved, actor.ID),
			VentaID:   venta.ID,
			ItemID:    venta.ItemID,
		}
		if err := s.events.PublishVentaApproved(ctx, event); err != nil {
			s.logger.Error("Failed to publish VentaApproved event", zap.Error(err))
		}
	}
	return venta, nil
}

// RejectVenta rejects a pending venta; its item returns to assigned,
// still owned by the seller.
func (s *VentaService) RejectVenta(ctx context.Context, actor models.Actor, ventaID int64) (*models.Venta, error) {
	ctx, span := util.StartSpan(ctx, "VentaService.RejectVenta")
	defer span.End()

	if !actor.IsAdmin() {
		return nil, apperr.New(apperr.Unauthorized, "admin capability required")
	}

	venta, err := s.store.RejectVentaTx(ctx, ventaID)
	if err != nil {
		return nil, err
	}

	util.VentasRejectedTotal.Inc()
	s.logger.Info("Venta rejected", zap.Int64("venta_id", ventaID))

	if s.events != nil {
		event := &models.VentaRejectedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeVentaRejected, actor.ID),
			VentaID:   venta.ID,
			ItemID:    venta.ItemID,
		}
		if err := s.events.PublishVentaRejected(ctx, event); err != nil {
			s.logger.Error("Failed to publish VentaRejected event", zap.Error(err))
		}
	}
	return venta, nil
}

// GetVenta fetches one venta within the actor's visibility scope.
func (s *VentaService) GetVenta(ctx context.Context, actor models.Actor, id int64) (*models.Venta, error) {
	if !actor.IsAuthenticated() {
		return nil, apperr.New(apperr.Unauthorized, "authentication required")
	}
	return s.getOwnVenta(ctx, actor, id)
}

// ListVentas lists ventas within the actor's visibility scope. The
// vendedor/estado filters only take effect for privileged callers.
func (s *VentaService) ListVentas(ctx context.Context, actor models.Actor, filter store.VentaFilter) ([]models.Venta, error) {
	if !actor.IsAuthenticated() {
		return nil, apperr.New(apperr.Unauthorized, "authentication required")
	}

	ventas, err := s.store.ListVentas(ctx, models.VisibilityFor(actor), filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "failed to list ventas")
	}
	return ventas, nil
}

func (s *VentaService) getOwnVenta(ctx context.Context, actor models.Actor, id int64) (*models.Venta, error) {
	venta, err := s.store.GetVenta(ctx, id, models.VisibilityFor(actor))
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, err, "failed to get venta %d", id)
	}
	if venta == nil {
		return nil, apperr.New(apperr.NotFound, "venta %d not found", id)
	}
	return venta, nil
}

func validateVentaRequest(req *CreateVentaRequest) error {
	if req.ItemID == 0 {
		return apperr.New(apperr.Validation, "item_id is required")
	}
	if !req.Precio.IsPositive() {
		return apperr.New(apperr.Validation, "precio must be positive, got %s", req.Precio)
	}
	if strings.TrimSpace(req.Moneda) == "" {
		return apperr.New(apperr.Validation, "moneda is required")
	}
	if req.FechaVenta.IsZero() {
		return apperr.New(apperr.Validation, "fecha_venta is required")
	}
	if strings.TrimSpace(req.EvidenciaURL) == "" {
		return apperr.New(apperr.Validation, "evidencia_url is required")
	}
	return nil
}
