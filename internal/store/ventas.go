package store

import (
	"context"
	"database/sql"
	"fmt"

	"inventario-service/internal/apperr"
	"inventario-service/internal/models"
)

const ventaColumns = `id, item_id, vendedor_id, precio, moneda, fecha_venta, canal,
	evidencia_url, notas, estado, aprobado_por, aprobado_en, creado_en`

// VentaFilter narrows admin venta listings. Nil fields mean no filter.
type VentaFilter struct {
	VendedorID *int64
	Estado     *string
}

// CreateVentaTx registers a sale and moves its item to sale_pending in
// one transaction. The item row is locked for the duration, so two
// concurrent sales of the same item serialize: the loser finds the
// item no longer in assigned estado and fails without leaving an
// orphan venta behind.
func (s *Store) CreateVentaTx(ctx context.Context, venta *models.Venta) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var item models.Item
	err = tx.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, venta.ItemID)
	if err == sql.ErrNoRows {
		return apperr.New(apperr.NotFound, "item %d not found", venta.ItemID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock item: %w", err)
	}

	var pendienteExists bool
	err = tx.GetContext(ctx, &pendienteExists, `
		SELECT EXISTS(SELECT 1 FROM ventas
			WHERE item_id = $1 AND vendedor_id = $2 AND estado = $3)`,
		venta.ItemID, venta.VendedorID, models.VentaEstadoPending)
	if err != nil {
		return fmt.Errorf("failed to check pending venta: %w", err)
	}
	if pendienteExists {
		return apperr.New(apperr.Duplicate,
			"a pending venta already exists for item %d and seller %d",
			venta.ItemID, venta.VendedorID)
	}

	if item.AsignadoA == nil || *item.AsignadoA != venta.VendedorID {
		return apperr.New(apperr.Unauthorized,
			"item %d is not assigned to seller %d", venta.ItemID, venta.VendedorID)
	}
	if item.Estado != models.ItemEstadoAssigned {
		return apperr.New(apperr.InvalidState,
			"item %d is in estado %s, expected %s",
			venta.ItemID, item.Estado, models.ItemEstadoAssigned)
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO ventas (item_id, vendedor_id, precio, moneda, fecha_venta,
			canal, evidencia_url, notas, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, creado_en`,
		venta.ItemID, venta.VendedorID, venta.Precio, venta.Moneda,
		venta.FechaVenta, venta.Canal, venta.EvidenciaURL, venta.Notas,
		models.VentaEstadoPending,
	).Scan(&venta.ID, &venta.CreadoEn)
	if err != nil {
		return fmt.Errorf("failed to insert venta: %w", err)
	}
	venta.Estado = models.VentaEstadoPending

	// Conditioned transition. The FOR UPDATE lock already serializes
	// writers, but the estado predicate keeps the write honest if the
	// item changed through any other path.
	res, err := tx.ExecContext(ctx, `
		UPDATE items SET estado = $1, actualizado_en = NOW()
		WHERE id = $2 AND estado = $3`,
		models.ItemEstadoSalePending, venta.ItemID, models.ItemEstadoAssigned)
	if err != nil {
		return fmt.Errorf("failed to transition item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Rollback discards the venta inserted above.
		return apperr.New(apperr.Concurrent,
			"item %d changed estado while creating venta", venta.ItemID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit venta: %w", err)
	}
	return nil
}

// ApproveVentaTx approves a pending venta and moves its item to
// sale_approved. Both writes share one transaction so the venta and
// item estados cannot disagree.
func (s *Store) ApproveVentaTx(ctx context.Context, ventaID, aprobadorID int64) (*models.Venta, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var venta models.Venta
	err = tx.GetContext(ctx, &venta,
		`SELECT `+ventaColumns+` FROM ventas WHERE id = $1 FOR UPDATE`, ventaID)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "venta %d not found", ventaID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock venta: %w", err)
	}

	if venta.Estado != models.VentaEstadoPending {
		return nil, apperr.New(apperr.InvalidState,
			"venta %d is %s, only pending ventas can be approved", ventaID, venta.Estado)
	}

	err = tx.QueryRowxContext(ctx, `
		UPDATE ventas SET estado = $1, aprobado_por = $2, aprobado_en = NOW()
		WHERE id = $3
		RETURNING estado, aprobado_por, aprobado_en`,
		models.VentaEstadoApproved, aprobadorID, ventaID,
	).Scan(&venta.Estado, &venta.AprobadoPor, &venta.AprobadoEn)
	if err != nil {
		return nil, fmt.Errorf("failed to approve venta: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE items SET estado = $1, actualizado_en = NOW()
		WHERE id = $2 AND estado = $3`,
		models.ItemEstadoSaleApproved, venta.ItemID, models.ItemEstadoSalePending)
	if err != nil {
		return nil, fmt.Errorf("failed to transition item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperr.New(apperr.Concurrent,
			"item %d is not in sale_pending for venta %d", venta.ItemID, ventaID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}
	return &venta, nil
}

// RejectVentaTx rejects a pending venta and returns its item to
// assigned. Rejection hands the item back to the seller, it does not
// unassign it.
func (s *Store) RejectVentaTx(ctx context.Context, ventaID int64) (*models.Venta, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var venta models.Venta
	err = tx.GetContext(ctx, &venta,
		`SELECT `+ventaColumns+` FROM ventas WHERE id = $1 FOR UPDATE`, ventaID)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "venta %d not found", ventaID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock venta: %w", err)
	}

	if venta.Estado != models.VentaEstadoPending {
		return nil, apperr.New(apperr.InvalidState,
			"venta %d is %s, only pending ventas can be rejected", ventaID, venta.Estado)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE ventas SET estado = $1 WHERE id = $2",
		models.VentaEstadoRejected, ventaID); err != nil {
		return nil, fmt.Errorf("failed to reject venta: %w", err)
	}
	venta.Estado = models.VentaEstadoRejected

	res, err := tx.ExecContext(ctx, `
		UPDATE items SET estado = $1, actualizado_en = NOW()
		WHERE id = $2 AND estado = $3`,
		models.ItemEstadoAssigned, venta.ItemID, models.ItemEstadoSalePending)
	if err != nil {
		return nil, fmt.Errorf("failed to transition item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperr.New(apperr.Concurrent,
			"item %d is not in sale_pending for venta %d", venta.ItemID, ventaID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rejection: %w", err)
	}
	return &venta, nil
}

// GetVenta retrieves a venta within the caller's visibility scope.
// Returns nil when the row does not exist or is out of scope.
func (s *Store) GetVenta(ctx context.Context, id int64, vis models.Visibility) (*models.Venta, error) {
	var venta models.Venta
	var err error
	if vis.All {
		err = s.db.GetContext(ctx, &venta,
			`SELECT `+ventaColumns+` FROM ventas WHERE id = $1`, id)
	} else {
		err = s.db.GetContext(ctx, &venta,
			`SELECT `+ventaColumns+` FROM ventas WHERE id = $1 AND vendedor_id = $2`,
			id, vis.VendedorID)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &venta, nil
}

// ListVentas retrieves ventas within the caller's visibility scope.
// Filters only apply to privileged scopes; a seller's scope is already
// pinned to their own rows.
func (s *Store) ListVentas(ctx context.Context, vis models.Visibility, filter VentaFilter) ([]models.Venta, error) {
	query := `SELECT ` + ventaColumns + ` FROM ventas WHERE 1=1`
	args := []interface{}{}

	add := func(clause string, val interface{}) {
		args = append(args, val)
		query += fmt.Sprintf(" AND %s = $%d", clause, len(args))
	}

	if vis.All {
		if filter.VendedorID != nil {
			add("vendedor_id", *filter.VendedorID)
		}
		if filter.Estado != nil {
			add("estado", *filter.Estado)
		}
	} else {
		add("vendedor_id", vis.VendedorID)
	}
	query += " ORDER BY creado_en DESC"

	var ventas []models.Venta
	err := s.db.SelectContext(ctx, &ventas, query, args...)
	return ventas, err
}
