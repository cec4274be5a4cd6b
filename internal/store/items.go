package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inventario-service/internal/apperr"
	"inventario-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `id, identificador, categoria, subcategoria, objeto, condicion,
	anio, rack, nivel, comentarios, estado, asignado_a, asignado_en,
	creado_por, creado_en, actualizado_en`

// InsertItem creates a single item row.
func (s *Store) InsertItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (identificador, categoria, subcategoria, objeto, condicion,
			anio, rack, nivel, comentarios, estado, creado_por)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, creado_en, actualizado_en`

	return s.db.QueryRowxContext(ctx, query,
		item.Identificador, item.Categoria, item.Subcategoria, item.Objeto,
		item.Condicion, item.Anio, item.Rack, item.Nivel, item.Comentarios,
		item.Estado, item.CreadoPor,
	).Scan(&item.ID, &item.CreadoEn, &item.ActualizadoEn)
}

// BulkInsertItems inserts a batch of items in one transaction with a
// single multi-row statement. All rows commit or none do.
func (s *Store) BulkInsertItems(ctx context.Context, items []models.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO items (identificador, categoria, subcategoria, objeto, condicion,
			anio, rack, nivel, comentarios, estado, creado_por)
		VALUES (:identificador, :categoria, :subcategoria, :objeto, :condicion,
			:anio, :rack, :nivel, :comentarios, :estado, :creado_por)`,
		items)
	if err != nil {
		return 0, fmt.Errorf("bulk insert failed: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk insert: %w", err)
	}
	return int(count), nil
}

// GetItem retrieves an item within the caller's visibility scope.
// Returns nil when the row does not exist or is out of scope, so a
// seller cannot probe for other sellers' items.
func (s *Store) GetItem(ctx context.Context, id int64, vis models.Visibility) (*models.Item, error) {
	var item models.Item
	var err error
	if vis.All {
		err = s.db.GetContext(ctx, &item,
			`SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
	} else {
		err = s.db.GetContext(ctx, &item,
			`SELECT `+itemColumns+` FROM items WHERE id = $1 AND asignado_a = $2`,
			id, vis.VendedorID)
	}
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemFilter narrows item listings and exports. Nil fields mean no
// filter.
type ItemFilter struct {
	Estado    *string
	Categoria *string
	AsignadoA *int64
}

// ListItems retrieves items within the caller's visibility scope,
// narrowed by the filter. The visibility clause always wins: a seller's
// scope is pinned to their own rows regardless of the filter.
func (s *Store) ListItems(ctx context.Context, vis models.Visibility, filter ItemFilter) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	args := []interface{}{}

	add := func(col string, val interface{}) {
		args = append(args, val)
		query += fmt.Sprintf(" AND %s = $%d", col, len(args))
	}

	if !vis.All {
		add("asignado_a", vis.VendedorID)
	} else if filter.AsignadoA != nil {
		add("asignado_a", *filter.AsignadoA)
	}
	if filter.Estado != nil {
		add("estado", *filter.Estado)
	}
	if filter.Categoria != nil {
		add("categoria", *filter.Categoria)
	}
	query += " ORDER BY id"

	var items []models.Item
	err := s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// UpdateItem applies a partial update and returns the number of rows
// matched. Nil patch fields are left untouched.
func (s *Store) UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (int64, error) {
	sets := make([]string, 0, 12)
	args := make([]interface{}, 0, 13)

	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Identificador != nil {
		add("identificador", *patch.Identificador)
	}
	if patch.Categoria != nil {
		add("categoria", *patch.Categoria)
	}
	if patch.Subcategoria != nil {
		add("subcategoria", *patch.Subcategoria)
	}
	if patch.Objeto != nil {
		add("objeto", *patch.Objeto)
	}
	if patch.Condicion != nil {
		add("condicion", *patch.Condicion)
	}
	if patch.Anio != nil {
		add("anio", *patch.Anio)
	}
	if patch.Rack != nil {
		add("rack", *patch.Rack)
	}
	if patch.Nivel != nil {
		add("nivel", *patch.Nivel)
	}
	if patch.Comentarios != nil {
		add("comentarios", *patch.Comentarios)
	}
	if patch.Estado != nil {
		add("estado", *patch.Estado)
	}
	if patch.AsignadoA != nil {
		add("asignado_a", *patch.AsignadoA)
	}
	if patch.AsignadoEn != nil {
		add("asignado_en", *patch.AsignadoEn)
	}

	if len(sets) == 0 {
		return 0, nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE items SET %s, actualizado_en = NOW() WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AssignItems assigns the eligible subset of ids to a seller in one
// conditioned update and returns the ids actually assigned.
// Eligibility is re-checked at write time: only items currently
// available or already assigned survive the filter.
func (s *Store) AssignItems(ctx context.Context, ids []int64, vendedorID int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		UPDATE items
		SET estado = ?, asignado_a = ?, asignado_en = NOW(), actualizado_en = NOW()
		WHERE id IN (?) AND estado IN (?)
		RETURNING id`,
		models.ItemEstadoAssigned, vendedorID, ids,
		[]string{models.ItemEstadoAvailable, models.ItemEstadoAssigned})
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var assigned []int64
	if err := s.db.SelectContext(ctx, &assigned, query, args...); err != nil {
		return nil, err
	}
	return assigned, nil
}

// UnassignItems returns the eligible subset of ids to available.
// Only items currently assigned survive the filter; calling it again
// on the same ids is a no-op.
func (s *Store) UnassignItems(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		UPDATE items
		SET estado = ?, asignado_a = NULL, asignado_en = NULL, actualizado_en = NOW()
		WHERE id IN (?) AND estado = ?
		RETURNING id`,
		models.ItemEstadoAvailable, ids, models.ItemEstadoAssigned)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var unassigned []int64
	if err := s.db.SelectContext(ctx, &unassigned, query, args...); err != nil {
		return nil, err
	}
	return unassigned, nil
}

// DeleteItem hard-deletes an item and returns the rows removed.
func (s *Store) DeleteItem(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SplitItem replaces an item with one copy per supplied name inside a
// single transaction, locking the source row so a concurrent reader
// never observes the source and its copies together. The copies keep
// every descriptive field except objeto and start unassigned.
func (s *Store) SplitItem(ctx context.Context, id int64, objetos []string) ([]models.Item, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var src models.Item
	err = tx.GetContext(ctx, &src,
		`SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, id)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "item %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock item: %w", err)
	}

	if !models.Splittable(src.Estado) {
		return nil, apperr.New(apperr.InvalidState,
			"item %d cannot be split while in estado %s", id, src.Estado)
	}

	copies := make([]models.Item, 0, len(objetos))
	for _, objeto := range objetos {
		objeto := objeto
		var copy models.Item
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO items (identificador, categoria, subcategoria, objeto, condicion,
				anio, rack, nivel, comentarios, estado, creado_por)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+itemColumns,
			src.Identificador, src.Categoria, src.Subcategoria, &objeto,
			src.Condicion, src.Anio, src.Rack, src.Nivel, src.Comentarios,
			models.ItemEstadoAvailable, src.CreadoPor,
		).StructScan(&copy)
		if err != nil {
			return nil, fmt.Errorf("failed to insert split copy: %w", err)
		}
		copies = append(copies, copy)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to delete source item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit split: %w", err)
	}
	return copies, nil
}
