package store

import "context"

// Schema bootstrap. Statements are idempotent so the service can run
// them on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS usuarios (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		rol TEXT NOT NULL DEFAULT 'pendiente',
		creado_en TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGSERIAL PRIMARY KEY,
		identificador TEXT,
		categoria TEXT,
		subcategoria TEXT,
		objeto TEXT,
		condicion TEXT,
		anio TEXT,
		rack TEXT,
		nivel INTEGER,
		comentarios TEXT,
		estado TEXT NOT NULL DEFAULT 'available',
		asignado_a BIGINT REFERENCES usuarios(id),
		asignado_en TIMESTAMPTZ,
		creado_por BIGINT REFERENCES usuarios(id),
		creado_en TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		actualizado_en TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_asignado_a ON items(asignado_a)`,
	`CREATE INDEX IF NOT EXISTS idx_items_estado ON items(estado)`,
	`CREATE TABLE IF NOT EXISTS ventas (
		id BIGSERIAL PRIMARY KEY,
		item_id BIGINT NOT NULL REFERENCES items(id),
		vendedor_id BIGINT NOT NULL REFERENCES usuarios(id),
		precio NUMERIC(12,2) NOT NULL,
		moneda TEXT NOT NULL,
		fecha_venta DATE NOT NULL,
		canal TEXT,
		evidencia_url TEXT NOT NULL,
		notas TEXT,
		estado TEXT NOT NULL DEFAULT 'pending',
		aprobado_por BIGINT REFERENCES usuarios(id),
		aprobado_en TIMESTAMPTZ,
		creado_en TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// One pending venta per (item, seller); approved/rejected rows do
	// not count against the constraint.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_ventas_pendiente_unica
		ON ventas(item_id, vendedor_id) WHERE estado = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_ventas_vendedor ON ventas(vendedor_id)`,
	`CREATE TABLE IF NOT EXISTS auditoria (
		event_id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		actor_id BIGINT NOT NULL,
		entity_id BIGINT NOT NULL,
		payload JSONB NOT NULL,
		ocurrido_en TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
