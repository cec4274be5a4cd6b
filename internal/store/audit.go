package store

import (
	"context"

	"inventario-service/internal/models"
)

// InsertAuditEntry appends one audit row. Idempotent per event id:
// replayed events report inserted=false and write nothing.
func (s *Store) InsertAuditEntry(ctx context.Context, entry *models.AuditEntry) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO auditoria (event_id, event_type, actor_id, entity_id, payload, ocurrido_en)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`,
		entry.EventID, entry.EventType, entry.ActorID, entry.EntityID,
		entry.Payload, entry.OcurridoEn)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListAuditEntries returns the most recent audit rows, newest first.
func (s *Store) ListAuditEntries(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT event_id, event_type, actor_id, entity_id, payload, ocurrido_en
		FROM auditoria ORDER BY ocurrido_en DESC LIMIT $1`, limit)
	return entries, err
}
