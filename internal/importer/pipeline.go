package importer

import (
	"context"
	"strings"
	"time"

	"inventario-service/internal/apperr"
	"inventario-service/internal/models"
	"inventario-service/internal/util"

	"go.uber.org/zap"
)

// DefaultMaxRows caps one import batch. Rows past the cap are
// truncated silently, not reported as errors.
const DefaultMaxRows = 5000

// ItemInserter is the slice of the store the pipeline needs.
type ItemInserter interface {
	BulkInsertItems(ctx context.Context, items []models.Item) (int, error)
}

// Result reports one finished import: how many rows committed and
// which rows were rejected during normalization.
type Result struct {
	SuccessCount int        `json:"success_count"`
	Errors       []RowError `json:"errors"`
}

// Pipeline normalizes a batch of raw rows and performs a single bulk
// insert of the valid ones. Row-level failures accumulate in the
// result; a bulk insert failure fails the whole import with nothing
// committed.
type Pipeline struct {
	store   ItemInserter
	maxRows int
	logger  *zap.Logger
}

func NewPipeline(store ItemInserter, maxRows int) *Pipeline {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Pipeline{
		store:   store,
		maxRows: maxRows,
		logger:  util.GetLogger(),
	}
}

// Run ingests rows in input order on behalf of creador. fila numbers
// are offset by the conceptual header row: data row i (0-indexed)
// reports as fila i+2.
func (p *Pipeline) Run(ctx context.Context, rows []map[string]string, creador int64) (*Result, error) {
	start := time.Now()
	defer func() {
		util.ImportBatchLatency.Observe(time.Since(start).Seconds())
	}()

	if len(rows) > p.maxRows {
		p.logger.Warn("Import batch truncated",
			zap.Int("received", len(rows)),
			zap.Int("max", p.maxRows))
		rows = rows[:p.maxRows]
	}

	result := &Result{Errors: []RowError{}}
	records := make([]models.Item, 0, len(rows))

	for i, raw := range rows {
		item, err := NormalizeRow(raw)
		if err != nil {
			util.ImportRowErrorsTotal.WithLabelValues(errorReason(err)).Inc()
			result.Errors = append(result.Errors, RowError{
				Fila:     i + 2,
				Mensaje:  err.Error(),
				Original: raw,
			})
			continue
		}

		item.Estado = models.ItemEstadoAvailable
		item.CreadoPor = &creador
		records = append(records, *item)
	}

	count, err := p.store.BulkInsertItems(ctx, records)
	if err != nil {
		// No per-row attribution is possible for this failure class;
		// the batch rolled back as a whole.
		return nil, apperr.Wrap(apperr.Storage, err, "bulk insert of %d rows failed", len(records))
	}

	util.ItemsImportedTotal.Add(float64(count))
	result.SuccessCount = count

	p.logger.Info("Import batch finished",
		zap.Int64("creador", creador),
		zap.Int("inserted", count),
		zap.Int("rejected", len(result.Errors)))
	return result, nil
}

func errorReason(err error) string {
	if strings.HasPrefix(err.Error(), "cannot convert level") {
		return "nivel_parse"
	}
	return "empty_row"
}
