// Package importer implements the bulk CSV ingestion pipeline: pure
// row normalization, the batched import itself, and the matching
// export encoder.
package importer

import (
	"fmt"
	"strconv"
	"strings"

	"inventario-service/internal/models"
)

// Column names as they appear in the import/export header. The year
// column is accepted under both spellings since not every upstream
// tool preserves the ñ.
const (
	ColIdentificador = "identificador"
	ColCategoria     = "categoria"
	ColSubcategoria  = "subcategoria"
	ColObjeto        = "objeto"
	ColCondicion     = "condicion"
	ColAnio          = "año"
	ColAnioASCII     = "anio"
	ColRack          = "rack"
	ColNivel         = "nivel"
	ColComentarios   = "comentarios"
)

// RowError describes one rejected row: its 1-indexed position in the
// source file (header row included, so the first data row is fila 2),
// the reason, and the raw row for the caller to display.
type RowError struct {
	Fila     int               `json:"fila"`
	Mensaje  string            `json:"mensaje"`
	Original map[string]string `json:"original"`
}

// NormalizeRow cleans one raw CSV row into a canonical item record.
// Text columns are trimmed and blank values become nil. The year is
// kept verbatim as text; source data holds values like "1990s". The
// level must parse as an integer. A row with nothing left after
// normalization is rejected.
//
// Pure: no store access, deterministic.
func NormalizeRow(raw map[string]string) (*models.Item, error) {
	item := &models.Item{
		Identificador: cleanText(raw[ColIdentificador]),
		Categoria:     cleanText(raw[ColCategoria]),
		Subcategoria:  cleanText(raw[ColSubcategoria]),
		Objeto:        cleanText(raw[ColObjeto]),
		Condicion:     cleanText(raw[ColCondicion]),
		Rack:          cleanText(raw[ColRack]),
		Comentarios:   cleanText(raw[ColComentarios]),
	}

	anio := raw[ColAnio]
	if anio == "" {
		anio = raw[ColAnioASCII]
	}
	item.Anio = cleanText(anio)

	if nivel := strings.TrimSpace(raw[ColNivel]); nivel != "" {
		n, err := strconv.Atoi(nivel)
		if err != nil {
			return nil, fmt.Errorf("cannot convert level to number: %s", nivel)
		}
		item.Nivel = &n
	}

	if item.Identificador == nil && item.Categoria == nil && item.Subcategoria == nil &&
		item.Objeto == nil && item.Condicion == nil && item.Anio == nil &&
		item.Rack == nil && item.Nivel == nil && item.Comentarios == nil {
		return nil, fmt.Errorf("all columns are empty")
	}

	return item, nil
}

// cleanText trims a raw value and maps blanks to absence.
func cleanText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
