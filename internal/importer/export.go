package importer

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"inventario-service/internal/models"
)

// ExportHeader is the fixed column order of the CSV export. Importing
// an exported file round-trips every descriptive column; estado,
// item_id and creado_en are informational and ignored on import.
var ExportHeader = []string{
	"identificador", "categoria", "subcategoria", "objeto", "condicion",
	"año", "rack", "nivel", "comentarios", "estado", "item_id", "creado_en",
}

// WriteCSV encodes items in export format. encoding/csv applies
// standard quoting: fields containing commas, quotes or newlines are
// wrapped in double quotes with inner quotes doubled. Null fields
// render as empty strings.
func WriteCSV(w io.Writer, items []models.Item) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ExportHeader); err != nil {
		return err
	}

	for _, item := range items {
		record := []string{
			deref(item.Identificador),
			deref(item.Categoria),
			deref(item.Subcategoria),
			deref(item.Objeto),
			deref(item.Condicion),
			deref(item.Anio),
			deref(item.Rack),
			derefInt(item.Nivel),
			deref(item.Comentarios),
			item.Estado,
			strconv.FormatInt(item.ID, 10),
			item.CreadoEn.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
