// Package writer holds the on-disk format writers the in-memory backend
// delegates to, and the table model they consume.
package writer

import (
	"github.com/go-spatial/geom"
)

// Table is the in-memory representation of a dataset: attribute columns kept
// as text (the source schema is textual CSV) plus one parsed geometry per
// row.
type Table struct {
	// Columns names the attribute columns, geometry excluded.
	Columns []string

	// Rows holds attribute values aligned with Columns, one slice per
	// record.
	Rows [][]string

	// Geoms holds the parsed geometry for each record, aligned with Rows.
	Geoms []geom.Geometry
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Rows)
}
