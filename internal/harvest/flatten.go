package harvest

import (
	"strconv"
	"strings"

	"OAIHealthCheck/internal/domain"
)

// Flatten projects a record onto a sparse row. Absent values are dropped
// before joining and a field left with no values gets no cell. The creator
// and subject counts use the original value sequences.
func Flatten(rec domain.RawRecord) domain.Row {
	cells := map[string]string{
		domain.ColIdentifier: rec.Identifier,
		domain.ColDatestamp:  rec.Datestamp,
	}

	kept := map[string][]string{}
	var creators, subjects int
	for _, field := range rec.Metadata {
		switch field.Name {
		case domain.FieldCreator:
			creators += len(field.Values)
		case domain.FieldSubject:
			subjects += len(field.Values)
		}
		col := ColumnName(field.Name)
		for _, v := range field.Values {
			if text, ok := v.Text(); ok {
				kept[col] = append(kept[col], text)
			}
		}
	}
	for name, values := range kept {
		cells[name] = strings.Join(values, domain.ValueSeparator)
	}

	cells[domain.ColCountCreators] = strconv.Itoa(creators)
	cells[domain.ColCountSubjects] = strconv.Itoa(subjects)
	return domain.NewRow(cells)
}

// ColumnName maps a metadata field to its row column. Fields that collide
// with the header and count columns (dc:identifier, for one) get a "dc_" prefix.
func ColumnName(field string) string {
	switch field {
	case domain.ColIdentifier, domain.ColDatestamp, domain.ColCountCreators, domain.ColCountSubjects:
		return "dc_" + field
	}
	return field
}

// columnSet accumulates the union of metadata columns in first-seen order.
type columnSet struct {
	seen  map[string]bool
	order []string
}

func newColumnSet() *columnSet {
	return &columnSet{seen: map[string]bool{}}
}

func (c *columnSet) observe(rec domain.RawRecord, row domain.Row) {
	for _, field := range rec.Metadata {
		col := ColumnName(field.Name)
		if c.seen[col] || !row.Has(col) {
			continue
		}
		c.seen[col] = true
		c.order = append(c.order, col)
	}
}

func (c *columnSet) columns() []string {
	cols := make([]string, 0, len(c.order)+4)
	cols = append(cols, domain.ColIdentifier, domain.ColDatestamp)
	cols = append(cols, c.order...)
	return append(cols, domain.ColCountCreators, domain.ColCountSubjects)
}
