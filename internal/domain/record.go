package domain

import (
	"math"
	"strconv"
	"strings"
)

// Dublin Core field names used by the analysis.
const (
	FieldTitle       = "title"
	FieldDate        = "date"
	FieldCreator     = "creator"
	FieldSubject     = "subject"
	FieldDescription = "description"
	FieldType        = "type"
	FieldLanguage    = "language"
	FieldFormat      = "format"
	FieldRights      = "rights"
)

// Fixed and derived column names of a Row.
const (
	ColIdentifier    = "identifier"
	ColDatestamp     = "datestamp"
	ColCountCreators = "count_creators"
	ColCountSubjects = "count_subjects"
	ColYear          = "year_extracted"
	ColFormat        = "clean_format"
	ColType          = "primary_type"
	ColLanguage      = "primary_lang"
)

// ValueSeparator joins multi-valued fields into one cell.
const ValueSeparator = "; "

// Field is one metadata element with its ordered values.
type Field struct {
	Name   string
	Values []Value
}

// RawRecord is a harvested record before flattening.
type RawRecord struct {
	Identifier string
	Datestamp  string
	Metadata   []Field
}

// Values returns the values of the named field, or nil when the field is absent.
func (r RawRecord) Values(name string) []Value {
	for _, f := range r.Metadata {
		if f.Name == name {
			return f.Values
		}
	}
	return nil
}

// Row is the sparse tabular projection of one record. A column that is not
// set is missing, which is different from an empty cell.
type Row struct {
	cells map[string]string
}

// NewRow copies cells into a Row.
func NewRow(cells map[string]string) Row {
	c := make(map[string]string, len(cells))
	for k, v := range cells {
		c[k] = v
	}
	return Row{cells: c}
}

// Get returns the cell for col as an optional value.
func (r Row) Get(col string) Value {
	v, ok := r.cells[col]
	if !ok {
		return None()
	}
	return Some(v)
}

// Has reports whether the row carries col.
func (r Row) Has(col string) bool {
	_, ok := r.cells[col]
	return ok
}

// Blank reports whether col is missing or holds only whitespace.
func (r Row) Blank(col string) bool {
	v, ok := r.cells[col]
	return !ok || strings.TrimSpace(v) == ""
}

// Number parses col as a finite float. NaN and infinities are rejected.
func (r Row) Number(col string) (float64, bool) {
	v, ok := r.cells[col]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Int parses col as an integer, returning 0 when missing or malformed.
func (r Row) Int(col string) int {
	n, err := strconv.Atoi(r.cells[col])
	if err != nil {
		return 0
	}
	return n
}

// Identifier returns the record identifier.
func (r Row) Identifier() string {
	return r.cells[ColIdentifier]
}

// With returns a copy of the row with the given cells set.
func (r Row) With(values map[string]string) Row {
	c := make(map[string]string, len(r.cells)+len(values))
	for k, v := range r.cells {
		c[k] = v
	}
	for k, v := range values {
		c[k] = v
	}
	return Row{cells: c}
}

// Len is the number of present cells.
func (r Row) Len() int {
	return len(r.cells)
}
