package domain

import (
	"time"

	"github.com/google/uuid"
)

// SampleInfo describes the harvest that produced a Sample.
type SampleInfo struct {
	RunID       uuid.UUID `json:"runId" yaml:"runId"`
	Endpoint    string    `json:"endpoint" yaml:"endpoint"`
	Limit       int       `json:"limit" yaml:"limit"`
	HarvestedAt time.Time `json:"harvestedAt" yaml:"harvestedAt"`
}

// Sample is the capped, ordered result of one harvest. It is never modified
// after construction; derivations return new values.
type Sample struct {
	Info     SampleInfo
	columns  []string
	rows     []Row
	enriched bool
}

// NewSample builds a Sample. columns is the union of every row's cells in first-seen order.
func NewSample(info SampleInfo, columns []string, rows []Row) Sample {
	return Sample{
		Info:    info,
		columns: append([]string(nil), columns...),
		rows:    append([]Row(nil), rows...),
	}
}

// Enrich returns a copy carrying the derived columns and rows.
func (s Sample) Enrich(columns []string, rows []Row) Sample {
	out := NewSample(s.Info, columns, rows)
	out.enriched = true
	return out
}

// Enriched reports whether the derived columns have been computed.
func (s Sample) Enriched() bool {
	return s.enriched
}

// Columns returns the dynamic column order.
func (s Sample) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Rows returns the rows in harvest order.
func (s Sample) Rows() []Row {
	return append([]Row(nil), s.rows...)
}

// Len is the number of rows.
func (s Sample) Len() int {
	return len(s.rows)
}

// Empty reports whether nothing was harvested.
func (s Sample) Empty() bool {
	return len(s.rows) == 0
}

// View returns the unfiltered view.
func (s Sample) View() View {
	return NewView(s.columns, s.rows)
}

// View is a subsequence of a Sample's rows sharing its column order.
type View struct {
	columns []string
	rows    []Row
}

// NewView builds a view.
func NewView(columns []string, rows []Row) View {
	return View{
		columns: append([]string(nil), columns...),
		rows:    append([]Row(nil), rows...),
	}
}

// Columns returns the column order.
func (v View) Columns() []string {
	return append([]string(nil), v.columns...)
}

// Rows returns the rows.
func (v View) Rows() []Row {
	return append([]Row(nil), v.rows...)
}

// Len is the number of rows.
func (v View) Len() int {
	return len(v.rows)
}

// Empty reports whether the view has no rows.
func (v View) Empty() bool {
	return len(v.rows) == 0
}
