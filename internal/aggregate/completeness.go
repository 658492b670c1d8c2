// Package aggregate computes data-quality metrics over a view of the sample.
package aggregate

import "OAIHealthCheck/internal/domain"

// Band classifies how often a field is present.
type Band string

const (
	BandCritical   Band = "critical"
	BandAcceptable Band = "acceptable"
	BandOptimal    Band = "optimal"
)

// Bands lists every band from worst to best.
var Bands = []Band{BandCritical, BandAcceptable, BandOptimal}

const acceptableFloor = 80.0

// BandFor places a percentage in exactly one band.
func BandFor(percent float64) Band {
	switch {
	case percent >= 100:
		return BandOptimal
	case percent >= acceptableFloor:
		return BandAcceptable
	default:
		return BandCritical
	}
}

// FieldCompleteness is the presence rate of one column.
type FieldCompleteness struct {
	Field   string  `json:"field" yaml:"field"`
	Percent float64 `json:"percent" yaml:"percent"`
	Band    Band    `json:"band" yaml:"band"`
}

// CompletenessReport lists presence rates in column order.
type CompletenessReport struct {
	Fields []FieldCompleteness `json:"fields" yaml:"fields"`
}

// InBand returns the fields that fall into b.
func (r CompletenessReport) InBand(b Band) []FieldCompleteness {
	var out []FieldCompleteness
	for _, f := range r.Fields {
		if f.Band == b {
			out = append(out, f)
		}
	}
	return out
}

// Completeness computes, for each column not in excluded, the share of rows
// carrying the cell. Empty strings count as present. An empty view yields 0%.
func Completeness(view domain.View, excluded []string) CompletenessReport {
	skip := make(map[string]bool, len(excluded))
	for _, c := range excluded {
		skip[c] = true
	}

	rows := view.Rows()
	var report CompletenessReport
	for _, col := range view.Columns() {
		if skip[col] {
			continue
		}

		var percent float64
		if len(rows) > 0 {
			present := 0
			for _, row := range rows {
				if row.Has(col) {
					present++
				}
			}
			percent = float64(present) / float64(len(rows)) * 100
		}

		report.Fields = append(report.Fields, FieldCompleteness{
			Field:   col,
			Percent: percent,
			Band:    BandFor(percent),
		})
	}
	return report
}
