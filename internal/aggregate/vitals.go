package aggregate

import (
	"math"

	"OAIHealthCheck/internal/domain"
)

// VitalSigns is the headline summary of a view.
type VitalSigns struct {
	Records       int     `json:"records" yaml:"records"`
	MissingTitles int     `json:"missingTitles" yaml:"missingTitles"`
	MissingDates  int     `json:"missingDates" yaml:"missingDates"`
	AvgCreators   float64 `json:"avgCreators" yaml:"avgCreators"`
}

// Vitals counts missing titles and undated rows and averages creators per row.
func Vitals(view domain.View) VitalSigns {
	rows := view.Rows()
	vs := VitalSigns{Records: len(rows)}
	if len(rows) == 0 {
		return vs
	}

	creators := 0
	for _, row := range rows {
		if !row.Has(domain.FieldTitle) {
			vs.MissingTitles++
		}
		if row.Get(domain.ColYear).Or(domain.NoData) == domain.NoData {
			vs.MissingDates++
		}
		creators += row.Int(domain.ColCountCreators)
	}
	vs.AvgCreators = math.Round(float64(creators)/float64(len(rows))*100) / 100
	return vs
}

// Triage returns up to limit rows that lack a year, a description or any creator.
func Triage(view domain.View, limit int) []domain.Row {
	var out []domain.Row
	for _, row := range view.Rows() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if row.Get(domain.ColYear).Or(domain.NoData) == domain.NoData ||
			row.Blank(domain.FieldDescription) ||
			row.Int(domain.ColCountCreators) == 0 {
			out = append(out, row)
		}
	}
	return out
}
