// Package filter derives views of a sample from facet selections.
package filter

import (
	"sort"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/normalize"
)

// Apply keeps the rows matching every facet of spec. Within a facet any
// selected value matches; an empty facet matches every row. The sample is
// enriched first if needed and never modified.
func Apply(sample domain.Sample, spec domain.FilterSpec) domain.View {
	sample = normalize.Enrich(sample)

	var kept []domain.Row
	for _, row := range sample.Rows() {
		if Match(row, spec) {
			kept = append(kept, row)
		}
	}
	return domain.NewView(sample.Columns(), kept)
}

// Match reports whether a single enriched row satisfies spec.
func Match(row domain.Row, spec domain.FilterSpec) bool {
	if !facetMatch(spec.Years, row, domain.ColYear) ||
		!facetMatch(spec.Types, row, domain.ColType) ||
		!facetMatch(spec.Languages, row, domain.ColLanguage) ||
		!facetMatch(spec.Formats, row, domain.ColFormat) {
		return false
	}
	if spec.OnlyMissingDescription && !row.Blank(domain.FieldDescription) {
		return false
	}
	if spec.OnlyMissingRights && !row.Blank(domain.FieldRights) {
		return false
	}
	return true
}

func facetMatch(selected domain.Set, row domain.Row, col string) bool {
	if len(selected) == 0 {
		return true
	}
	return selected.Contains(row.Get(col).Or(domain.NoData))
}

// FacetValues lists the selectable values of every facet.
type FacetValues struct {
	Years     []string `json:"years" yaml:"years"`
	Types     []string `json:"types" yaml:"types"`
	Languages []string `json:"languages" yaml:"languages"`
	Formats   []string `json:"formats" yaml:"formats"`
}

// Facets collects distinct enriched values. Years are ascending with the
// sentinel last; the other facets are ordered by descending frequency.
func Facets(sample domain.Sample) FacetValues {
	rows := normalize.Enrich(sample).Rows()

	years := byFrequency(rows, domain.ColYear)
	sort.SliceStable(years, func(i, j int) bool {
		if years[i] == domain.NoData || years[j] == domain.NoData {
			return years[j] == domain.NoData && years[i] != domain.NoData
		}
		return years[i] < years[j]
	})

	return FacetValues{
		Years:     years,
		Types:     byFrequency(rows, domain.ColType),
		Languages: byFrequency(rows, domain.ColLanguage),
		Formats:   byFrequency(rows, domain.ColFormat),
	}
}

func byFrequency(rows []domain.Row, col string) []string {
	counts := map[string]int{}
	var order []string
	for _, row := range rows {
		v := row.Get(col).Or(domain.NoData)
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
