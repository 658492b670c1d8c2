package aggregate

import (
	"sort"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/normalize"
)

// Count is one entry of a frequency table.
type Count struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// Frequency splits every cell of column on ';', drops provenance noise and
// counts tokens. Ties keep first-seen order. topN <= 0 keeps every entry.
func Frequency(view domain.View, column string, topN int) []Count {
	index := map[string]int{}
	var counts []Count

	for _, row := range view.Rows() {
		cell, ok := row.Get(column).Text()
		if !ok {
			continue
		}
		for _, token := range normalize.SplitTokens(cell) {
			if normalize.IsNoise(token) {
				continue
			}
			if i, seen := index[token]; seen {
				counts[i].Count++
				continue
			}
			index[token] = len(counts)
			counts = append(counts, Count{Value: token, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if topN > 0 && len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

// YearTimeline counts rows per extracted year, ascending, with the
// sentinel bucket last.
func YearTimeline(view domain.View) []Count {
	index := map[string]int{}
	var counts []Count
	for _, row := range view.Rows() {
		year := row.Get(domain.ColYear).Or(domain.NoData)
		if i, ok := index[year]; ok {
			counts[i].Count++
			continue
		}
		index[year] = len(counts)
		counts = append(counts, Count{Value: year, Count: 1})
	}

	sort.Slice(counts, func(i, j int) bool {
		a, b := counts[i].Value, counts[j].Value
		if a == domain.NoData || b == domain.NoData {
			return b == domain.NoData && a != domain.NoData
		}
		return a < b
	})
	return counts
}
