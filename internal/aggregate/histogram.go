package aggregate

import "OAIHealthCheck/internal/domain"

// Bin is one equal-width histogram bucket. Lower is inclusive; Upper is
// exclusive except for the last bin.
type Bin struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
	Count int     `json:"count" yaml:"count"`
}

// Histogram bins the numeric cells of column into binCount equal-width bins
// over the observed range. Missing or non-numeric cells are skipped.
func Histogram(view domain.View, column string, binCount int) []Bin {
	if binCount < 1 {
		binCount = 1
	}

	var values []float64
	for _, row := range view.Rows() {
		if n, ok := row.Number(column); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(binCount)
	bins := make([]Bin, binCount)
	for i := range bins {
		bins[i].Lower = lo + float64(i)*width
		bins[i].Upper = lo + float64(i+1)*width
	}
	bins[binCount-1].Upper = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= binCount {
			i = binCount - 1
		}
		bins[i].Count++
	}
	return bins
}
