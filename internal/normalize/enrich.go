package normalize

import "OAIHealthCheck/internal/domain"

// DerivedColumns are appended to a sample by Enrich.
var DerivedColumns = []string{domain.ColYear, domain.ColFormat, domain.ColType, domain.ColLanguage}

// Enrich computes the derived columns once. An already enriched sample is
// returned unchanged.
func Enrich(sample domain.Sample) domain.Sample {
	if sample.Enriched() {
		return sample
	}

	columns := sample.Columns()
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, c := range DerivedColumns {
		if !seen[c] {
			columns = append(columns, c)
		}
	}

	base := sample.Rows()
	rows := make([]domain.Row, len(base))
	for i, row := range base {
		rows[i] = row.With(map[string]string{
			domain.ColYear:     ExtractYear(row.Get(domain.FieldDate)),
			domain.ColFormat:   ClassifyFormat(row.Get(domain.FieldFormat)),
			domain.ColType:     PrimaryType(row.Get(domain.FieldType)),
			domain.ColLanguage: PrimaryLanguage(row.Get(domain.FieldLanguage)),
		})
	}

	return sample.Enrich(columns, rows)
}
