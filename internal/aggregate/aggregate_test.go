package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OAIHealthCheck/internal/domain"
)

func view(columns []string, rows ...map[string]string) domain.View {
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = domain.NewRow(r)
	}
	return domain.NewView(columns, out)
}

func TestCompleteness(t *testing.T) {
	t.Parallel()

	v := view([]string{"identifier", "title", "description", "rights"},
		map[string]string{"identifier": "1", "title": "A", "description": "", "rights": "cc"},
		map[string]string{"identifier": "2", "title": "B", "description": "x"},
		map[string]string{"identifier": "3", "title": "C"},
		map[string]string{"identifier": "4", "title": "D", "description": "y"},
		map[string]string{"identifier": "5", "title": "E", "description": "z"},
	)

	report := Completeness(v, []string{"identifier"})
	require.Len(t, report.Fields, 3)

	byField := map[string]FieldCompleteness{}
	for _, f := range report.Fields {
		byField[f.Field] = f
	}
	assert.Equal(t, 100.0, byField["title"].Percent)
	assert.Equal(t, BandOptimal, byField["title"].Band)
	assert.InDelta(t, 80.0, byField["description"].Percent, 1e-9, "empty string counts as present")
	assert.Equal(t, BandAcceptable, byField["description"].Band)
	assert.InDelta(t, 20.0, byField["rights"].Percent, 1e-9)
	assert.Equal(t, BandCritical, byField["rights"].Band)

	assert.Len(t, report.InBand(BandCritical), 1)
	assert.Equal(t, "title", report.Fields[0].Field, "column order is kept")
}

func TestCompletenessEmptyView(t *testing.T) {
	t.Parallel()

	report := Completeness(view([]string{"title"}), nil)
	require.Len(t, report.Fields, 1)
	assert.Equal(t, 0.0, report.Fields[0].Percent)
	assert.Equal(t, BandCritical, report.Fields[0].Band)
}

func TestBandsPartition(t *testing.T) {
	t.Parallel()

	for p := 0.0; p <= 100.0; p += 0.25 {
		hits := 0
		for _, b := range Bands {
			if BandFor(p) == b {
				hits++
			}
		}
		assert.Equal(t, 1, hits, "percent %v", p)
	}
	assert.Equal(t, BandCritical, BandFor(79.999))
	assert.Equal(t, BandAcceptable, BandFor(80))
	assert.Equal(t, BandAcceptable, BandFor(99.99))
	assert.Equal(t, BandOptimal, BandFor(100))
}

func TestFrequency(t *testing.T) {
	t.Parallel()

	v := view([]string{"type"},
		map[string]string{"type": "info:eu-repo/semantics/article; Article"},
	)
	assert.Equal(t, []Count{{Value: "Article", Count: 1}}, Frequency(v, "type", 5))

	v = view([]string{"subject"},
		map[string]string{"subject": "physics; http://id.loc.gov/x; math"},
		map[string]string{"subject": "math; biology"},
		map[string]string{"subject": "physics"},
		map[string]string{},
		map[string]string{"subject": "chemistry"},
	)
	got := Frequency(v, "subject", 0)
	assert.Equal(t, []Count{
		{Value: "physics", Count: 2},
		{Value: "math", Count: 2},
		{Value: "biology", Count: 1},
		{Value: "chemistry", Count: 1},
	}, got)

	assert.Len(t, Frequency(v, "subject", 3), 3)
	assert.Empty(t, Frequency(v, "missing", 3))
}

func TestYearTimeline(t *testing.T) {
	t.Parallel()

	v := view([]string{domain.ColYear},
		map[string]string{domain.ColYear: "2020"},
		map[string]string{domain.ColYear: domain.NoData},
		map[string]string{domain.ColYear: "1999"},
		map[string]string{domain.ColYear: "2020"},
	)
	assert.Equal(t, []Count{
		{Value: "1999", Count: 1},
		{Value: "2020", Count: 2},
		{Value: domain.NoData, Count: 1},
	}, YearTimeline(v))
}

func TestHistogram(t *testing.T) {
	t.Parallel()

	v := view([]string{domain.ColCountCreators},
		map[string]string{domain.ColCountCreators: "0"},
		map[string]string{domain.ColCountCreators: "1"},
		map[string]string{domain.ColCountCreators: "2"},
		map[string]string{domain.ColCountCreators: "4"},
		map[string]string{domain.ColCountCreators: "n/a"},
		map[string]string{},
	)

	bins := Histogram(v, domain.ColCountCreators, 2)
	require.Len(t, bins, 2)
	assert.Equal(t, Bin{Lower: 0, Upper: 2, Count: 2}, bins[0])
	assert.Equal(t, Bin{Lower: 2, Upper: 4, Count: 2}, bins[1])

	flat := view([]string{"n"}, map[string]string{"n": "3"}, map[string]string{"n": "3"})
	bins = Histogram(flat, "n", 1)
	require.Len(t, bins, 1)
	assert.Equal(t, 2, bins[0].Count)
	assert.Equal(t, 2.5, bins[0].Lower)

	assert.Nil(t, Histogram(view([]string{"n"}), "n", 5))
}

func TestHistogramSkipsNonFiniteCells(t *testing.T) {
	t.Parallel()

	v := view([]string{"n"},
		map[string]string{"n": "1"},
		map[string]string{"n": "NaN"},
		map[string]string{"n": "3"},
		map[string]string{"n": "Inf"},
		map[string]string{"n": "-Inf"},
	)

	bins := Histogram(v, "n", 2)
	require.Len(t, bins, 2)
	assert.Equal(t, Bin{Lower: 1, Upper: 2, Count: 1}, bins[0])
	assert.Equal(t, Bin{Lower: 2, Upper: 3, Count: 1}, bins[1])

	assert.Nil(t, Histogram(view([]string{"n"}, map[string]string{"n": "NaN"}), "n", 3))
}

func TestVitalsAndTriage(t *testing.T) {
	t.Parallel()

	v := view(nil,
		map[string]string{"identifier": "1", "title": "A", domain.ColYear: "2020", "description": "d", domain.ColCountCreators: "2"},
		map[string]string{"identifier": "2", domain.ColYear: domain.NoData, "description": "d", domain.ColCountCreators: "1"},
		map[string]string{"identifier": "3", "title": "C", domain.ColYear: "2021", "description": "  ", domain.ColCountCreators: "1"},
		map[string]string{"identifier": "4", "title": "D", domain.ColYear: "2021", "description": "d", domain.ColCountCreators: "0"},
	)

	vs := Vitals(v)
	assert.Equal(t, VitalSigns{Records: 4, MissingTitles: 1, MissingDates: 1, AvgCreators: 1}, vs)

	triage := Triage(v, 0)
	ids := make([]string, len(triage))
	for i, r := range triage {
		ids[i] = r.Identifier()
	}
	assert.Equal(t, []string{"2", "3", "4"}, ids)
	assert.Len(t, Triage(v, 2), 2)

	assert.Equal(t, VitalSigns{}, Vitals(view(nil)))
}
