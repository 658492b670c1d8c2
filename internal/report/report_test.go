package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OAIHealthCheck/internal/aggregate"
	"OAIHealthCheck/internal/domain"
)

func testSample() domain.Sample {
	cols := []string{"identifier", "datestamp", "title", "date", "creator", "description", "type", "count_creators", "count_subjects"}
	rows := []domain.Row{
		domain.NewRow(map[string]string{
			"identifier": "oai:x:1", "datestamp": "2021-01-01", "title": "Alpha", "date": "2019-05-01",
			"creator": "A; B", "description": "abstract", "type": "info:eu-repo/semantics/article; article",
			"count_creators": "2", "count_subjects": "0",
		}),
		domain.NewRow(map[string]string{
			"identifier": "oai:x:2", "datestamp": "2021-01-02", "title": "Beta",
			"type": "thesis", "count_creators": "0", "count_subjects": "0",
		}),
	}
	return domain.NewSample(domain.SampleInfo{Endpoint: "http://repo/oai", Limit: 10}, cols, rows)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	id := domain.RepositoryIdentity{Name: "Repo", ProtocolVersion: "2.0", RepositoryIdentifier: domain.Some("repo.org")}
	r := Build(&id, testSample(), domain.FilterSpec{}, DefaultOptions())

	assert.False(t, r.Empty())
	require.NotNil(t, r.Identity)
	assert.Equal(t, "repo.org", r.Identity.RepositoryIdentifier)
	assert.Equal(t, 2, r.SampleSize)
	assert.Equal(t, 2, r.Vitals.Records)
	assert.Equal(t, 1, r.Vitals.MissingDates)

	fields := map[string]aggregate.FieldCompleteness{}
	for _, f := range r.Completeness.Fields {
		fields[f.Field] = f
	}
	assert.NotContains(t, fields, "identifier")
	assert.NotContains(t, fields, "count_creators")
	assert.NotContains(t, fields, "year_extracted")
	assert.Equal(t, 100.0, fields["title"].Percent)
	assert.Equal(t, aggregate.BandOptimal, fields["title"].Band)
	assert.Equal(t, 50.0, fields["description"].Percent)
	assert.Equal(t, aggregate.BandCritical, fields["description"].Band)

	require.Len(t, r.Triage, 1)
	assert.Equal(t, "oai:x:2", r.Triage[0].Identifier)
	assert.Equal(t, []string{"no year", "no description", "no creator"}, r.Triage[0].Reasons)

	assert.Equal(t, []aggregate.Count{{Value: "Article", Count: 1}, {Value: "Thesis", Count: 1}}, r.TopTypes)
}

func TestBuildNotices(t *testing.T) {
	t.Parallel()

	empty := domain.NewSample(domain.SampleInfo{Endpoint: "http://repo/oai", Limit: 10}, nil, nil)
	r := Build(nil, empty, domain.FilterSpec{}, DefaultOptions())
	assert.Equal(t, NoticeEmptySample, r.Notice)

	spec := domain.FilterSpec{Years: domain.NewSet("1850")}
	r = Build(nil, testSample(), spec, DefaultOptions())
	assert.Equal(t, NoticeEmptyView, r.Notice)
	assert.Equal(t, []string{"1850"}, r.Filters.Years)
	assert.NotEmpty(t, r.Facets.Years, "facets describe the whole sample")
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	r := Build(nil, testSample(), domain.FilterSpec{}, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.EqualValues(t, 2, decoded["sampleSize"])
	assert.Contains(t, decoded, "completeness")
	assert.NotContains(t, decoded, "notice")
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	r := Build(nil, testSample(), domain.FilterSpec{}, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatYAML))
	assert.Contains(t, buf.String(), "sampleSize: 2")
	assert.Contains(t, buf.String(), "endpoint: http://repo/oai")
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	id := domain.RepositoryIdentity{Name: "Repo"}
	r := Build(&id, testSample(), domain.FilterSpec{}, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatText))
	out := buf.String()
	for _, want := range []string{"Repository", "Completeness", "description", "critical", "Records to fix (1)", "oai:x:2"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderTextNotice(t *testing.T) {
	t.Parallel()

	r := Build(nil, testSample(), domain.FilterSpec{Types: domain.NewSet("Dataset")}, DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatText))
	assert.Contains(t, buf.String(), "Broaden the filters")
	assert.NotContains(t, buf.String(), "Completeness")
}

func TestRenderUnknownFormat(t *testing.T) {
	t.Parallel()

	err := Render(&bytes.Buffer{}, Report{}, "xml")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown output format"))
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidFormat(FormatYAML))
}

func TestRenderIdentity(t *testing.T) {
	t.Parallel()

	id := NewIdentity(domain.RepositoryIdentity{Name: "Repo", AdminEmail: "a@b.org"})

	var buf bytes.Buffer
	require.NoError(t, RenderIdentity(&buf, id, FormatText))
	assert.Contains(t, buf.String(), "Repo")
	assert.Contains(t, buf.String(), "a@b.org")

	buf.Reset()
	require.NoError(t, RenderIdentity(&buf, id, FormatJSON))
	assert.Contains(t, buf.String(), `"adminEmail": "a@b.org"`)
	assert.NotContains(t, buf.String(), "repositoryIdentifier")
}
