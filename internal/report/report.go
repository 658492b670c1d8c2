// Package report assembles the data-quality metrics of one filtered view and
// renders them for people and machines.
package report

import (
	"OAIHealthCheck/internal/aggregate"
	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/filter"
	"OAIHealthCheck/internal/normalize"
)

// Informational messages for empty results.
const (
	NoticeEmptySample = "No records were harvested. Check the endpoint URL or try another repository."
	NoticeEmptyView   = "No records match the selected filters. Broaden the filters to see results."
)

// Options tunes report sizes.
type Options struct {
	TopN          int
	HistogramBins int
	TriageLimit   int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{TopN: 10, HistogramBins: 10, TriageLimit: 50}
}

// Identity is the printable repository description.
type Identity struct {
	Name                 string `json:"name" yaml:"name"`
	BaseURL              string `json:"baseUrl" yaml:"baseUrl"`
	ProtocolVersion      string `json:"protocolVersion" yaml:"protocolVersion"`
	AdminEmail           string `json:"adminEmail" yaml:"adminEmail"`
	RepositoryIdentifier string `json:"repositoryIdentifier,omitempty" yaml:"repositoryIdentifier,omitempty"`
}

// NewIdentity converts a resolved identity.
func NewIdentity(id domain.RepositoryIdentity) *Identity {
	return &Identity{
		Name:                 id.Name,
		BaseURL:              id.BaseURL,
		ProtocolVersion:      id.ProtocolVersion,
		AdminEmail:           id.AdminEmail,
		RepositoryIdentifier: id.Identifier(),
	}
}

// Filters echoes the applied FilterSpec with sorted selections.
type Filters struct {
	Years                  []string `json:"years,omitempty" yaml:"years,omitempty"`
	Types                  []string `json:"types,omitempty" yaml:"types,omitempty"`
	Languages              []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	Formats                []string `json:"formats,omitempty" yaml:"formats,omitempty"`
	OnlyMissingDescription bool     `json:"onlyMissingDescription" yaml:"onlyMissingDescription"`
	OnlyMissingRights      bool     `json:"onlyMissingRights" yaml:"onlyMissingRights"`
}

func newFilters(spec domain.FilterSpec) Filters {
	return Filters{
		Years:                  spec.Years.Sorted(),
		Types:                  spec.Types.Sorted(),
		Languages:              spec.Languages.Sorted(),
		Formats:                spec.Formats.Sorted(),
		OnlyMissingDescription: spec.OnlyMissingDescription,
		OnlyMissingRights:      spec.OnlyMissingRights,
	}
}

// TriageEntry is one record that needs attention.
type TriageEntry struct {
	Identifier string   `json:"identifier" yaml:"identifier"`
	Title      string   `json:"title" yaml:"title"`
	Year       string   `json:"year" yaml:"year"`
	Creators   int      `json:"creators" yaml:"creators"`
	Reasons    []string `json:"reasons" yaml:"reasons"`
}

// Report is the full health check of one view.
type Report struct {
	Identity         *Identity                    `json:"identity,omitempty" yaml:"identity,omitempty"`
	Run              domain.SampleInfo            `json:"run" yaml:"run"`
	SampleSize       int                          `json:"sampleSize" yaml:"sampleSize"`
	Filters          Filters                      `json:"filters" yaml:"filters"`
	Notice           string                       `json:"notice,omitempty" yaml:"notice,omitempty"`
	Vitals           aggregate.VitalSigns         `json:"vitals" yaml:"vitals"`
	Completeness     aggregate.CompletenessReport `json:"completeness" yaml:"completeness"`
	Timeline         []aggregate.Count            `json:"timeline" yaml:"timeline"`
	TopTypes         []aggregate.Count            `json:"topTypes" yaml:"topTypes"`
	TopLanguages     []aggregate.Count            `json:"topLanguages" yaml:"topLanguages"`
	TopFormats       []aggregate.Count            `json:"topFormats" yaml:"topFormats"`
	TopSubjects      []aggregate.Count            `json:"topSubjects" yaml:"topSubjects"`
	CreatorHistogram []aggregate.Bin              `json:"creatorHistogram" yaml:"creatorHistogram"`
	SubjectHistogram []aggregate.Bin              `json:"subjectHistogram" yaml:"subjectHistogram"`
	Triage           []TriageEntry                `json:"triage" yaml:"triage"`
	Facets           filter.FacetValues           `json:"facets" yaml:"facets"`
}

// Empty reports whether the report carries an informational notice instead of metrics.
func (r Report) Empty() bool {
	return r.Notice != ""
}

// CompletenessExcluded lists the columns that are bookkeeping, not metadata.
func CompletenessExcluded() []string {
	cols := []string{domain.ColIdentifier, domain.ColDatestamp, domain.ColCountCreators, domain.ColCountSubjects}
	return append(cols, normalize.DerivedColumns...)
}

// Build filters the sample and aggregates the resulting view. identity may be nil.
func Build(identity *domain.RepositoryIdentity, sample domain.Sample, spec domain.FilterSpec, opts Options) Report {
	r := Report{
		Run:        sample.Info,
		SampleSize: sample.Len(),
		Filters:    newFilters(spec),
		Facets:     filter.Facets(sample),
	}
	if identity != nil {
		r.Identity = NewIdentity(*identity)
	}

	view := filter.Apply(sample, spec)
	r.Vitals = aggregate.Vitals(view)

	switch {
	case sample.Empty():
		r.Notice = NoticeEmptySample
		return r
	case view.Empty():
		r.Notice = NoticeEmptyView
		return r
	}

	r.Completeness = aggregate.Completeness(view, CompletenessExcluded())
	r.Timeline = aggregate.YearTimeline(view)
	r.TopTypes = aggregate.Frequency(view, domain.ColType, opts.TopN)
	r.TopLanguages = aggregate.Frequency(view, domain.ColLanguage, opts.TopN)
	r.TopFormats = aggregate.Frequency(view, domain.ColFormat, opts.TopN)
	r.TopSubjects = aggregate.Frequency(view, domain.FieldSubject, opts.TopN)
	r.CreatorHistogram = aggregate.Histogram(view, domain.ColCountCreators, opts.HistogramBins)
	r.SubjectHistogram = aggregate.Histogram(view, domain.ColCountSubjects, opts.HistogramBins)
	r.Triage = triage(view, opts.TriageLimit)
	return r
}

func triage(view domain.View, limit int) []TriageEntry {
	rows := aggregate.Triage(view, limit)
	out := make([]TriageEntry, 0, len(rows))
	for _, row := range rows {
		year := row.Get(domain.ColYear).Or(domain.NoData)
		creators := row.Int(domain.ColCountCreators)

		var reasons []string
		if year == domain.NoData {
			reasons = append(reasons, "no year")
		}
		if row.Blank(domain.FieldDescription) {
			reasons = append(reasons, "no description")
		}
		if creators == 0 {
			reasons = append(reasons, "no creator")
		}

		out = append(out, TriageEntry{
			Identifier: row.Identifier(),
			Title:      row.Get(domain.FieldTitle).Or(""),
			Year:       year,
			Creators:   creators,
			Reasons:    reasons,
		})
	}
	return out
}
