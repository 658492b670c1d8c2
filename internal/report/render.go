package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"OAIHealthCheck/internal/aggregate"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ValidFormat reports whether Render understands format.
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Styles holds the terminal styles of the text renderer.
type Styles struct {
	Heading    lipgloss.Style
	Muted      lipgloss.Style
	Critical   lipgloss.Style
	Acceptable lipgloss.Style
	Optimal    lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Heading:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Critical:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Acceptable: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Optimal:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

func (s Styles) band(b aggregate.Band) lipgloss.Style {
	switch b {
	case aggregate.BandCritical:
		return s.Critical
	case aggregate.BandAcceptable:
		return s.Acceptable
	default:
		return s.Optimal
	}
}

// Render writes r in the requested format.
func Render(w io.Writer, r Report, format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, r, format)
	case FormatText, "":
		return renderText(w, r, DefaultStyles())
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// RenderIdentity writes only the repository description.
func RenderIdentity(w io.Writer, id *Identity, format string) error {
	switch format {
	case FormatJSON, FormatYAML:
		return encode(w, id, format)
	case FormatText, "":
		renderIdentityText(w, id, DefaultStyles())
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func encode(w io.Writer, v any, format string) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func renderText(w io.Writer, r Report, st Styles) error {
	if r.Identity != nil {
		renderIdentityText(w, r.Identity, st)
	}

	heading(w, st, "Harvest")
	run := newTable(w)
	run.AppendRows([]table.Row{
		{"Endpoint", r.Run.Endpoint},
		{"Limit", r.Run.Limit},
		{"Harvested", r.SampleSize},
		{"Run", r.Run.RunID.String()},
	})
	if !r.Run.HarvestedAt.IsZero() {
		run.AppendRow(table.Row{"At", r.Run.HarvestedAt.Format("2006-01-02 15:04:05")})
	}
	run.Render()

	if r.Notice != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, st.Muted.Render(r.Notice))
		return nil
	}

	heading(w, st, "Vital signs")
	vt := newTable(w)
	vt.AppendHeader(table.Row{"Records", "Missing titles", "Missing dates", "Avg creators"})
	vt.AppendRow(table.Row{r.Vitals.Records, r.Vitals.MissingTitles, r.Vitals.MissingDates,
		fmt.Sprintf("%.2f", r.Vitals.AvgCreators)})
	vt.Render()

	heading(w, st, "Completeness")
	ct := newTable(w)
	ct.AppendHeader(table.Row{"Field", "Present", "Band"})
	for _, f := range r.Completeness.Fields {
		ct.AppendRow(table.Row{f.Field, fmt.Sprintf("%.1f%%", f.Percent), st.band(f.Band).Render(string(f.Band))})
	}
	ct.Render()

	renderCounts(w, st, "Records per year", "Year", r.Timeline)
	renderCounts(w, st, "Document types", "Type", r.TopTypes)
	renderCounts(w, st, "Languages", "Language", r.TopLanguages)
	renderCounts(w, st, "Formats", "Format", r.TopFormats)
	renderCounts(w, st, "Subjects", "Subject", r.TopSubjects)
	renderBins(w, st, "Creators per record", r.CreatorHistogram)
	renderBins(w, st, "Subjects per record", r.SubjectHistogram)

	heading(w, st, fmt.Sprintf("Records to fix (%d)", len(r.Triage)))
	if len(r.Triage) == 0 {
		_, _ = fmt.Fprintln(w, st.Muted.Render("none"))
		return nil
	}
	tt := newTable(w)
	tt.AppendHeader(table.Row{"Identifier", "Title", "Year", "Creators", "Issues"})
	for _, e := range r.Triage {
		tt.AppendRow(table.Row{e.Identifier, truncate(e.Title, 60), e.Year, e.Creators, strings.Join(e.Reasons, ", ")})
	}
	tt.Render()
	return nil
}

func renderIdentityText(w io.Writer, id *Identity, st Styles) {
	heading(w, st, "Repository")
	kv := newTable(w)
	kv.AppendRows([]table.Row{
		{"Name", id.Name},
		{"Base URL", id.BaseURL},
		{"Protocol", id.ProtocolVersion},
		{"Admin", id.AdminEmail},
		{"Identifier", orDash(id.RepositoryIdentifier)},
	})
	kv.Render()
}

func renderCounts(w io.Writer, st Styles, title, label string, counts []aggregate.Count) {
	heading(w, st, title)
	if len(counts) == 0 {
		_, _ = fmt.Fprintln(w, st.Muted.Render("no values"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{label, "Count"})
	for _, c := range counts {
		t.AppendRow(table.Row{c.Value, c.Count})
	}
	t.Render()
}

func renderBins(w io.Writer, st Styles, title string, bins []aggregate.Bin) {
	heading(w, st, title)
	if len(bins) == 0 {
		_, _ = fmt.Fprintln(w, st.Muted.Render("no values"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Range", "Records"})
	for _, b := range bins {
		t.AppendRow(table.Row{fmt.Sprintf("%.1f to %.1f", b.Lower, b.Upper), b.Count})
	}
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func heading(w io.Writer, st Styles, title string) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, st.Heading.Render(title))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
