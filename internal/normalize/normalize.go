// Package normalize derives clean, singular values from noisy multi-valued
// metadata cells. Every function is total: absence or a failed extraction
// yields domain.NoData instead of an error.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"OAIHealthCheck/internal/domain"
)

// Format categories returned by ClassifyFormat.
const (
	FormatPDF     = "PDF"
	FormatXML     = "XML"
	FormatImage   = "Image"
	FormatWord    = "Word"
	FormatExcel   = "Excel"
	FormatArchive = "Archive"
	FormatVideo   = "Video"
	FormatAudio   = "Audio"
	FormatOther   = "Other/Unknown"
)

// yearExpr matches a 19xx/20xx run that is not glued to other word characters,
// so identifiers such as 412230132017 do not yield a year.
var yearExpr = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

type formatGroup struct {
	category string
	keywords []string
	exact    []string
}

// formatGroups is checked in order; the first group with a hit wins.
var formatGroups = []formatGroup{
	{category: FormatPDF, keywords: []string{"pdf"}},
	{category: FormatXML, keywords: []string{"text/xml", "application/xml", "+xml", ".xml"}, exact: []string{"xml"}},
	{category: FormatImage, keywords: []string{"image", "jpeg", "jpg", "png", "gif", "tiff", "bmp"}},
	{category: FormatWord, keywords: []string{"msword", "word", ".doc"}},
	{category: FormatExcel, keywords: []string{"excel", "spreadsheet", ".xls", "csv"}},
	{category: FormatArchive, keywords: []string{"zip", "x-tar", "rar", "7z", "compressed"}},
	{category: FormatVideo, keywords: []string{"video", "mp4", "avi", "quicktime", "matroska"}},
	{category: FormatAudio, keywords: []string{"audio", "mp3", "wav", "ogg", "flac"}},
}

var noisePrefixes = []string{"info:eu-repo", "http"}

var titleCaser = cases.Title(language.Und)

// ExtractYear returns the first bounded 19xx/20xx year in document order.
func ExtractYear(date domain.Value) string {
	text, ok := date.Text()
	if !ok {
		return domain.NoData
	}
	if match := yearExpr.FindString(text); match != "" {
		return match
	}
	return domain.NoData
}

// ClassifyFormat maps a MIME type or file description onto a coarse category.
func ClassifyFormat(format domain.Value) string {
	text, ok := format.Text()
	if !ok {
		return domain.NoData
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return domain.NoData
	}

	for _, group := range formatGroups {
		for _, exact := range group.exact {
			if lower == exact {
				return group.category
			}
		}
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return FormatOther
}

// PrimaryType returns the first human-facing type token, title-cased.
func PrimaryType(typ domain.Value) string {
	text, ok := typ.Text()
	if !ok {
		return domain.NoData
	}
	for _, token := range strings.Split(text, ";") {
		token = strings.TrimSpace(token)
		if IsNoise(token) || len([]rune(token)) < 2 {
			continue
		}
		return titleCaser.String(token)
	}
	return domain.NoData
}

// PrimaryLanguage returns the first language token.
func PrimaryLanguage(lang domain.Value) string {
	text, ok := lang.Text()
	if !ok {
		return domain.NoData
	}
	tokens := SplitTokens(text)
	if len(tokens) == 0 {
		return domain.NoData
	}
	return tokens[0]
}

// IsNoise reports whether token is a provenance URI rather than a value.
func IsNoise(token string) bool {
	lower := strings.ToLower(strings.TrimSpace(token))
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// SplitTokens splits a joined cell on ';' and drops empty tokens.
func SplitTokens(cell string) []string {
	parts := strings.Split(cell, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
