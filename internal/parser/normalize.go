package parser

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NormalizationError reports a provider payload missing a field that
// identifies the row. Optional fields never produce it; they default instead.
type NormalizationError struct {
	Entity string
	Field  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: missing required field %q", e.Entity, e.Field)
}

var (
	leadingEpRe  = regexp.MustCompile(`(?i)^\s*(?:ep(?:isode)?\.?\s*)?(\d+)`)
	embeddedEpRe = regexp.MustCompile(`(?i)\bep(?:isode)?\.?\s*(\d+)`)

	breakRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	sourceRe = regexp.MustCompile(`(?is)\(\s*source:.*?\)`)
	notesRe  = regexp.MustCompile(`(?is)\bnotes:.*$`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
	blankRe  = regexp.MustCompile(`\n\s*\n+`)

	stripPolicy = bluemonday.StrictPolicy()
)

// ImageURL joins a CDN prefix and a provider path fragment. A missing path
// yields nil, never an empty string.
func ImageURL(base, path string) *string {
	if path == "" {
		return nil
	}
	u := base + path
	return &u
}

// ExtractEpisodeNumber finds the episode number in a free-text title:
// a leading integer ("1 - The Beginning"), or an "Episode N"/"Ep N" token.
// Titles without one yield 0.
func ExtractEpisodeNumber(title *string) int {
	if title == nil {
		return 0
	}
	m := leadingEpRe.FindStringSubmatch(*title)
	if m == nil {
		m = embeddedEpRe.FindStringSubmatch(*title)
	}
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// FormatStartDate renders a partial date as MM-DD-YYYY, MM-YYYY or YYYY
// depending on which parts are present. Without a year the result is "".
func FormatStartDate(year, month, day *int) string {
	if year == nil || *year <= 0 {
		return ""
	}
	if month == nil || *month <= 0 {
		return fmt.Sprintf("%04d", *year)
	}
	if day == nil || *day <= 0 {
		return fmt.Sprintf("%02d-%04d", *month, *year)
	}
	return fmt.Sprintf("%02d-%02d-%04d", *month, *day, *year)
}

// JoinGenres flattens a genre list into one column value.
func JoinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}

// CleanDescription turns a provider synopsis into plain text: markup is
// stripped along with "(Source: ...)" credits and trailing "Notes:" blocks.
func CleanDescription(raw *string) string {
	if raw == nil {
		return ""
	}
	s := breakRe.ReplaceAllString(*raw, "\n")
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = sourceRe.ReplaceAllString(s, "")
	s = notesRe.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
