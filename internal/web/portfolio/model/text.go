package model

import (
	"regexp"
	"strings"
	"time"
)

const (
	// DateLayout is how record dates are written, e.g. "January 2, 2006"
	DateLayout = "January 2, 2006"
	// PlaceholderImage is used when a draft leaves the image empty
	PlaceholderImage = "/placeholder.svg?height=300&width=500"
	// DefaultReadTime is used when a blog draft leaves read time empty
	DefaultReadTime = "5 min read"
)

var regexpNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title, collapses every run of characters outside
// [a-z0-9] into one hyphen and strips leading and trailing hyphens.
func Slugify(title string) string {
	s := regexpNonSlug.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// SplitList splits a comma separated input, trimming entries and
// dropping empty ones. The result is never nil.
func SplitList(s string) []string {
	items := []string{}
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// JoinList flattens items for editing
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

// SplitParagraphs splits content on blank lines, dropping empty paragraphs
func SplitParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var paras []string
	for p := range strings.SplitSeq(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}

	return paras
}

// FormatDate formats t with DateLayout
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a DateLayout date, ok is false for anything else
func ParseDate(s string) (t time.Time, ok bool) {
	t, err := time.Parse(DateLayout, s)
	return t, err == nil
}
