package util

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxDescriptionLength is the longest description stored on a row.
	MaxDescriptionLength = 2000
	ellipsis             = "..."

	// DueLayout is the millisecond precision layout used for due dates.
	DueLayout = "2006-01-02T15:04:05.000-07:00"
)

// HTMLToText extracts the text nodes of an HTML fragment, one per line.
// Input that does not parse is returned trimmed, unchanged.
func HTMLToText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var lines []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					lines = append(lines, t)
				}
			case "script", "style", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(doc.Selection)

	return strings.Join(lines, "\n")
}

// Truncate shortens s to at most max characters, marking the cut with an
// ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-len(ellipsis)]) + ellipsis
}

// NormalizeDescription turns a possibly HTML description into plain text
// that fits on a row.
func NormalizeDescription(s string) string {
	return Truncate(HTMLToText(s), MaxDescriptionLength)
}

// FormatDue formats a due date in UTC with millisecond precision.
func FormatDue(t time.Time) string {
	return t.UTC().Format(DueLayout)
}
