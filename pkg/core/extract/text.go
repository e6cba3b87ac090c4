// Package extract pulls account amounts out of financial statement footnotes.
// Footnotes arrive as HTML; the extractor reduces them to text, narrows the
// text to keyword neighborhoods and asks an LLM for the current-period value.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanHTML strips the markup from a footnote document and collapses all
// whitespace runs to single spaces. Table cells end up space-separated, which
// is enough structure for keyword windowing and the LLM.
func CleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(html, " "))
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
}

// SnippetNearKeywords cuts windows of `window` runes around every keyword
// occurrence and joins the overlapping ones. An empty result means no keyword
// appeared; callers then fall back to the full text.
func SnippetNearKeywords(text string, keywords []string, window int) string {
	runes := []rune(text)

	type span struct{ start, end int }
	var ranges []span
	for _, kw := range keywords {
		kwRunes := []rune(kw)
		if len(kwRunes) == 0 {
			continue
		}
		for i := 0; i+len(kwRunes) <= len(runes); i++ {
			if string(runes[i:i+len(kwRunes)]) != kw {
				continue
			}
			start := i - window
			if start < 0 {
				start = 0
			}
			end := i + len(kwRunes) + window
			if end > len(runes) {
				end = len(runes)
			}
			ranges = append(ranges, span{start, end})
		}
	}
	if len(ranges) == 0 {
		return ""
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if last.end < r.start {
			merged = append(merged, r)
		} else if r.end > last.end {
			last.end = r.end
		}
	}

	parts := make([]string, 0, len(merged))
	for _, m := range merged {
		parts = append(parts, string(runes[m.start:m.end]))
	}
	return strings.Join(parts, " ")
}

var numericRe = regexp.MustCompile(`^-?[\d,]+(\.\d+)?$`)

// ParseNumeric converts an LLM answer to an integer amount. Anything beyond
// a plain number with optional commas, sign and decimals is rejected with
// nil, so prose answers never reach the database.
func ParseNumeric(value string) *int64 {
	value = strings.TrimSpace(value)
	if value == "" || !strings.ContainsAny(value, "0123456789") {
		return nil
	}
	if !numericRe.MatchString(value) {
		return nil
	}
	clean := strings.ReplaceAll(value, ",", "")
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	v := int64(f)
	return &v
}
