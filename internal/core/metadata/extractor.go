// Package metadata pulls structured data (dates, amounts, reference numbers)
// out of raw extracted text. Pure regex passes, no I/O.
package metadata

import (
	"regexp"
	"time"

	"github.com/mkravets/docvault/internal/core/domain"
)

var (
	dayFirstDateRe  = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)
	yearFirstDateRe = regexp.MustCompile(`\b(\d{4}[/-]\d{1,2}[/-]\d{1,2})\b`)
	monthNameDateRe = regexp.MustCompile(`(?i)\b(\d{1,2}\s(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s\d{2,4})\b`)

	amountRe = regexp.MustCompile(`(?i)(?:[$€£₹]|RS\.?)\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})\b`)

	labeledNumberRe = regexp.MustCompile(`(?i)(?:Invoice|Policy|ID|Ref|Receipt|Bill)\s?[#: ]+([A-Za-z0-9-]{4,20})`)
	genericIDRe     = regexp.MustCompile(`(?i)\b[A-Z]{2}\d{2}[A-Z]{1,2}\d{4}\b`)
)

var dayFirstLayouts = []string{
	"2/1/2006", "2-1-2006", "2/1/06", "2-1-06",
}

var yearFirstLayouts = []string{
	"2006/1/2", "2006-1-2",
}

var monthNameLayouts = []string{
	"2 Jan 2006", "2 January 2006", "2 Jan 06",
}

// Extract scans text and returns de-duplicated, order-preserving lists of
// normalized dates, currency amounts, and document/reference numbers.
func Extract(text string) domain.Metadata {
	return domain.Metadata{
		Dates:           findDates(text),
		Amounts:         dedupe(amountRe.FindAllString(text, -1)),
		DocumentNumbers: findDocumentNumbers(text),
	}
}

// findDates matches several common formats and normalizes every parseable hit
// to YYYY-MM-DD. Matches that fail to parse are dropped, not errored.
func findDates(text string) []string {
	var out []string
	for _, pass := range []struct {
		re      *regexp.Regexp
		layouts []string
	}{
		{dayFirstDateRe, dayFirstLayouts},
		{yearFirstDateRe, yearFirstLayouts},
		{monthNameDateRe, monthNameLayouts},
	} {
		for _, m := range pass.re.FindAllStringSubmatch(text, -1) {
			if normalized, ok := parseAny(m[1], pass.layouts); ok {
				out = append(out, normalized)
			}
		}
	}
	return dedupe(out)
}

func parseAny(value string, layouts []string) (string, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func findDocumentNumbers(text string) []string {
	var out []string
	for _, m := range labeledNumberRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	out = append(out, genericIDRe.FindAllString(text, -1)...)
	return dedupe(out)
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
