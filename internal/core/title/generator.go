// Package title derives human-readable document titles from vendor, type, and
// date signals found in extracted text.
package title

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/mkravets/docvault/internal/core/domain"
)

const (
	maxTitleLen     = 50
	vendorScanLines = 15
)

var knownVendors = []string{
	"Amazon", "Walmart", "Apple", "Google", "Uber", "Netflix",
	"Starbucks", "McDonald's", "Zomato", "Swiggy", "Airtel", "Jio",
	"HDFC", "ICICI", "SBI", "LIC", "Vodafone", "Zoom",
}

// Ordered most specific first; the first matching rule wins.
var typeLadder = []struct {
	label string
	match func(lower string) bool
}{
	{"Prescription", func(lower string) bool {
		return strings.Contains(lower, "prescription") || wordRe("rx").MatchString(lower)
	}},
	{"Medical_Report", allOf("report", anyOf("blood", "lab", "clinic"))},
	{"Passport", anyOf("passport")},
	{"Driving_License", func(lower string) bool {
		return strings.Contains(lower, "driving license") || wordRe("dl").MatchString(lower)
	}},
	{"Aadhaar", anyOf("aadhaar", "unique identification")},
	{"PAN_Card", anyOf("pan card", "income tax department")},
	{"Voter_ID", anyOf("voter id", "election commission")},
	{"Invoice", anyOf("invoice", "bill to")},
	{"Receipt", anyOf("receipt", "transaction")},
	{"Bank_Statement", allOf("statement", anyOf("bank", "account"))},
	{"Insurance_Policy", allOf("policy", anyOf("insurance"))},
	{"Certificate", anyOf("certificate")},
}

var unsafeRe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

var wordRes = map[string]*regexp.Regexp{
	"rx": regexp.MustCompile(`\brx\b`),
	"dl": regexp.MustCompile(`\bdl\b`),
}

func wordRe(token string) *regexp.Regexp { return wordRes[token] }

// Generate builds "[vendor]_[type]_[date]" from the strongest signals found,
// omitting empty parts, stripping filename-unsafe characters, and capping the
// length. With nothing recognizable it falls back to the original name's stem.
func Generate(rawText string, meta domain.Metadata, originalName string) string {
	lower := strings.ToLower(rawText)
	vendor := findVendor(rawText)
	docType := documentType(lower)

	date := ""
	if len(meta.Dates) > 0 {
		date = strings.ReplaceAll(meta.Dates[0], "/", "-")
	}

	var parts []string
	if vendor != "" && !strings.Contains(strings.ToLower(docType), strings.ToLower(vendor)) {
		parts = append(parts, vendor)
	}
	if docType != "" {
		parts = append(parts, docType)
	} else {
		parts = append(parts, unsafeRe.ReplaceAllString(stem(originalName), "_"))
	}
	if date != "" {
		parts = append(parts, date)
	}

	out := unsafeRe.ReplaceAllString(strings.Join(parts, "_"), "")
	if len(out) > maxTitleLen {
		out = out[:maxTitleLen]
	}
	if out == "" || strings.Trim(out, "_") == "" {
		out = unsafeRe.ReplaceAllString(stem(originalName), "_")
	}
	return out
}

func findVendor(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > vendorScanLines {
		lines = lines[:vendorScanLines]
	}

	for _, line := range lines {
		for _, vendor := range knownVendors {
			if strings.Contains(strings.ToLower(line), strings.ToLower(vendor)) {
				return vendor
			}
		}
	}

	// Fall back to the first short all-caps line, a decent letterhead guess.
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 3 || len(trimmed) > 25 {
			continue
		}
		if isUpperOrSpace(trimmed) {
			if first, _, _ := strings.Cut(trimmed, " "); first != "" {
				return first
			}
		}
	}
	return ""
}

func isUpperOrSpace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsUpper(r) {
			continue
		}
		return false
	}
	return true
}

func documentType(lower string) string {
	for _, entry := range typeLadder {
		if entry.match(lower) {
			return entry.label
		}
	}
	return ""
}

func stem(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func anyOf(needles ...string) func(string) bool {
	return func(lower string) bool {
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
		return false
	}
}

func allOf(needle string, also func(string) bool) func(string) bool {
	return func(lower string) bool {
		return strings.Contains(lower, needle) && also(lower)
	}
}
