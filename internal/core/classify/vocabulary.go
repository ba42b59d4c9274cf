package classify

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mkravets/docvault/internal/core/domain"
)

type marker struct {
	phrase   string
	category string
}

type signal struct {
	keyword string
	weight  int
}

type categorySignals struct {
	category string
	signals  []signal
}

// Phrases strong enough to assign a category outright. Slice order is the
// scan order; earlier entries win.
func exclusiveMarkers() []marker {
	return []marker{
		{"passport", domain.CategoryIDPersonal},
		{"aadhaar", domain.CategoryIDPersonal},
		{"pan card", domain.CategoryIDPersonal},
		{"voter id", domain.CategoryIDPersonal},
		{"driving license", domain.CategoryIDPersonal},
		{"prescription", domain.CategoryMedical},
		{"lab report", domain.CategoryMedical},
		{"blood test", domain.CategoryMedical},
		{"x-ray", domain.CategoryMedical},
		{"vaccination", domain.CategoryMedical},
		{"invoice", domain.CategoryReceipts},
		{"receipt", domain.CategoryReceipts},
		{"salary slip", domain.CategoryFinancial},
		{"payslip", domain.CategoryFinancial},
		{"bank statement", domain.CategoryFinancial},
		{"marksheet", domain.CategoryEducation},
		{"transcript", domain.CategoryEducation},
		{"rent agreement", domain.CategoryProperty},
		{"lease", domain.CategoryProperty},
		{"rc book", domain.CategoryVehicle},
		{"chassis", domain.CategoryVehicle},
	}
}

// Weighted vocabulary for the deep scan. Category order here is the stable
// tie-break order; ties between equal top scores resolve to the earlier entry.
func signalVocabulary() []categorySignals {
	return []categorySignals{
		{domain.CategoryIDPersonal, []signal{
			{"identity", 5}, {"government", 3}, {"national", 3}, {"personal", 2},
			{"card", 2}, {"citizen", 4}, {"address", 2},
		}},
		{domain.CategoryFinancial, []signal{
			{"bank", 5}, {"account", 4}, {"tax", 8}, {"income", 5}, {"salary", 6},
			{"investment", 5}, {"portfolio", 5}, {"loan", 5}, {"credit", 4},
			{"debit", 4}, {"interest", 4},
		}},
		{domain.CategoryReceipts, []signal{
			{"total", 3}, {"subtotal", 3}, {"amount paid", 5}, {"bill to", 4},
			{"transaction", 4}, {"order id", 6}, {"payment", 3}, {"checkout", 4},
			{"gst", 5}, {"vat", 5},
		}},
		{domain.CategoryMedical, []signal{
			{"hospital", 6}, {"clinic", 6}, {"doctor", 5}, {"patient", 5},
			{"diagnosis", 8}, {"medicine", 6}, {"symptoms", 5}, {"pharmacy", 5},
			{"surgery", 7}, {"treatment", 5},
		}},
		{domain.CategoryEducation, []signal{
			{"university", 6}, {"college", 6}, {"school", 4}, {"degree", 8},
			{"marks", 5}, {"grade", 5}, {"semester", 5}, {"diploma", 8},
			{"educational", 4}, {"certificate", 3},
		}},
		{domain.CategoryVehicle, []signal{
			{"registration", 6}, {"engine", 5}, {"insurance", 5}, {"puc", 8},
			{"service", 4}, {"vehicle", 5}, {"chassis", 8}, {"odometer", 6},
			{"model", 3},
		}},
		{domain.CategoryProperty, []signal{
			{"property", 6}, {"apartment", 5}, {"house", 5}, {"mortgage", 8},
			{"deed", 10}, {"utility", 4}, {"maintenance", 5},
			{"electricity bill", 7}, {"water bill", 7},
		}},
	}
}

type vocabularyFile struct {
	Categories []struct {
		Name    string         `yaml:"name"`
		Emoji   string         `yaml:"emoji"`
		Signals map[string]int `yaml:"signals"`
	} `yaml:"categories"`
}

// LoadVocabulary reads user-defined categories and their signal keywords from
// a YAML file. Signal keywords within one category are sorted by descending
// weight so the merged vocabulary stays deterministic.
func LoadVocabulary(path string) ([]categorySignals, []domain.CategoryInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var file vocabularyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse vocabulary file: %w", err)
	}

	var extra []categorySignals
	var infos []domain.CategoryInfo
	for _, c := range file.Categories {
		if c.Name == "" || len(c.Signals) == 0 {
			continue
		}
		extra = append(extra, categorySignals{
			category: c.Name,
			signals:  sortedSignals(c.Signals),
		})
		emoji := c.Emoji
		if emoji == "" {
			emoji = "📁"
		}
		infos = append(infos, domain.CategoryInfo{Name: c.Name, Emoji: emoji})
	}
	return extra, infos, nil
}

func sortedSignals(m map[string]int) []signal {
	out := make([]signal, 0, len(m))
	for kw, w := range m {
		out = append(out, signal{keyword: kw, weight: w})
	}
	// weight desc, then keyword asc: map iteration order must not leak in
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].keyword < out[j].keyword
	})
	return out
}
