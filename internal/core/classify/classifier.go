// Package classify implements the three-tier document classification engine:
// learned user corrections, then exclusive markers, then a weighted signal
// scan with a minimum-confidence threshold.
package classify

import (
	"sort"
	"strings"

	"github.com/mkravets/docvault/internal/core/domain"
)

// minScore is the weighted-scan confidence floor, inclusive: a top score of
// exactly minScore still wins its category.
const minScore = 5

type Engine struct {
	markers []marker
	vocab   []categorySignals
	custom  []domain.CategoryInfo
}

func NewEngine() *Engine {
	return &Engine{
		markers: exclusiveMarkers(),
		vocab:   signalVocabulary(),
	}
}

// WithVocabularyFile merges user-defined categories from a YAML file into the
// weighted vocabulary. Custom categories scan after the built-in ones.
func (e *Engine) WithVocabularyFile(path string) error {
	extra, infos, err := LoadVocabulary(path)
	if err != nil {
		return err
	}
	e.vocab = append(e.vocab, extra...)
	e.custom = append(e.custom, infos...)
	return nil
}

// CustomCategories lists the categories contributed by a vocabulary file.
func (e *Engine) CustomCategories() []domain.CategoryInfo {
	return e.custom
}

// Classify maps extracted text and filename to a category name.
//
// Tier 1: any learned keyword found in the combined input wins immediately.
// When several learned keywords match, the longest keyword wins, with
// lexicographic order breaking length ties; a learned mapping is an explicit
// user signal and the longer match is the more specific one.
// Tier 2: exclusive markers in fixed table order.
// Tier 3: weighted signal scan; the highest total wins if it reaches minScore,
// ties resolving to the category scanned first.
func (e *Engine) Classify(text, filename string, learned []domain.LearnedKeyword) string {
	combined := strings.ToLower(text + " " + filename)

	if cat, ok := matchLearned(combined, learned); ok {
		return cat
	}

	for _, m := range e.markers {
		if strings.Contains(combined, m.phrase) {
			return m.category
		}
	}

	best := ""
	bestScore := 0
	for _, cs := range e.vocab {
		score := 0
		for _, s := range cs.signals {
			if strings.Contains(combined, s.keyword) {
				score += s.weight
			}
		}
		if score > bestScore {
			best = cs.category
			bestScore = score
		}
	}

	if bestScore < minScore {
		return domain.CategoryOther
	}
	return best
}

func matchLearned(combined string, learned []domain.LearnedKeyword) (string, bool) {
	if len(learned) == 0 {
		return "", false
	}

	ordered := make([]domain.LearnedKeyword, len(learned))
	copy(ordered, learned)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].Keyword, ordered[j].Keyword
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	for _, kw := range ordered {
		needle := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if needle == "" {
			continue
		}
		if strings.Contains(combined, needle) {
			return domain.NormalizeCategory(kw.AssignedCategory), true
		}
	}
	return "", false
}
