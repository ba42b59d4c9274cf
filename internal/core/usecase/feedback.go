package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/core/ports"
)

const minKeywordLen = 4

var tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)

var stopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true,
	"have": true, "been": true, "were": true, "what": true,
	"your": true, "will": true, "would": true, "there": true,
	"their": true, "about": true, "which": true, "when": true,
	"date": true, "page": true, "total": true, "copy": true,
}

// CorrectionUseCase applies user overrides to stored documents. Category
// corrections also feed the learned-keyword loop so the classifier picks the
// corrected category for similar files on future imports.
type CorrectionUseCase struct {
	repo     ports.DocumentRepository
	keywords ports.KeywordRepository
	logger   *slog.Logger
}

func NewCorrectionUseCase(repo ports.DocumentRepository, keywords ports.KeywordRepository, logger *slog.Logger) *CorrectionUseCase {
	return &CorrectionUseCase{repo: repo, keywords: keywords, logger: logger}
}

func (u *CorrectionUseCase) CorrectCategory(ctx context.Context, documentID, category string) error {
	if strings.TrimSpace(category) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "correct.category", errEmptyValue)
	}
	category = domain.NormalizeCategory(category)

	doc, err := u.repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := u.repo.UpdateCategory(ctx, documentID, category); err != nil {
		return err
	}

	// Learning failures never undo an applied correction.
	for _, keyword := range keywordCandidates(doc.EffectiveTitle(), doc.OriginalFileName) {
		kw := domain.LearnedKeyword{Keyword: keyword, AssignedCategory: category}
		if err := u.keywords.Upsert(ctx, kw); err != nil {
			u.logger.Warn("keyword learning failed", "keyword", keyword, "error", err)
		}
	}
	return nil
}

func (u *CorrectionUseCase) CorrectTitle(ctx context.Context, documentID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.WrapError(domain.ErrInvalidInput, "correct.title", errEmptyValue)
	}
	return u.repo.UpdateTitle(ctx, documentID, title)
}

func (u *CorrectionUseCase) SetFavorite(ctx context.Context, documentID string, favorite bool) error {
	return u.repo.SetFavorite(ctx, documentID, favorite)
}

// keywordCandidates picks the distinctive tokens of a document's title and
// original filename, lower-cased, with short words and stopwords dropped.
func keywordCandidates(values ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, value := range values {
		for _, token := range tokenSplitRe.Split(strings.ToLower(value), -1) {
			if len(token) < minKeywordLen || stopwords[token] || seen[token] {
				continue
			}
			if isNumeric(token) {
				continue
			}
			seen[token] = true
			out = append(out, token)
		}
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
