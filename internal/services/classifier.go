package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Amsterdam/meldingen-sub000/internal/data/repos/formdef"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// Classifier maps free-form melding text onto a classification. A nil result
// with a nil error means no classification matched.
type Classifier interface {
	Classify(ctx context.Context, text string) (*domain.Classification, error)
}

// keywordClassifier matches classification names as case-insensitive
// substrings of the melding text. The longest matching name wins, so
// "grofvuil" beats "vuil" when both are present.
type keywordClassifier struct {
	db      *gorm.DB
	log     *logger.Logger
	clsRepo formdef.ClassificationRepo
}

func NewKeywordClassifier(db *gorm.DB, baseLog *logger.Logger, clsRepo formdef.ClassificationRepo) Classifier {
	return &keywordClassifier{
		db:      db,
		log:     baseLog.With("service", "Classifier"),
		clsRepo: clsRepo,
	}
}

func (c *keywordClassifier) Classify(ctx context.Context, text string) (*domain.Classification, error) {
	all, err := c.clsRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	haystack := strings.ToLower(text)
	var best *domain.Classification
	for _, cls := range all {
		name := strings.ToLower(strings.TrimSpace(cls.Name))
		if name == "" || !strings.Contains(haystack, name) {
			continue
		}
		if best == nil || len(cls.Name) > len(best.Name) {
			best = cls
		}
	}
	if best != nil {
		c.log.Debug("text classified", "classification", best.Name)
	}
	return best, nil
}
