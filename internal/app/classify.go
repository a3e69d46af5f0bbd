package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ulasan_sentimen/internal/adapters/observability"
	"ulasan_sentimen/internal/domain"
)

// ClassifierMaxInput is the classifier's maximum input length in characters.
const ClassifierMaxInput = 512

const defaultScanLimit = 500

// ClassifyService labels stored reviews. Only null-labeled records are ever
// selected, so a crashed run resumes safely on the next invocation and a
// labeled record is never revisited.
type ClassifyService struct {
	repo      domain.ReviewRepository
	clf       domain.SentimentClassifier
	cleaner   *TextCleaner
	scanLimit int
}

func NewClassifyService(r domain.ReviewRepository, c domain.SentimentClassifier) *ClassifyService {
	return &ClassifyService{repo: r, clf: c, cleaner: NewTextCleaner(), scanLimit: defaultScanLimit}
}

// Run performs one classification pass over unclassified records and
// returns how many were labeled. Per-record classifier failures are logged
// and skipped; the record stays unclassified for the next pass.
func (s *ClassifyService) Run(ctx context.Context) (int, error) {
	pending, err := s.repo.ListUnclassified(ctx, s.scanLimit)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, rv := range pending {
		label, score, err := s.classifyOne(ctx, rv)
		if err != nil {
			log.Warn().Str("review_id", rv.ReviewID).Err(err).Msg("classify failed, leaving unlabeled")
			continue
		}
		if err := s.repo.SetSentiment(ctx, rv.ReviewID, label, score, time.Now().UTC()); err != nil {
			log.Warn().Str("review_id", rv.ReviewID).Err(err).Msg("persist sentiment failed")
			continue
		}
		observability.ObserveClassified(string(label))
		done++
	}
	return done, nil
}

func (s *ClassifyService) classifyOne(ctx context.Context, rv domain.Review) (domain.Label, float64, error) {
	label, score := domain.LabelNeutral, 0.0

	// Empty cleaned text short-circuits: neutral 0.0 without a model call.
	if clean := s.cleaner.Clean(deref(rv.CommentText)); clean != "" {
		raw, sc, err := s.clf.Classify(ctx, truncateRunes(clean, ClassifierMaxInput))
		if err != nil {
			return "", 0, err
		}
		label, score = MapLabel(raw), sc
	}

	// Star ratings at the extremes are stronger ground truth than the text
	// model; they overwrite its output entirely.
	if rv.Rating != nil {
		switch {
		case *rv.Rating <= 2:
			label, score = domain.LabelNegative, 1.0
		case *rv.Rating >= 4:
			label, score = domain.LabelPositive, 1.0
		}
	}
	return label, score, nil
}

// MapLabel folds a raw classifier token onto the three canonical labels.
// IndoBERT-style ordinal placeholders and the Indonesian tokens older runs
// persisted are both accepted; anything unrecognized is neutral.
func MapLabel(raw string) domain.Label {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive", "positif", "label_0":
		return domain.LabelPositive
	case "negative", "negatif", "label_1":
		return domain.LabelNegative
	case "neutral", "netral", "label_2":
		return domain.LabelNeutral
	default:
		return domain.LabelNeutral
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
