package ranker

import (
	"context"
	"math"

	"github.com/jonreiter/govader"

	"content_harvester/internal/domain"
)

const vaderThreshold = 0.20

// Vader classifies comments locally with the VADER lexicon. It is used when
// no classification endpoint is configured.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Rank(_ context.Context, comments []domain.Comment) ([]domain.RankedComment, error) {
	batch := prepare(comments)
	if len(batch) == 0 {
		return nil, nil
	}

	ranked := make([]domain.RankedComment, 0, len(batch))
	for _, s := range batch {
		compound := v.analyzer.PolarityScores(s.text).Compound

		sentiment := domain.SentimentNeutral
		switch {
		case compound >= vaderThreshold:
			sentiment = domain.SentimentPositive
		case compound <= -vaderThreshold:
			sentiment = domain.SentimentNegative
		}

		ranked = append(ranked, domain.RankedComment{
			Comment:    s.comment,
			Sentiment:  sentiment,
			Confidence: math.Abs(compound),
		})
	}
	return ranked, nil
}
