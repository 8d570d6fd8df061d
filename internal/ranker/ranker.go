// Package ranker attaches a sentiment label and a confidence score to
// harvested comments.
package ranker

import (
	"log/slog"
	"strings"

	"content_harvester/internal/domain"
	"content_harvester/internal/plaintext"
)

// submitted pairs a comment with the plain text sent for classification.
type submitted struct {
	comment domain.Comment
	text    string
}

// prepare converts every comment to plain text and drops those left empty.
func prepare(comments []domain.Comment) []submitted {
	batch := make([]submitted, 0, len(comments))
	for _, c := range comments {
		text := plaintext.Convert(c.Content)
		if text == "" {
			continue
		}
		batch = append(batch, submitted{comment: c, text: text})
	}
	return batch
}

// Result is one classification verdict, in submission order.
type Result struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// associate pairs result i with submitted text i. A result whose text is not
// part of the text it was paired with signals a misaligned response, so that
// comment is dropped; so is any comment left without a result.
func associate(batch []submitted, results []Result, logger *slog.Logger) []domain.RankedComment {
	if len(results) != len(batch) {
		logger.Warn("classifier result count mismatch",
			"submitted", len(batch),
			"results", len(results),
		)
	}

	ranked := make([]domain.RankedComment, 0, len(batch))
	for i, s := range batch {
		if i >= len(results) {
			break
		}
		res := results[i]
		if !strings.Contains(s.text, res.Text) {
			logger.Debug("classifier result does not match submitted text",
				"index", i,
				"post_id", s.comment.PostID,
			)
			continue
		}
		ranked = append(ranked, domain.RankedComment{
			Comment:    s.comment,
			Sentiment:  domain.ParseSentiment(res.Sentiment),
			Confidence: res.Confidence,
		})
	}
	return ranked
}
