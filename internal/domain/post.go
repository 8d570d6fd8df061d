package domain

// Post is one published item normalized from a source platform.
type Post struct {
	PostID        string
	Name          string
	Likes         int
	Dislikes      int
	CommentsCount int
	// Reach is unique users who opened the post or saw it in a feed.
	Reach int
	// Readers is unique users who opened the post.
	Readers int
	// ReadingCount is the total, non-unique view count.
	ReadingCount   int
	FavoritesCount int
	Tags           []string
}

type Comment struct {
	PostID  string
	Content string // source-native markup
	Score   int
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment maps a classifier label onto a Sentiment; unknown labels are neutral.
func ParseSentiment(label string) Sentiment {
	switch Sentiment(label) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

type RankedComment struct {
	Comment
	Sentiment  Sentiment
	Confidence float64
}
