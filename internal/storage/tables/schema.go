package tables

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"content_harvester/internal/domain"
)

// Localized column names of the post and comment datasheets.
const (
	FieldName      = "Название"
	FieldPlatform  = "Платформа"
	FieldViews     = "Просмотры"
	FieldReach     = "Проскроллившие"
	FieldReaders   = "Прочитавшие"
	FieldLikes     = "Лайки"
	FieldDislikes  = "Дизлайки"
	FieldComments  = "Комментарии"
	FieldFavorites = "Избранное (если применимо)"
	FieldTags      = "Теги"

	FieldText       = "Текст"
	FieldScore      = "Лайки-Дизлайки"
	FieldSentiment  = "Тональность"
	FieldConfidence = "Уверенность"
	FieldPostTitle  = "Название поста"
)

var sentimentLabels = map[domain.Sentiment]string{
	domain.SentimentPositive: "Позитивная",
	domain.SentimentNegative: "Негативная",
	domain.SentimentNeutral:  "Нейтральная",
}

// SentimentLabel returns the store's label for s.
func SentimentLabel(s domain.Sentiment) string {
	if l, ok := sentimentLabels[s]; ok {
		return l
	}
	return sentimentLabels[domain.SentimentNeutral]
}

type PostFields struct {
	Name           string   `mapstructure:"Название"`
	Platform       string   `mapstructure:"Платформа"`
	ReadingCount   int      `mapstructure:"Просмотры"`
	Reach          int      `mapstructure:"Проскроллившие"`
	Readers        int      `mapstructure:"Прочитавшие"`
	Likes          int      `mapstructure:"Лайки"`
	Dislikes       int      `mapstructure:"Дизлайки"`
	CommentsCount  int      `mapstructure:"Комментарии"`
	FavoritesCount int      `mapstructure:"Избранное (если применимо)"`
	Tags           []string `mapstructure:"Теги"`
}

func NewPostFields(p domain.Post, platform string) PostFields {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostFields{
		Name:           p.Name,
		Platform:       platform,
		ReadingCount:   p.ReadingCount,
		Reach:          p.Reach,
		Readers:        p.Readers,
		Likes:          p.Likes,
		Dislikes:       p.Dislikes,
		CommentsCount:  p.CommentsCount,
		FavoritesCount: p.FavoritesCount,
		Tags:           tags,
	}
}

type CommentFields struct {
	Text       string  `mapstructure:"Текст"`
	Score      int     `mapstructure:"Лайки-Дизлайки"`
	Sentiment  string  `mapstructure:"Тональность"`
	Confidence float64 `mapstructure:"Уверенность"`
	Platform   string  `mapstructure:"Платформа"`
	PostTitle  string  `mapstructure:"Название поста,omitempty"`
}

// NewCommentFields builds the stored form of c. An empty postTitle leaves
// the title column out.
func NewCommentFields(c domain.RankedComment, platform, postTitle string) CommentFields {
	return CommentFields{
		Text:       c.Content,
		Score:      c.Score,
		Sentiment:  SentimentLabel(c.Sentiment),
		Confidence: c.Confidence,
		Platform:   platform,
		PostTitle:  postTitle,
	}
}

func (f PostFields) Map() (map[string]any, error) {
	return encode(f)
}

func (f CommentFields) Map() (map[string]any, error) {
	return encode(f)
}

// DecodePostFields reads a stored row. Numbers arriving as JSON floats or
// strings are coerced.
func DecodePostFields(fields map[string]any) (PostFields, error) {
	var out PostFields
	if err := decode(fields, &out); err != nil {
		return PostFields{}, fmt.Errorf("decode post fields: %w", err)
	}
	return out, nil
}

func DecodeCommentFields(fields map[string]any) (CommentFields, error) {
	var out CommentFields
	if err := decode(fields, &out); err != nil {
		return CommentFields{}, fmt.Errorf("decode comment fields: %w", err)
	}
	return out, nil
}

func decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func encode(in any) (map[string]any, error) {
	out := map[string]any{}
	if err := mapstructure.Decode(in, &out); err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return out, nil
}
