package habr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"time"

	"content_harvester/internal/domain"
	"content_harvester/internal/source/rest"
)

const (
	Platform       = "Хабр"
	DefaultBaseURL = "https://habr.com/kek/v2/"
)

type Config struct {
	BaseURL     string
	User        string
	Timeout     time.Duration
	Concurrency int
}

// New creates the comment-capable source for the articles and news of one
// author.
func New(cfg Config, logger *slog.Logger) *rest.CommentSource {
	user := url.QueryEscape(cfg.User)

	return rest.NewWithComments(rest.Config{
		Platform: Platform,
		BaseURL:  cfg.BaseURL,
		ListingPaths: []string{
			fmt.Sprintf("articles/?user=%s&fl=ru&hl=ru&page=1&perPage=20", user),
			fmt.Sprintf("articles/?user=%s&news=true&fl=ru&hl=ru&page=1&perPage=20", user),
		},
		ParseIDs:    ParseListing,
		DetailPath:  "articles/",
		ParsePost:   ParseArticle,
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
	}, rest.CommentConfig{
		Path:  "articles/{id}/comments/?hl=ru",
		Parse: ParseComments,
	}, logger)
}

func ParseListing(body []byte) ([]string, error) {
	var resp listingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, len(resp.PublicationIDs))
	for i, id := range resp.PublicationIDs {
		ids[i] = id.String()
	}
	return ids, nil
}

func ParseArticle(body []byte) (domain.Post, error) {
	var a ArticleResponse
	if err := json.Unmarshal(body, &a); err != nil {
		return domain.Post{}, err
	}
	if a.ID == "" {
		return domain.Post{}, errors.New("article without id")
	}

	tags := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		tags = append(tags, t.TitleHTML)
	}

	return domain.Post{
		PostID:         a.ID.String(),
		Name:           a.TitleHTML,
		Likes:          a.Statistics.VotesCountPlus,
		Dislikes:       a.Statistics.VotesCountMinus,
		CommentsCount:  a.Statistics.CommentsCount,
		Reach:          a.Statistics.Reach,
		Readers:        a.Statistics.Readers,
		ReadingCount:   a.Statistics.ReadingCount,
		FavoritesCount: a.Statistics.FavoritesCount,
		Tags:           tags,
	}, nil
}

// ParseComments returns the comments ordered by their key so repeated
// harvests submit the same batch.
func ParseComments(body []byte) ([]domain.Comment, error) {
	var resp CommentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(resp.Comments))
	for k := range resp.Comments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	comments := make([]domain.Comment, 0, len(keys))
	for _, k := range keys {
		c := resp.Comments[k]
		comments = append(comments, domain.Comment{
			Content: c.Message,
			Score:   c.Score,
		})
	}
	return comments, nil
}
