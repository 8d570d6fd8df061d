package vc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"content_harvester/internal/domain"
	"content_harvester/internal/source/rest"
)

const (
	Platform       = "VC"
	DefaultBaseURL = "https://api.vc.ru/v2.10/"
)

// Reaction ids counted as approval and disapproval.
var (
	likeReactions    = map[int]bool{1: true, 2: true}
	dislikeReactions = map[int]bool{4: true, 5: true}
)

type Config struct {
	BaseURL     string
	User        string // subsite id
	Timeout     time.Duration
	Concurrency int
}

// New creates the post-only source for the timeline of one subsite.
func New(cfg Config, logger *slog.Logger) *rest.Source {
	return rest.New(rest.Config{
		Platform:     Platform,
		BaseURL:      cfg.BaseURL,
		ListingPaths: []string{"timeline?markdown=true&sorting=new&subsitesIds=" + url.QueryEscape(cfg.User)},
		ParseIDs:     ParseTimeline,
		DetailPath:   "content?markdown=false&id=",
		ParsePost:    ParseContent,
		Timeout:      cfg.Timeout,
		Concurrency:  cfg.Concurrency,
	}, logger)
}

func ParseTimeline(body []byte) ([]string, error) {
	var resp timelineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Result.Items))
	for _, item := range resp.Result.Items {
		if item.Data.ID == "" {
			continue
		}
		ids = append(ids, item.Data.ID.String())
	}
	return ids, nil
}

func ParseContent(body []byte) (domain.Post, error) {
	var resp ContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Post{}, err
	}
	r := resp.Result
	if r.ID == "" {
		return domain.Post{}, errors.New("content without id")
	}

	var likes, dislikes int
	for _, c := range r.Reactions.Counters {
		switch {
		case likeReactions[c.ID]:
			likes += c.Count
		case dislikeReactions[c.ID]:
			dislikes += c.Count
		}
	}

	return domain.Post{
		PostID:         r.ID.String(),
		Name:           r.Title,
		Likes:          likes,
		Dislikes:       dislikes,
		CommentsCount:  r.Counters.Comments,
		Reach:          r.Counters.Views,
		Readers:        r.Counters.Hits,
		ReadingCount:   r.Counters.Views,
		FavoritesCount: r.Counters.Favorites,
		Tags:           []string{},
	}, nil
}
