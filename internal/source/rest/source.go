// Package rest adapts a platform that exposes its content through a JSON
// HTTP API: a set of listing endpoints yields content IDs, a detail endpoint
// yields one post per ID and, optionally, a comments endpoint yields the
// comments of a post.
package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"content_harvester/internal/domain"
	"content_harvester/internal/settle"
)

const maxResponseBytes = 8 << 20

type (
	IDAccessor    func(body []byte) ([]string, error)
	PostMapper    func(body []byte) (domain.Post, error)
	CommentMapper func(body []byte) ([]domain.Comment, error)
)

// Config holds the endpoints and payload mappers of one platform.
type Config struct {
	Platform string
	BaseURL  string

	ListingPaths []string
	ParseIDs     IDAccessor

	// DetailPath is joined with BaseURL and the content ID.
	DetailPath string
	ParsePost  PostMapper

	Timeout     time.Duration
	Concurrency int
	HTTPClient  *http.Client
}

// Source fetches posts from a JSON API platform.
type Source struct {
	platform     string
	httpClient   *http.Client
	baseURL      string
	listingPaths []string
	parseIDs     IDAccessor
	detailPath   string
	parsePost    PostMapper
	concurrency  int
	logger       *slog.Logger
}

// New creates a post-only source.
func New(cfg Config, logger *slog.Logger) *Source {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Source{
		platform:     cfg.Platform,
		httpClient:   client,
		baseURL:      cfg.BaseURL,
		listingPaths: cfg.ListingPaths,
		parseIDs:     cfg.ParseIDs,
		detailPath:   cfg.DetailPath,
		parsePost:    cfg.ParsePost,
		concurrency:  cfg.Concurrency,
		logger:       logger.With("source", cfg.Platform),
	}
}

// Platform returns the label stored alongside every record of this source.
func (s *Source) Platform() string {
	return s.platform
}

// ListIdentifiers returns one batch of content IDs per listing endpoint.
// Endpoints that fail are left out.
func (s *Source) ListIdentifiers(ctx context.Context) [][]string {
	res := settle.All(ctx, s.concurrency, len(s.listingPaths), func(ctx context.Context, i int) ([]string, error) {
		body, err := s.get(ctx, s.baseURL+s.listingPaths[i])
		if err != nil {
			return nil, err
		}
		ids, err := s.parseIDs(body)
		if err != nil {
			return nil, fmt.Errorf("parse listing: %w", err)
		}
		return ids, nil
	})

	for _, f := range res.Failures {
		s.logger.Warn("listing excluded",
			"path", s.listingPaths[f.Index],
			"error", f.Err,
		)
	}

	return res.Values
}

// FetchPosts fetches and maps the detail of every listed content ID. Items
// that fail are left out, so the result may be partial.
func (s *Source) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	ids := uniq(s.ListIdentifiers(ctx))

	res := settle.All(ctx, s.concurrency, len(ids), func(ctx context.Context, i int) (domain.Post, error) {
		body, err := s.get(ctx, s.baseURL+s.detailPath+ids[i])
		if err != nil {
			return domain.Post{}, err
		}
		post, err := s.parsePost(body)
		if err != nil {
			return domain.Post{}, fmt.Errorf("parse post: %w", err)
		}
		return post, nil
	})

	for _, f := range res.Failures {
		s.logger.Warn("post excluded",
			"id", ids[f.Index],
			"error", f.Err,
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("fetched posts",
		"identifiers", len(ids),
		"posts", len(res.Values),
	)

	return res.Values, nil
}

func (s *Source) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ContentHarvester/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// CommentConfig describes the comments endpoint. Path may contain an {id}
// placeholder for the post ID.
type CommentConfig struct {
	Path  string
	Parse CommentMapper
}

// CommentSource is a Source that can also fetch the comments of a post.
type CommentSource struct {
	*Source
	commentsPath  string
	parseComments CommentMapper
}

func NewWithComments(cfg Config, cc CommentConfig, logger *slog.Logger) *CommentSource {
	return &CommentSource{
		Source:        New(cfg, logger),
		commentsPath:  cc.Path,
		parseComments: cc.Parse,
	}
}

// FetchComments returns the comments of one post with PostID attached.
func (s *CommentSource) FetchComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	url := s.baseURL + strings.ReplaceAll(s.commentsPath, "{id}", postID)

	body, err := s.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch comments of %s: %w", postID, err)
	}

	comments, err := s.parseComments(body)
	if err != nil {
		return nil, fmt.Errorf("parse comments of %s: %w", postID, err)
	}

	for i := range comments {
		comments[i].PostID = postID
	}

	return comments, nil
}

func uniq(batches [][]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, batch := range batches {
		for _, id := range batch {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
