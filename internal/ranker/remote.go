package ranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"content_harvester/internal/domain"
)

const maxResponseBytes = 4 << 20

type RemoteConfig struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Remote classifies comments with an external batch sentiment endpoint.
type Remote struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewRemote(cfg RemoteConfig, logger *slog.Logger) *Remote {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Remote{
		url:        cfg.URL,
		httpClient: client,
		logger:     logger.With("component", "ranker"),
	}
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Results []Result `json:"results"`
}

// Rank submits the comments as one batch. Empty input, or input whose plain
// text is empty, returns nil without calling the endpoint.
func (r *Remote) Rank(ctx context.Context, comments []domain.Comment) ([]domain.RankedComment, error) {
	if len(comments) == 0 {
		return nil, nil
	}

	batch := prepare(comments)
	if len(batch) == 0 {
		return nil, nil
	}

	texts := make([]string, len(batch))
	for i, s := range batch {
		texts[i] = s.text
	}

	start := time.Now()
	results, err := r.classify(ctx, texts)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("classified batch",
		"texts", len(texts),
		"results", len(results),
		"elapsed", time.Since(start),
	)

	return associate(batch, results, r.logger), nil
}

func (r *Remote) classify(ctx context.Context, texts []string) ([]Result, error) {
	body, err := json.Marshal(classifyRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return out.Results, nil
}
