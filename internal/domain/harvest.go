package domain

import "time"

// HarvestStats holds statistics about one platform's harvest cycle.
type HarvestStats struct {
	RunID           string        `json:"run_id"`
	Platform        string        `json:"platform"`
	PostsFetched    int           `json:"posts_fetched"`
	PostsUpdated    int           `json:"posts_updated"`
	PostsCreated    int           `json:"posts_created"`
	CommentsFetched int           `json:"comments_fetched"`
	CommentsRanked  int           `json:"comments_ranked"`
	CommentsUpdated int           `json:"comments_updated"`
	CommentsCreated int           `json:"comments_created"`
	WriteErrors     int           `json:"write_errors"`
	Duration        time.Duration `json:"duration"`
	Error           string        `json:"error,omitempty"`
}

// Failed reports whether the cycle was aborted or lost a write.
func (s *HarvestStats) Failed() bool {
	return s.Error != "" || s.WriteErrors > 0
}
