package publisher

import (
	"time"

	"content_harvester/internal/domain"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ReportMessage announces the outcome of one platform's harvest cycle.
type ReportMessage struct {
	RunID     string              `json:"run_id"`
	Platform  string              `json:"platform"`
	Status    string              `json:"status"`
	Stats     domain.HarvestStats `json:"stats"`
	Timestamp time.Time           `json:"timestamp"`
}

func NewReportMessage(stats *domain.HarvestStats, now time.Time) ReportMessage {
	status := StatusOK
	if stats.Failed() {
		status = StatusFailed
	}
	return ReportMessage{
		RunID:     stats.RunID,
		Platform:  stats.Platform,
		Status:    status,
		Stats:     *stats,
		Timestamp: now.UTC(),
	}
}
