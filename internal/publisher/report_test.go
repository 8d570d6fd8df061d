package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_harvester/internal/domain"
)

func TestNewReportMessage(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*60*60))

	tests := []struct {
		name   string
		stats  domain.HarvestStats
		status string
	}{
		{
			name:   "clean run",
			stats:  domain.HarvestStats{RunID: "r1", Platform: "VC", PostsCreated: 4},
			status: StatusOK,
		},
		{
			name:   "aborted run",
			stats:  domain.HarvestStats{RunID: "r2", Platform: "Хабр", Error: "list stored posts: timeout"},
			status: StatusFailed,
		},
		{
			name:   "lost write",
			stats:  domain.HarvestStats{RunID: "r3", Platform: "Телеграм", WriteErrors: 1},
			status: StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewReportMessage(&tt.stats, now)

			assert.Equal(t, tt.stats.RunID, msg.RunID)
			assert.Equal(t, tt.stats.Platform, msg.Platform)
			assert.Equal(t, tt.status, msg.Status)
			assert.Equal(t, time.UTC, msg.Timestamp.Location())
			assert.True(t, msg.Timestamp.Equal(now))
		})
	}
}

func TestReportMessage_JSONShape(t *testing.T) {
	stats := &domain.HarvestStats{RunID: "r1", Platform: "VC", CommentsRanked: 7}
	body, err := json.Marshal(NewReportMessage(stats, time.Unix(0, 0)))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Equal(t, "r1", decoded["run_id"])
	assert.Equal(t, "ok", decoded["status"])
	require.IsType(t, map[string]any{}, decoded["stats"])
	assert.Equal(t, float64(7), decoded["stats"].(map[string]any)["comments_ranked"])
	assert.NotContains(t, decoded["stats"], "error")
}
