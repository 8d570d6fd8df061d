package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_harvester/internal/domain"
	"content_harvester/internal/storage/tables"
)

func stored(id string, fields map[string]any) tables.Record {
	return tables.Record{RecordID: id, Fields: fields}
}

func TestPosts_RoutesByNameAndPlatform(t *testing.T) {
	existing := []tables.Record{
		stored("rec1", map[string]any{tables.FieldName: "A", tables.FieldPlatform: "Хабр"}),
	}
	posts := []domain.Post{
		{PostID: "1", Name: "A", Likes: 5},
		{PostID: "2", Name: "B", Likes: 1},
	}

	res, err := Posts(posts, existing, "Хабр")
	require.NoError(t, err)

	require.Len(t, res.Updates, 1)
	require.Len(t, res.Creates, 1)
	assert.Equal(t, "rec1", res.Updates[0].RecordID)
	assert.Equal(t, "A", res.Updates[0].Fields[tables.FieldName])
	assert.Equal(t, 5, res.Updates[0].Fields[tables.FieldLikes])
	assert.Empty(t, res.Creates[0].RecordID)
	assert.Equal(t, "B", res.Creates[0].Fields[tables.FieldName])
	assert.Equal(t, "Хабр", res.Creates[0].Fields[tables.FieldPlatform])
}

func TestPosts_SameNameOtherPlatformIsCreate(t *testing.T) {
	existing := []tables.Record{
		stored("rec1", map[string]any{tables.FieldName: "A", tables.FieldPlatform: "VC"}),
	}

	res, err := Posts([]domain.Post{{Name: "A"}}, existing, "Хабр")
	require.NoError(t, err)

	assert.Empty(t, res.Updates)
	require.Len(t, res.Creates, 1)
}

func TestPosts_FirstStoredDuplicateWins(t *testing.T) {
	existing := []tables.Record{
		stored("rec1", map[string]any{tables.FieldName: "A", tables.FieldPlatform: "VC"}),
		stored("rec2", map[string]any{tables.FieldName: "A", tables.FieldPlatform: "VC"}),
	}

	res, err := Posts([]domain.Post{{Name: "A"}}, existing, "VC")
	require.NoError(t, err)

	require.Len(t, res.Updates, 1)
	assert.Equal(t, "rec1", res.Updates[0].RecordID)
}

func TestPosts_Idempotent(t *testing.T) {
	existing := []tables.Record{
		stored("rec1", map[string]any{tables.FieldName: "A", tables.FieldPlatform: "Хабр"}),
		stored("rec2", map[string]any{tables.FieldName: "C", tables.FieldPlatform: "Хабр"}),
	}
	posts := []domain.Post{{Name: "A"}, {Name: "B"}, {Name: "C", Tags: []string{"go"}}}

	first, err := Posts(posts, existing, "Хабр")
	require.NoError(t, err)
	second, err := Posts(posts, existing, "Хабр")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}
	assert.Len(t, existing, 2)
}

func TestPosts_EveryFreshItemRoutedOnce(t *testing.T) {
	existing := []tables.Record{
		stored("rec1", map[string]any{tables.FieldName: "A", tables.FieldPlatform: "VC"}),
		stored("bad", map[string]any{tables.FieldName: []any{"not", "a", "name"}}),
	}
	posts := []domain.Post{{Name: "A"}, {Name: "B"}, {Name: "A"}}

	res, err := Posts(posts, existing, "VC")
	require.NoError(t, err)

	assert.Len(t, res.Updates, 2)
	assert.Len(t, res.Creates, 1)
	for _, r := range res.Updates {
		assert.Equal(t, "rec1", r.RecordID)
	}
}

func TestComments_ResolvesPostTitle(t *testing.T) {
	posts := []domain.Post{{PostID: "10", Name: "Launch"}}
	existing := []tables.Record{
		stored("c1", map[string]any{tables.FieldText: "<p>great</p>"}),
	}
	comments := []domain.RankedComment{
		{
			Comment:    domain.Comment{PostID: "10", Content: "<p>great</p>", Score: 4},
			Sentiment:  domain.SentimentPositive,
			Confidence: 0.8,
		},
		{
			Comment:    domain.Comment{PostID: "99", Content: "orphan", Score: -1},
			Sentiment:  domain.SentimentNeutral,
			Confidence: 0.3,
		},
	}

	res, err := Comments(comments, posts, existing, "Хабр")
	require.NoError(t, err)

	want := Result{
		Updates: []tables.Record{{
			RecordID: "c1",
			Fields: map[string]any{
				tables.FieldText:       "<p>great</p>",
				tables.FieldScore:      4,
				tables.FieldSentiment:  "Позитивная",
				tables.FieldConfidence: 0.8,
				tables.FieldPlatform:   "Хабр",
				tables.FieldPostTitle:  "Launch",
			},
		}},
		Creates: []tables.Record{{
			Fields: map[string]any{
				tables.FieldText:       "orphan",
				tables.FieldScore:      -1,
				tables.FieldSentiment:  "Нейтральная",
				tables.FieldConfidence: 0.3,
				tables.FieldPlatform:   "Хабр",
			},
		}},
	}
	if diff := cmp.Diff(want, res, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Comments() mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcile_Empty(t *testing.T) {
	res, err := Posts(nil, nil, "VC")
	require.NoError(t, err)
	assert.Empty(t, res.Updates)
	assert.Empty(t, res.Creates)
}
