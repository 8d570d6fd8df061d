package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_harvester/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeHistory serves a channel of total messages with IDs total..1, newest
// first, and records every call.
type fakeHistory struct {
	total int
	calls []int
	fail  error
}

func (f *fakeHistory) History(_ context.Context, fromID, limit int) ([]Message, error) {
	f.calls = append(f.calls, fromID)
	if f.fail != nil {
		return nil, f.fail
	}

	start := f.total
	if fromID != 0 {
		start = fromID - 1
	}
	var out []Message
	for id := start; id >= 1 && len(out) < limit; id-- {
		out = append(out, Message{ID: id, Kind: KindText, Text: "post"})
	}
	return out, nil
}

type fakeSessions struct {
	history History
	err     error
}

func (f *fakeSessions) Session(ctx context.Context, fn func(context.Context, History) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx, f.history)
}

func TestToPost_CaptionWithTagsAndReactions(t *testing.T) {
	post, ok := ToPost(Message{
		ID:        501,
		Kind:      KindPhoto,
		Text:      "Big news #tech #ai",
		Views:     1200,
		Forwards:  8,
		Reactions: []string{"👍", "👍", "👎"},
	})

	require.True(t, ok)
	assert.Equal(t, domain.Post{
		PostID:         "501",
		Name:           "Big news #tech #ai",
		Likes:          2,
		Dislikes:       1,
		ReadingCount:   1200,
		FavoritesCount: 8,
		Tags:           []string{"#tech", "#ai"},
	}, post)
}

func TestToPost_NameIsFirstParagraph(t *testing.T) {
	post, ok := ToPost(Message{ID: 1, Kind: KindText, Text: "Заголовок релиза\nвторая строка\n\nТело поста #релиз_2"})

	require.True(t, ok)
	assert.Equal(t, "Заголовок релиза\nвторая строка", post.Name)
	assert.Equal(t, []string{"#релиз_2"}, post.Tags)
}

func TestToPost_SkipsUnsupportedMessages(t *testing.T) {
	cases := []Message{
		{ID: 1, Kind: KindOther, Text: "sticker"},
		{ID: 2, Kind: KindPhoto, Text: ""},
		{ID: 3, Kind: KindText, Text: ""},
	}
	for _, m := range cases {
		_, ok := ToPost(m)
		assert.False(t, ok, "message %d", m.ID)
	}
}

func TestToPost_NoTagsIsEmptySlice(t *testing.T) {
	post, ok := ToPost(Message{ID: 1, Kind: KindText, Text: "plain"})
	require.True(t, ok)
	assert.NotNil(t, post.Tags)
	assert.Empty(t, post.Tags)
}

func TestCountReactions(t *testing.T) {
	likes, dislikes := CountReactions([]string{"❤", "❤️", "🔥", "🤡", "🐳", "💩"})

	assert.Equal(t, 3, likes)
	assert.Equal(t, 2, dislikes)
}

func TestFetchPosts_StopsAtPageLimit(t *testing.T) {
	h := &fakeHistory{total: 5000}
	src := New(&fakeSessions{history: h}, Config{}, testLogger)

	posts, err := src.FetchPosts(context.Background())

	require.NoError(t, err)
	assert.Len(t, h.calls, DefaultMaxPages)
	assert.Len(t, posts, DefaultMaxPages*DefaultPageSize)
	assert.Equal(t, []int{0, 4901, 4801}, h.calls[:3])
}

func TestFetchPosts_StopsWhenHistoryIsExhausted(t *testing.T) {
	h := &fakeHistory{total: 250}
	src := New(&fakeSessions{history: h}, Config{MaxPages: 10, PageSize: 100}, testLogger)

	posts, err := src.FetchPosts(context.Background())

	require.NoError(t, err)
	assert.Len(t, posts, 250)
	// three pages of data, then one empty page ends the walk
	assert.Equal(t, []int{0, 151, 51, 1}, h.calls)
}

func TestFetchPosts_FiltersNonTextMessages(t *testing.T) {
	h := &scriptedHistory{pages: [][]Message{{
		{ID: 9, Kind: KindText, Text: "hello"},
		{ID: 8, Kind: KindOther},
		{ID: 7, Kind: KindPhoto, Text: "caption"},
		{ID: 6, Kind: KindPhoto},
	}}}
	src := New(&fakeSessions{history: h}, Config{}, testLogger)

	posts, err := src.FetchPosts(context.Background())

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "9", posts[0].PostID)
	assert.Equal(t, "7", posts[1].PostID)
}

func TestFetchPosts_SessionError(t *testing.T) {
	src := New(&fakeSessions{err: errors.New("auth key unregistered")}, Config{}, testLogger)

	posts, err := src.FetchPosts(context.Background())

	assert.Nil(t, posts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read channel history")
}

func TestFetchPosts_HistoryError(t *testing.T) {
	src := New(&fakeSessions{history: &fakeHistory{fail: errors.New("FLOOD_WAIT")}}, Config{}, testLogger)

	_, err := src.FetchPosts(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch page 0")
}

type scriptedHistory struct {
	pages [][]Message
	next  int
}

func (s *scriptedHistory) History(context.Context, int, int) ([]Message, error) {
	if s.next >= len(s.pages) {
		return nil, nil
	}
	p := s.pages[s.next]
	s.next++
	return p, nil
}
