package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"content_harvester/internal/domain"
)

const (
	Platform = "Телеграм"

	DefaultMaxPages = 10
	DefaultPageSize = 100
)

var hashtag = regexp.MustCompile(`#(?:[^\x00-\x7F]|\w)+`)

var positiveEmojis = emojiSet(
	"👍", "❤️", "🔥", "😂", "🎉", "💖", "🤩", "😍", "😁", "🥳", "💯", "✨", "😎", "😃", "🤗",
)

var negativeEmojis = emojiSet(
	"👎", "😡", "🤬", "😠", "🙄", "😤", "😢", "💔", "😭", "😒", "🤯", "💩", "🤡",
)

type Config struct {
	MaxPages int
	PageSize int
}

// Source harvests the posts of a channel from its recent history. It has no
// comment capability.
type Source struct {
	sessions Sessions
	maxPages int
	pageSize int
	logger   *slog.Logger
}

func New(sessions Sessions, cfg Config, logger *slog.Logger) *Source {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	return &Source{
		sessions: sessions,
		maxPages: cfg.MaxPages,
		pageSize: cfg.PageSize,
		logger:   logger.With("source", Platform),
	}
}

func (s *Source) Platform() string {
	return Platform
}

func (s *Source) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	var messages []Message

	err := s.sessions.Session(ctx, func(ctx context.Context, h History) error {
		var err error
		messages, err = s.collect(ctx, h)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read channel history: %w", err)
	}

	posts := make([]domain.Post, 0, len(messages))
	for _, m := range messages {
		if post, ok := ToPost(m); ok {
			posts = append(posts, post)
		}
	}

	s.logger.Debug("mapped channel history",
		"messages", len(messages),
		"posts", len(posts),
	)

	return posts, nil
}

// collect walks the history backward until it runs out of messages or
// reaches the page limit.
func (s *Source) collect(ctx context.Context, h History) ([]Message, error) {
	var all []Message
	fromID := 0

	for page := 0; page < s.maxPages; page++ {
		msgs, err := h.History(ctx, fromID, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(msgs) == 0 {
			break
		}

		all = append(all, msgs...)
		fromID = msgs[len(msgs)-1].ID

		s.logger.Debug("fetched page",
			"page", page,
			"messages", len(msgs),
			"total", len(all),
		)
	}

	return all, nil
}

// ToPost maps a text message or a captioned photo. Anything else is skipped.
func ToPost(m Message) (domain.Post, bool) {
	if m.Kind != KindText && m.Kind != KindPhoto {
		return domain.Post{}, false
	}
	if m.Text == "" {
		return domain.Post{}, false
	}

	name, _, _ := strings.Cut(m.Text, "\n\n")
	likes, dislikes := CountReactions(m.Reactions)

	tags := hashtag.FindAllString(m.Text, -1)
	if tags == nil {
		tags = []string{}
	}

	return domain.Post{
		PostID:         strconv.Itoa(m.ID),
		Name:           name,
		Likes:          likes,
		Dislikes:       dislikes,
		ReadingCount:   m.Views,
		FavoritesCount: m.Forwards,
		Tags:           tags,
	}, true
}

// CountReactions classifies reactions into approval and disapproval.
// Emoji outside both sets count toward neither.
func CountReactions(reactions []string) (likes, dislikes int) {
	for _, r := range reactions {
		r = normalizeEmoji(r)
		switch {
		case positiveEmojis[r]:
			likes++
		case negativeEmojis[r]:
			dislikes++
		}
	}
	return likes, dislikes
}

func emojiSet(emojis ...string) map[string]bool {
	set := make(map[string]bool, len(emojis))
	for _, e := range emojis {
		set[normalizeEmoji(e)] = true
	}
	return set
}

// normalizeEmoji drops the emoji presentation selector, which the platform
// sends inconsistently ("❤" vs "❤️").
func normalizeEmoji(s string) string {
	return strings.ReplaceAll(s, "\uFE0F", "")
}
