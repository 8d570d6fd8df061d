package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"content_harvester/internal/domain"
	"content_harvester/internal/reconcile"
	"content_harvester/internal/settle"
	"content_harvester/internal/storage/tables"
)

// Tables names the post and comment datasheets of the store.
type Tables struct {
	Posts    tables.Table
	Comments tables.Table
}

type HarvesterConfig struct {
	// Concurrency bounds parallel per-post comment fetches.
	Concurrency int
}

// Harvester runs the cycle for a single platform: posts are fetched,
// reconciled against the stored snapshot and written, then the same is
// done for ranked comments when the source serves them.
type Harvester struct {
	source Source
	store  Store
	ranker Ranker
	tables Tables
	logger *slog.Logger
	config HarvesterConfig
}

func NewHarvester(
	source Source,
	store Store,
	ranker Ranker,
	tbl Tables,
	logger *slog.Logger,
	cfg HarvesterConfig,
) *Harvester {
	return &Harvester{
		source: source,
		store:  store,
		ranker: ranker,
		tables: tbl,
		logger: logger.With("platform", source.Platform()),
		config: cfg,
	}
}

func (h *Harvester) Platform() string {
	return h.source.Platform()
}

// Harvest returns the cycle's stats even when it fails; the error is set
// only when the cycle was aborted.
func (h *Harvester) Harvest(ctx context.Context) (*domain.HarvestStats, error) {
	startTime := time.Now()
	platform := h.source.Platform()
	stats := &domain.HarvestStats{
		RunID:    uuid.NewString(),
		Platform: platform,
	}
	logger := h.logger.With("run_id", stats.RunID)
	defer func() { stats.Duration = time.Since(startTime) }()

	logger.Info("starting harvest")

	posts, err := h.source.FetchPosts(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch posts: %w", err)
	}
	stats.PostsFetched = len(posts)
	logger.Info("fetched posts", "count", len(posts))

	storedPosts, err := h.store.ListAll(ctx, h.tables.Posts)
	if err != nil {
		return stats, fmt.Errorf("list stored posts: %w", err)
	}

	postSet, err := reconcile.Posts(posts, storedPosts, platform)
	if err != nil {
		return stats, err
	}
	logger.Debug("reconciled posts", "updates", len(postSet.Updates), "creates", len(postSet.Creates))

	out := h.store.Write(ctx, h.tables.Posts, postSet.Updates, postSet.Creates)
	stats.PostsUpdated, stats.PostsCreated = written(out, postSet)
	stats.WriteErrors += out.Failed()

	cs, ok := h.source.(CommentSource)
	if !ok {
		h.logCompleted(logger, stats, startTime)
		return stats, nil
	}

	fetched, ranked := h.collectComments(ctx, cs, posts, logger)
	stats.CommentsFetched = fetched
	stats.CommentsRanked = len(ranked)
	logger.Info("ranked comments", "fetched", fetched, "ranked", len(ranked))

	storedComments, err := h.store.ListAll(ctx, h.tables.Comments)
	if err != nil {
		return stats, fmt.Errorf("list stored comments: %w", err)
	}

	commentSet, err := reconcile.Comments(ranked, posts, storedComments, platform)
	if err != nil {
		return stats, err
	}

	out = h.store.Write(ctx, h.tables.Comments, commentSet.Updates, commentSet.Creates)
	stats.CommentsUpdated, stats.CommentsCreated = written(out, commentSet)
	stats.WriteErrors += out.Failed()

	h.logCompleted(logger, stats, startTime)
	return stats, nil
}

type postComments struct {
	fetched int
	ranked  []domain.RankedComment
}

// collectComments fetches and ranks every post's comments in parallel. A
// post whose fetch or ranking fails contributes nothing.
func (h *Harvester) collectComments(
	ctx context.Context,
	cs CommentSource,
	posts []domain.Post,
	logger *slog.Logger,
) (int, []domain.RankedComment) {
	res := settle.All(ctx, h.config.Concurrency, len(posts), func(ctx context.Context, i int) (postComments, error) {
		postID := posts[i].PostID
		comments, err := cs.FetchComments(ctx, postID)
		if err != nil {
			return postComments{}, fmt.Errorf("fetch comments for %s: %w", postID, err)
		}
		if len(comments) == 0 {
			return postComments{}, nil
		}

		ranked, err := h.ranker.Rank(ctx, comments)
		if err != nil {
			return postComments{}, fmt.Errorf("rank comments for %s: %w", postID, err)
		}
		return postComments{fetched: len(comments), ranked: ranked}, nil
	})

	for _, f := range res.Failures {
		logger.Warn("comments skipped", "post_id", posts[f.Index].PostID, "error", f.Err)
	}

	var (
		fetched int
		ranked  []domain.RankedComment
	)
	for _, pc := range res.Values {
		fetched += pc.fetched
		ranked = append(ranked, pc.ranked...)
	}
	return fetched, ranked
}

func written(out tables.WriteOutcome, set reconcile.Result) (updated, created int) {
	if out.Update.Err == nil {
		updated = len(set.Updates)
	}
	if out.Create.Err == nil {
		created = len(set.Creates)
	}
	return updated, created
}

func (h *Harvester) logCompleted(logger *slog.Logger, stats *domain.HarvestStats, startTime time.Time) {
	logger.Info("harvest completed",
		"posts_fetched", stats.PostsFetched,
		"posts_updated", stats.PostsUpdated,
		"posts_created", stats.PostsCreated,
		"comments_fetched", stats.CommentsFetched,
		"comments_ranked", stats.CommentsRanked,
		"comments_updated", stats.CommentsUpdated,
		"comments_created", stats.CommentsCreated,
		"write_errors", stats.WriteErrors,
		"duration", time.Since(startTime),
	)
}
