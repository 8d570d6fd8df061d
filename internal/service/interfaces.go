package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"content_harvester/internal/domain"
	"content_harvester/internal/storage/tables"
)

type Source interface {
	Platform() string
	FetchPosts(ctx context.Context) ([]domain.Post, error)
}

// CommentSource is a Source that can also serve per-post comments.
type CommentSource interface {
	Source
	FetchComments(ctx context.Context, postID string) ([]domain.Comment, error)
}

type Ranker interface {
	Rank(ctx context.Context, comments []domain.Comment) ([]domain.RankedComment, error)
}

type Store interface {
	ListAll(ctx context.Context, table tables.Table) ([]tables.Record, error)
	Write(ctx context.Context, table tables.Table, updates, creates []tables.Record) tables.WriteOutcome
}

type Reporter interface {
	Publish(ctx context.Context, stats *domain.HarvestStats) error
}

// PlatformHarvester runs one platform's cycle.
type PlatformHarvester interface {
	Platform() string
	Harvest(ctx context.Context) (*domain.HarvestStats, error)
}
