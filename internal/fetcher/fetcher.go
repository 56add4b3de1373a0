package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
	"github.com/0x0BSoD/ansaNewsBot/internal/source"
)

type CategoryStorage interface {
	Categories(ctx context.Context) ([]model.Category, error)
	SetWatermark(ctx context.Context, categoryID, epoch int64) error
}

type FeedSource interface {
	FetchAll(ctx context.Context, urls []string) []source.Feed
}

type Reporter interface {
	Notify(msg string)
}

// Fetcher runs the fetch and detection stages of a poll cycle.
type Fetcher struct {
	categories CategoryStorage
	feeds      FeedSource
	detector   *Detector
	reporter   Reporter
	logger     *slog.Logger
}

func New(
	categories CategoryStorage,
	feeds FeedSource,
	detector *Detector,
	reporter Reporter,
	logger *slog.Logger,
) *Fetcher {
	return &Fetcher{
		categories: categories,
		feeds:      feeds,
		detector:   detector,
		reporter:   reporter,
		logger:     logger,
	}
}

// Fetch pulls every category feed, detects the new items of each category concurrently
// and persists the advanced watermarks. Categories without new items yield no batch.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.Batch, error) {
	categories, err := f.categories.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	feeds := f.feeds.FetchAll(ctx, lo.Map(categories, func(c model.Category, _ int) string {
		return c.FeedURL
	}))

	batches := make([]*model.Batch, len(categories))

	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func(i int, category model.Category, feed source.Feed) {
			defer wg.Done()
			batches[i] = f.detect(ctx, category, feed)
		}(i, category, feeds[i])
	}
	wg.Wait()

	return lo.FilterMap(batches, func(b *model.Batch, _ int) (model.Batch, bool) {
		if b == nil {
			return model.Batch{}, false
		}
		return *b, true
	}), nil
}

func (f *Fetcher) detect(ctx context.Context, category model.Category, feed source.Feed) *model.Batch {
	logger := f.logger.With("category_id", category.ID, "category", category.Name)

	if feed.Err != nil {
		logger.Warn("failed to fetch feed", "url", feed.URL, "err", feed.Err)
		return nil
	}

	batch, watermark, err := f.detector.Detect(ctx, category, feed.Items)
	if err != nil {
		logger.Error("failed to detect new items", "err", err)
		if errors.Is(err, ErrBadPubDate) {
			f.reporter.Notify(fmt.Sprintf("Feed %q (%d) skipped: %v", category.Name, category.ID, err))
		}
		return nil
	}

	if len(batch.Posts) == 0 {
		return nil
	}

	if watermark > category.Watermark {
		if err := f.categories.SetWatermark(ctx, category.ID, watermark); err != nil {
			logger.Error("failed to store watermark", "watermark", watermark, "err", err)
		}
		batch.Category.Watermark = watermark
	}

	logger.Info("new items detected", "count", len(batch.Posts), "watermark", watermark)

	return &batch
}
