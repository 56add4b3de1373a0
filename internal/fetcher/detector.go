package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

var ErrBadPubDate = errors.New("unrecognized pubDate format")

// Feeds publish pubDate either with or without the leading weekday.
var pubDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

// ParsePubDate converts a feed pubDate into a unix epoch.
func ParsePubDate(value string) (int64, error) {
	value = strings.TrimSpace(value)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadPubDate, value)
}

type Enricher interface {
	Enrich(ctx context.Context, link string) (model.Post, bool)
}

type Detector struct {
	enricher Enricher
	logger   *slog.Logger
}

func NewDetector(enricher Enricher, logger *slog.Logger) *Detector {
	return &Detector{enricher: enricher, logger: logger}
}

// Detect selects the items of a category published after its watermark, enriches them and
// returns the resulting batch ordered oldest-first together with the new watermark.
//
// Only enriched items advance the watermark; items that fail enrichment are dropped. A
// single pubDate in an unknown format fails the whole category and nothing is returned.
func (d *Detector) Detect(ctx context.Context, category model.Category, items []model.Item) (model.Batch, int64, error) {
	batch := model.Batch{Category: category}

	fresh := make([]model.Item, 0, len(items))
	for _, item := range lo.UniqBy(items, func(item model.Item) string { return item.Link }) {
		epoch, err := ParsePubDate(item.PubDate)
		if err != nil {
			return batch, category.Watermark, fmt.Errorf("item %q: %w", item.Title, err)
		}
		if epoch <= category.Watermark {
			continue
		}
		item.CategoryID = category.ID
		item.Epoch = epoch
		fresh = append(fresh, item)
	}

	sort.SliceStable(fresh, func(i, j int) bool { return fresh[i].Epoch < fresh[j].Epoch })

	posts := make([]model.Post, len(fresh))
	enriched := make([]bool, len(fresh))

	var wg sync.WaitGroup
	for i, item := range fresh {
		wg.Add(1)
		go func(i int, item model.Item) {
			defer wg.Done()
			posts[i], enriched[i] = d.enricher.Enrich(ctx, item.Link)
		}(i, item)
	}
	wg.Wait()

	watermark := category.Watermark
	for i, item := range fresh {
		if !enriched[i] {
			d.logger.Debug("dropping item", "category_id", category.ID, "link", item.Link)
			continue
		}
		batch.Posts = append(batch.Posts, posts[i])
		watermark = max(watermark, item.Epoch)
	}

	return batch, watermark, nil
}
