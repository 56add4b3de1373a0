// Package source fetches the category feeds and the index page listing them.
package source

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

// Feed is the outcome of fetching one feed URL. Err is set when the source could not be
// fetched or parsed; Items is empty in that case.
type Feed struct {
	URL   string
	Items []model.Item
	Err   error
}

type RSSFetcher struct {
	client *http.Client
}

// NewRSSFetcher returns a fetcher using client. Slow sources are waited for, so the client
// is expected to carry no timeout; cancellation comes from the context.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &RSSFetcher{client: client}
}

// FetchAll requests every url concurrently and returns the parsed feeds aligned by index
// with urls. A failing source only affects its own slot.
func (f *RSSFetcher) FetchAll(ctx context.Context, urls []string) []Feed {
	feeds := make([]Feed, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()

			items, err := f.fetch(ctx, url)
			feeds[i] = Feed{URL: url, Items: items, Err: err}
		}(i, url)
	}
	wg.Wait()

	return feeds
}

func (f *RSSFetcher) fetch(ctx context.Context, url string) ([]model.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}

	// gofeed parsers keep state between calls, one per request.
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return lo.Map(feed.Items, func(item *gofeed.Item, _ int) model.Item {
		return model.Item{
			Title:   item.Title,
			Link:    item.Link,
			PubDate: item.Published,
		}
	}), nil
}
