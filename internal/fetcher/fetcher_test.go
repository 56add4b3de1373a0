package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
	"github.com/0x0BSoD/ansaNewsBot/internal/source"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeEnricher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (e *fakeEnricher) Enrich(_ context.Context, link string) (model.Post, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, link)
	if e.fail[link] {
		return model.Post{}, false
	}
	return model.Post{Title: link + "-post", Description: link, ImageURL: "img.jpg", Link: link}, true
}

type fakeCategories struct {
	mu         sync.Mutex
	categories []model.Category
	watermarks map[int64]int64
}

func (s *fakeCategories) Categories(context.Context) ([]model.Category, error) {
	return s.categories, nil
}

func (s *fakeCategories) SetWatermark(_ context.Context, id, epoch int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watermarks == nil {
		s.watermarks = map[int64]int64{}
	}
	s.watermarks[id] = epoch
	return nil
}

type fakeFeeds map[string]source.Feed

func (f fakeFeeds) FetchAll(_ context.Context, urls []string) []source.Feed {
	feeds := make([]source.Feed, len(urls))
	for i, u := range urls {
		feeds[i] = f[u]
	}
	return feeds
}

type fakeReporter struct {
	mu       sync.Mutex
	messages []string
}

func (r *fakeReporter) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func pubDate(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("Mon, 02 Jan 2006 15:04:05 -0700")
}

func TestParsePubDate(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{value: "Mon, 03 Jul 2023 10:00:00 +0200", want: 1688371200},
		{value: "03 Jul 2023 10:00:00 +0200", want: 1688371200},
		{value: " 3 Jul 2023 10:00:00 +0200 ", want: 1688371200},
		{value: "Mon, 03 Jul 2023 10:00:00 GMT", wantErr: true},
		{value: "2023-07-03T10:00:00Z", wantErr: true},
		{value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParsePubDate(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadPubDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectScenario(t *testing.T) {
	enricher := &fakeEnricher{fail: map[string]bool{"L1": true}}
	detector := NewDetector(enricher, discard)
	category := model.Category{ID: 7, Name: "Lazio", Watermark: 1000}

	// Feeds list the most recent item first.
	items := []model.Item{
		{Link: "L3", PubDate: pubDate(1200)},
		{Link: "L2", PubDate: pubDate(1100)},
		{Link: "L1", PubDate: pubDate(900)},
	}

	batch, watermark, err := detector.Detect(context.Background(), category, items)
	require.NoError(t, err)

	require.Len(t, batch.Posts, 2)
	assert.Equal(t, "L2", batch.Posts[0].Link)
	assert.Equal(t, "L3", batch.Posts[1].Link)
	assert.Equal(t, "L3", batch.Latest().Link)
	assert.Equal(t, int64(1200), watermark)
	assert.ElementsMatch(t, []string{"L2", "L3"}, enricher.calls, "items at or below the watermark are not enriched")
}

func TestDetectFailedEnrichmentDoesNotAdvanceWatermark(t *testing.T) {
	detector := NewDetector(&fakeEnricher{fail: map[string]bool{"L3": true}}, discard)
	category := model.Category{ID: 7, Watermark: 1000}

	batch, watermark, err := detector.Detect(context.Background(), category, []model.Item{
		{Link: "L3", PubDate: pubDate(1200)},
		{Link: "L2", PubDate: pubDate(1100)},
	})
	require.NoError(t, err)

	require.Len(t, batch.Posts, 1)
	assert.Equal(t, "L2", batch.Posts[0].Link)
	assert.Equal(t, int64(1100), watermark)
}

func TestDetectNothingNew(t *testing.T) {
	detector := NewDetector(&fakeEnricher{}, discard)
	category := model.Category{ID: 7, Watermark: 1000}

	batch, watermark, err := detector.Detect(context.Background(), category, []model.Item{
		{Link: "L1", PubDate: pubDate(1000)},
		{Link: "L0", PubDate: pubDate(500)},
	})
	require.NoError(t, err)
	assert.Empty(t, batch.Posts)
	assert.Equal(t, int64(1000), watermark)
}

func TestDetectBadPubDateFailsCategory(t *testing.T) {
	enricher := &fakeEnricher{}
	detector := NewDetector(enricher, discard)

	_, _, err := detector.Detect(context.Background(), model.Category{ID: 7, Watermark: 1000}, []model.Item{
		{Link: "L2", PubDate: pubDate(1100)},
		{Title: "strano", Link: "L3", PubDate: "yesterday"},
	})
	assert.ErrorIs(t, err, ErrBadPubDate)
	assert.Empty(t, enricher.calls)
}

func TestWatermarkMonotonicAcrossSnapshots(t *testing.T) {
	detector := NewDetector(&fakeEnricher{fail: map[string]bool{"bad": true}}, discard)
	category := model.Category{ID: 1, Watermark: 1000}

	snapshots := [][]model.Item{
		{{Link: "a", PubDate: pubDate(1500)}},
		{{Link: "b", PubDate: pubDate(1200)}},
		{{Link: "bad", PubDate: pubDate(3000)}},
		{},
		{{Link: "c", PubDate: pubDate(1600)}, {Link: "d", PubDate: pubDate(1400)}},
	}

	for _, items := range snapshots {
		_, watermark, err := detector.Detect(context.Background(), category, items)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, watermark, category.Watermark)
		category.Watermark = watermark
	}
	assert.Equal(t, int64(1600), category.Watermark)
}

func TestFetchIsolatesCategories(t *testing.T) {
	categories := &fakeCategories{categories: []model.Category{
		{ID: 1, Name: "Abruzzo", FeedURL: "abruzzo", Watermark: 1000},
		{ID: 2, Name: "Basilicata", FeedURL: "basilicata", Watermark: 1000},
		{ID: 3, Name: "Calabria", FeedURL: "calabria", Watermark: 1000},
		{ID: 7, Name: "Lazio", FeedURL: "lazio", Watermark: 1000},
	}}
	feeds := fakeFeeds{
		"abruzzo":    {URL: "abruzzo", Items: []model.Item{{Link: "A1", PubDate: "not a date"}}},
		"basilicata": {URL: "basilicata", Err: errors.New("connection reset")},
		"calabria":   {URL: "calabria", Items: []model.Item{{Link: "C1", PubDate: pubDate(900)}}},
		"lazio": {URL: "lazio", Items: []model.Item{
			{Link: "L3", PubDate: pubDate(1200)},
			{Link: "L2", PubDate: pubDate(1100)},
		}},
	}
	reporter := &fakeReporter{}

	f := New(categories, feeds, NewDetector(&fakeEnricher{}, discard), reporter, discard)

	batches, err := f.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, batches, 1)
	assert.Equal(t, int64(7), batches[0].Category.ID)
	assert.Equal(t, int64(1200), batches[0].Category.Watermark)
	assert.Len(t, batches[0].Posts, 2)

	assert.Equal(t, map[int64]int64{7: 1200}, categories.watermarks)
	require.Len(t, reporter.messages, 1)
	assert.Contains(t, reporter.messages[0], "Abruzzo")
}
