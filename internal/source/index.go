package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

// ScrapeIndex reads the categories listed on the feed index page. Each category is a dd
// element holding two list items: the category name and the link to its RSS feed.
// Categories get sequential ids starting at 1 and the given watermark.
func ScrapeIndex(ctx context.Context, client *http.Client, indexURL string, watermark int64) ([]model.Category, error) {
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch index: unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	var categories []model.Category
	doc.Find("dd").EachWithBreak(func(i int, dd *goquery.Selection) bool {
		var c model.Category
		c, err = parseIndexEntry(base, dd)
		if err != nil {
			err = fmt.Errorf("index entry %d: %w", i, err)
			return false
		}
		c.ID = int64(len(categories) + 1)
		c.Watermark = watermark
		categories = append(categories, c)
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories found at %s", indexURL)
	}

	return categories, nil
}

func parseIndexEntry(base *url.URL, dd *goquery.Selection) (model.Category, error) {
	items := dd.Find("ul li")
	if items.Length() != 2 {
		return model.Category{}, fmt.Errorf("expected 2 list items, got %d", items.Length())
	}

	name := strings.Join(strings.Fields(items.Eq(0).Find("a").First().Text()), " ")
	if name == "" {
		return model.Category{}, fmt.Errorf("missing category name")
	}

	href, ok := items.Eq(1).Find("a.b-rss").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return model.Category{}, fmt.Errorf("missing feed link for %q", name)
	}

	feedURL, err := resolveFeedURL(base, strings.TrimSpace(href))
	if err != nil {
		return model.Category{}, fmt.Errorf("feed link for %q: %w", name, err)
	}

	return model.Category{Name: name, FeedURL: feedURL}, nil
}

// resolveFeedURL joins relative feed links to the root of the index host.
func resolveFeedURL(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	root := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return root.ResolveReference(&url.URL{
		Path:     strings.TrimPrefix(ref.Path, "/"),
		RawQuery: ref.RawQuery,
	}).String(), nil
}
