// Package enricher turns an article link into a post by reading the page metadata.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

const (
	titleSelector        = `meta[name="EdTitle"]`
	descriptionSelector  = `meta[name="description"]`
	twitterImageSelector = `meta[name="twitter:image:src"]`
	ogImageSelector      = `meta[property="og:image"]`

	// Image URLs ending with this suffix are placeholders for a missing picture.
	noImageSuffix = ".0"

	maxRedirects = 10
)

var errPermanentRedirect = errors.New("article moved permanently")

type Enricher struct {
	client       *http.Client
	defaultImage string
	logger       *slog.Logger
}

// New returns an enricher using a copy of client that follows redirects except 301s.
func New(client *http.Client, defaultImage string, logger *slog.Logger) *Enricher {
	c := &http.Client{}
	if client != nil {
		*c = *client
	}
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if req.Response != nil && req.Response.StatusCode == http.StatusMovedPermanently {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &Enricher{
		client:       c,
		defaultImage: defaultImage,
		logger:       logger,
	}
}

// Enrich fetches link and builds its post. It reports false when the article must be
// dropped: the page moved permanently, could not be fetched or could not be parsed.
func (e *Enricher) Enrich(ctx context.Context, link string) (model.Post, bool) {
	doc, err := e.load(ctx, link)
	if err != nil {
		if errors.Is(err, errPermanentRedirect) {
			e.logger.Info("skipping redirected article", "link", link)
		} else {
			e.logger.Warn("failed to enrich article", "link", link, "err", err)
		}
		return model.Post{}, false
	}

	return e.extract(doc, link), true
}

func (e *Enricher) load(ctx context.Context, link string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMovedPermanently:
		return nil, errPermanentRedirect
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch article: unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}

	return doc, nil
}

func (e *Enricher) extract(doc *goquery.Document, link string) model.Post {
	title := metaContent(doc, titleSelector)

	description := metaContent(doc, descriptionSelector)
	if description == "" {
		description = title
	}

	return model.Post{
		Title:       title,
		Description: description,
		ImageURL:    PickImage(e.defaultImage, metaContent(doc, twitterImageSelector), metaContent(doc, ogImageSelector)),
		Link:        link,
	}
}

// PickImage returns the first usable candidate, or fallback when every candidate is
// missing or a no-image placeholder.
func PickImage(fallback string, candidates ...string) string {
	image, ok := lo.Find(candidates, func(c string) bool {
		return c != "" && !strings.HasSuffix(c, noImageSuffix)
	})
	if !ok {
		return fallback
	}
	return image
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
