package rss

import (
	"context"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"rssdigest/domain"
)

// isoLayout matches JavaScript's Date.toISOString, which existing snapshots use.
const isoLayout = "2006-01-02T15:04:05.000Z"

type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	strip     *bluemonday.Policy
}

func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	return NewHTTPFetcherWithClient(&http.Client{Timeout: 30 * time.Second}, userAgent)
}

func NewHTTPFetcherWithClient(client *http.Client, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{client: client, userAgent: userAgent, strip: bluemonday.StrictPolicy()}
}

// Fetch downloads and parses an RSS, Atom or JSON feed.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) (*domain.FetchedFeed, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client
	if f.userAgent != "" {
		fp.UserAgent = f.userAgent
	}
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		items = append(items, f.toEntry(it))
	}
	return &domain.FetchedFeed{
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.Link,
		Items:       items,
	}, nil
}

func (f *HTTPFetcher) toEntry(it *gofeed.Item) domain.Entry {
	content := it.Content
	if content == "" {
		content = it.Description
	}
	e := domain.Entry{
		Title:          it.Title,
		Link:           strings.TrimSpace(it.Link),
		PubDate:        it.Published,
		Content:        content,
		ContentSnippet: f.snippet(content),
		Creator:        creator(it),
	}
	switch {
	case it.PublishedParsed != nil:
		e.IsoDate = it.PublishedParsed.UTC().Format(isoLayout)
	case it.UpdatedParsed != nil:
		e.IsoDate = it.UpdatedParsed.UTC().Format(isoLayout)
	}
	if e.PubDate == "" {
		e.PubDate = it.Updated
	}
	if len(it.Enclosures) > 0 && it.Enclosures[0] != nil {
		e.Enclosure = &domain.Enclosure{URL: it.Enclosures[0].URL, Type: it.Enclosures[0].Type}
	}
	return e
}

// snippet renders HTML content as plain text.
func (f *HTTPFetcher) snippet(content string) string {
	text := html.UnescapeString(f.strip.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

func creator(it *gofeed.Item) string {
	if it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0 {
		return it.DublinCoreExt.Creator[0]
	}
	if it.Author != nil {
		return it.Author.Name
	}
	return ""
}
