package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rssdigest/domain"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Example News</title>
  <link>https://news.example.com</link>
  <description>Daily news</description>
  <item>
    <title>First</title>
    <link> https://news.example.com/1 </link>
    <pubDate>Sat, 01 Mar 2025 08:30:00 +0800</pubDate>
    <dc:creator>Alice</dc:creator>
    <description><![CDATA[<p>Hello &amp; <b>welcome</b></p>
    <p>second   line</p>]]></description>
    <content:encoded><![CDATA[<p>Full <i>body</i></p>]]></content:encoded>
    <enclosure url="https://cdn.example.com/1.mp3" type="audio/mpeg" length="1"/>
  </item>
  <item>
    <title>No link</title>
    <description>plain</description>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Blog</title>
  <link href="https://blog.example.com/"/>
  <updated>2025-02-28T10:00:00Z</updated>
  <entry>
    <title>Post</title>
    <link href="https://blog.example.com/post"/>
    <updated>2025-02-28T10:00:00Z</updated>
    <author><name>Bob</name></author>
    <summary>Short &lt;b&gt;summary&lt;/b&gt;</summary>
  </entry>
</feed>`

func serve(t *testing.T, body string, status int) (*httptest.Server, *string) {
	t.Helper()
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &ua
}

func TestHTTPFetcher_RSS(t *testing.T) {
	srv, ua := serve(t, rssFeed, http.StatusOK)

	feed, err := NewHTTPFetcher("rssdigest-test").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "rssdigest-test", *ua)
	assert.Equal(t, "Example News", feed.Title)
	assert.Equal(t, "Daily news", feed.Description)
	assert.Equal(t, "https://news.example.com", feed.Link)
	require.Len(t, feed.Items, 2)

	first := feed.Items[0]
	assert.Equal(t, "First", first.Title)
	assert.Equal(t, "https://news.example.com/1", first.Link)
	assert.Equal(t, "Sat, 01 Mar 2025 08:30:00 +0800", first.PubDate)
	assert.Equal(t, "2025-03-01T00:30:00.000Z", first.IsoDate)
	assert.Equal(t, "Alice", first.Creator)
	assert.Equal(t, "<p>Full <i>body</i></p>", first.Content)
	assert.Equal(t, "Full body", first.ContentSnippet)
	assert.Equal(t, &domain.Enclosure{URL: "https://cdn.example.com/1.mp3", Type: "audio/mpeg"}, first.Enclosure)
	assert.Empty(t, first.Summary)

	second := feed.Items[1]
	assert.Empty(t, second.Link)
	assert.Equal(t, "plain", second.Content)
	assert.Empty(t, second.IsoDate)
	assert.Nil(t, second.Enclosure)
}

func TestHTTPFetcher_Atom(t *testing.T) {
	srv, _ := serve(t, atomFeed, http.StatusOK)

	feed, err := NewHTTPFetcher("").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Len(t, feed.Items, 1)
	it := feed.Items[0]
	assert.Equal(t, "https://blog.example.com/post", it.Link)
	assert.Equal(t, "Bob", it.Creator)
	assert.Equal(t, "2025-02-28T10:00:00.000Z", it.IsoDate)
	assert.Equal(t, "Short summary", it.ContentSnippet)
}

func TestHTTPFetcher_Errors(t *testing.T) {
	srv, _ := serve(t, "gateway down", http.StatusBadGateway)
	_, err := NewHTTPFetcher("").Fetch(context.Background(), srv.URL)
	assert.Error(t, err)

	srv, _ = serve(t, "<html>not a feed</html>", http.StatusOK)
	_, err = NewHTTPFetcher("").Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestHTTPFetcher_HonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewHTTPFetcher("").Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
