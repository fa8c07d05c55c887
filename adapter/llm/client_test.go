package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"rssdigest/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := Config{
		BaseURL:     srv.URL + "/v1/",
		APIKey:      "sk-test",
		Model:       "test-model",
		Temperature: 0.3,
		MaxTokens:   500,
		Language:    "Chinese",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg, srv.Client(), zaptest.NewLogger(t))
}

func TestClient_Summarize(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  summary text \n"}}],"usage":{"total_tokens":42}}`))
	}, nil)

	summary, err := c.Summarize(context.Background(), "Title", "<p>Body</p>")
	require.NoError(t, err)

	assert.Equal(t, "summary text", summary)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "Title: Title")
	assert.Contains(t, got.Messages[0].Content, "in Chinese")
	assert.Contains(t, got.Messages[0].Content, "Body")
	assert.NotContains(t, got.Messages[0].Content, "<p>")
}

func TestClient_SummarizeRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}, nil)

	_, err := c.Summarize(context.Background(), "t", "b")
	assert.ErrorIs(t, err, domain.ErrSummarize)
}

func TestClient_SummarizeEmpty(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":"   "}}]}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}, nil)

		_, err := c.Summarize(context.Background(), "t", "b")
		assert.ErrorIs(t, err, domain.ErrEmptySummary, body)
	}
}

func TestClient_SummarizeMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}, nil)

	_, err := c.Summarize(context.Background(), "t", "b")
	assert.ErrorIs(t, err, domain.ErrSummarize)
}

func TestClient_RateLimitWaitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}, func(cfg *Config) { cfg.RateLimit = 0.001 })

	_, err := c.Summarize(context.Background(), "t", "b")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Summarize(ctx, "t", "b")
	assert.ErrorIs(t, err, domain.ErrSummarize)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Prompt(t *testing.T) {
	c := NewClient(Config{MaxInputChars: 6}, nil, zaptest.NewLogger(t))

	p := c.Prompt("Headline", "<div>你好世界 &amp; more</div>")

	assert.Contains(t, p, "in English")
	assert.Contains(t, p, "Title: Headline")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p), "你好世界 &"))
}
