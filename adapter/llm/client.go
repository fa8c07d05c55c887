// Package llm summarizes entries through an OpenAI-compatible chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"rssdigest/domain"
)

const promptTemplate = `You are a professional news digest writer. Summarize the article below in %[1]s.

The summary must contain:
1. Main content: two sentences (about 50 words) stating the core event and basic facts.
2. Key points: the two most important takeaways, as an unordered list.
3. Impact: one or two likely broader consequences.
4. Market impact: the expected short-term effect on global stock, futures and precious metal markets,
   rated as one of "strongly positive", "positive", "no impact", "negative", "strongly negative",
   with the reason in parentheses unless the rating is "no impact". Present it as an unordered list.
Keep the whole summary under 250 words.

Title: %[2]s

Content:
%[3]s
`

type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Temperature   float64
	MaxTokens     int
	Language      string
	MaxInputChars int
	// RateLimit is the maximum number of requests per second. Zero disables limiting.
	RateLimit float64
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	strip      *bluemonday.Policy
	logger     *zap.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	if cfg.Language == "" {
		cfg.Language = "English"
	}
	c := &Client{
		cfg:        cfg,
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		httpClient: httpClient,
		strip:      bluemonday.StrictPolicy(),
		logger:     logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// Summarize asks the model for a summary of the article.
func (c *Client) Summarize(ctx context.Context, title, text string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", domain.ErrSummarize, err)
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: c.Prompt(title, text)}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSummarize, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrSummarize, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("chat completion rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return "", fmt.Errorf("%w: status %s", domain.ErrSummarize, resp.Status)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("%w: parse response: %w", domain.ErrSummarize, err)
	}
	if len(out.Choices) == 0 {
		return "", domain.ErrEmptySummary
	}
	summary := strings.TrimSpace(out.Choices[0].Message.Content)
	if summary == "" {
		return "", domain.ErrEmptySummary
	}
	c.logger.Debug("summary generated",
		zap.String("title", title),
		zap.Int("total_tokens", out.Usage.TotalTokens))
	return summary, nil
}

// Prompt builds the user message: tags stripped, content cut to MaxInputChars runes.
func (c *Client) Prompt(title, text string) string {
	clean := strings.TrimSpace(html.UnescapeString(c.strip.Sanitize(text)))
	if n := c.cfg.MaxInputChars; n > 0 {
		if r := []rune(clean); len(r) > n {
			clean = string(r[:n])
		}
	}
	return fmt.Sprintf(promptTemplate, c.cfg.Language, title, clean)
}
