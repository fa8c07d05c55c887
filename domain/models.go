package domain

import "time"

// Source is one feed the registry polls. URL is the unique key.
type Source struct {
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Category string `yaml:"category" json:"category"`
}

type Enclosure struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Entry is one feed item. Link is the dedup key; entries without it are never persisted.
type Entry struct {
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	PubDate        string     `json:"pubDate"`
	IsoDate        string     `json:"isoDate"`
	Content        string     `json:"content"`
	ContentSnippet string     `json:"contentSnippet"`
	Creator        string     `json:"creator"`
	Enclosure      *Enclosure `json:"enclosure,omitempty"`
	Summary        string     `json:"summary,omitempty"`
}

// SummaryText is the text handed to the summarizer: content, then snippet.
func (e Entry) SummaryText() string {
	if e.Content != "" {
		return e.Content
	}
	return e.ContentSnippet
}

// Snapshot is the persisted, size-bounded state of one source.
type Snapshot struct {
	SourceURL   string    `json:"sourceUrl"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Items       []Entry   `json:"items"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// FetchedFeed is what a FeedFetcher returns. Items never carry summaries.
type FetchedFeed struct {
	Title       string
	Description string
	Link        string
	Items       []Entry
}

// RunReport describes one finished batch.
type RunReport struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Results    map[string]bool `json:"results"`
}

// Failed returns the addresses that did not update.
func (r RunReport) Failed() []string {
	var out []string
	for addr, ok := range r.Results {
		if !ok {
			out = append(out, addr)
		}
	}
	return out
}
