package domain

import "context"

// SnapshotStore persists one snapshot per source address.
// Load reports false with a nil error for a missing or corrupt snapshot. An error means
// the backend could not be read and the stored state is unknown.
type SnapshotStore interface {
	Load(ctx context.Context, address string) (*Snapshot, bool, error)
	Save(ctx context.Context, address string, snap *Snapshot) error
}

// FeedFetcher fetches and normalizes a feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, address string) (*FetchedFeed, error)
}

// Summarizer turns an entry's title and text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}
