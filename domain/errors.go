package domain

import "errors"

var (
	// ErrFetch marks a feed that could not be fetched or parsed.
	ErrFetch = errors.New("feed fetch failed")

	// ErrLoad marks a stored snapshot that exists but could not be read.
	ErrLoad = errors.New("snapshot load failed")

	// ErrPersist marks a snapshot that could not be written.
	ErrPersist = errors.New("snapshot persist failed")

	// ErrSummarize marks a failed summarization call.
	ErrSummarize = errors.New("summarization failed")

	// ErrEmptySummary is returned when the model answered with no text.
	ErrEmptySummary = errors.New("empty summary")

	// ErrUnknownSource is returned for an address that is not in the registry.
	ErrUnknownSource = errors.New("unknown source")
)
