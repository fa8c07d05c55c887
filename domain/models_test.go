package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntry_SummaryText(t *testing.T) {
	assert.Equal(t, "body", Entry{Content: "body", ContentSnippet: "snippet"}.SummaryText())
	assert.Equal(t, "snippet", Entry{ContentSnippet: "snippet"}.SummaryText())
	assert.Empty(t, Entry{}.SummaryText())
}

func TestRunReport_Failed(t *testing.T) {
	r := RunReport{Results: map[string]bool{"a": true, "b": false, "c": false}}

	failed := r.Failed()
	sort.Strings(failed)
	assert.Equal(t, []string{"b", "c"}, failed)
	assert.Empty(t, RunReport{}.Failed())
}
