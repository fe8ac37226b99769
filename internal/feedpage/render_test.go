package feedpage

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day int) *time.Time {
	t := time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestSelectEntriesNewestFirstWithCap(t *testing.T) {
	feed := &gofeed.Feed{
		Title: "Example Feed",
		Items: []*gofeed.Item{
			{Title: "old", Link: "https://e/1", PublishedParsed: ts(1)},
			{Title: "newest", Link: "https://e/3", PublishedParsed: ts(20)},
			{Title: "middle", Link: "https://e/2", PublishedParsed: ts(10)},
		},
	}

	got := selectEntries("example", feed, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "newest", got[0].Title)
	assert.Equal(t, "middle", got[1].Title)
	assert.Equal(t, "Example Feed", got[0].Site)
}

func TestSelectEntriesFallsBackToUpdatedAndSourceName(t *testing.T) {
	feed := &gofeed.Feed{
		Items: []*gofeed.Item{
			{Title: "updated only", Link: "https://e/1", UpdatedParsed: ts(5)},
		},
	}

	got := selectEntries("my source", feed, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "my source", got[0].Site)
	assert.True(t, got[0].Published.Equal(*ts(5)))
}

func TestSelectEntriesSkipsIncompleteItems(t *testing.T) {
	feed := &gofeed.Feed{
		Title: "Example",
		Items: []*gofeed.Item{
			{Title: "no date", Link: "https://e/1"},
			{Title: "", Link: "https://e/2", PublishedParsed: ts(2)},
			{Title: "no link", PublishedParsed: ts(3)},
			{Title: "complete", Link: "https://e/4", PublishedParsed: ts(4)},
		},
	}

	got := selectEntries("example", feed, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "complete", got[0].Title)
}

func TestSelectArticlesGlobalOrderAndCap(t *testing.T) {
	perFeed := [][]Article{
		{
			{Site: "a", Title: "a1", Published: *ts(10)},
			{Site: "a", Title: "a2", Published: *ts(2)},
		},
		{
			{Site: "b", Title: "b1", Published: *ts(15)},
			{Site: "b", Title: "b2", Published: *ts(5)},
		},
	}

	got := selectArticles(perFeed, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "b1", got[0].Title)
	assert.Equal(t, "a1", got[1].Title)
	assert.Equal(t, "b2", got[2].Title)
}

func TestRenderPageDefaultTemplate(t *testing.T) {
	articles := []Article{
		{
			Site:      "Example",
			Title:     "Ampersands & <angles>",
			Link:      "https://example.com/post",
			Published: *ts(20),
		},
	}

	var out strings.Builder
	require.NoError(t, RenderPage(&out, DefaultTemplate, articles))

	html := out.String()
	assert.Contains(t, html, `href="https://example.com/post"`)
	assert.Contains(t, html, "2026-08-20")
	assert.Contains(t, html, "Ampersands &amp; &lt;angles&gt;")
	assert.Contains(t, html, "<em>Example</em>")
}

func TestRenderPageBadTemplate(t *testing.T) {
	var out strings.Builder
	err := RenderPage(&out, "{{range .Missing", nil)
	assert.Error(t, err)
}
