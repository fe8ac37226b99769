package feedpage

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultTemplate is the built-in page template. Callers may substitute
// their own; it receives {"Articles": []Article}.
//
//go:embed page.tmpl
var DefaultTemplate string

// Article is one entry on the rendered page.
type Article struct {
	Site      string
	Published time.Time
	Title     string
	Link      string
}

// selectEntries picks up to max of the newest entries from one parsed
// feed. Entries missing a publish time, title or link are skipped with a
// log line rather than sinking the whole feed.
func selectEntries(sourceName string, feed *gofeed.Feed, max int) []Article {
	siteTitle := strings.TrimSpace(feed.Title)
	if siteTitle == "" {
		siteTitle = sourceName
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil || strings.TrimSpace(item.Title) == "" || item.Link == "" {
			log.Printf("skipping incomplete entry in feed from %s", sourceName)
			continue
		}
		articles = append(articles, Article{
			Site:      siteTitle,
			Published: *published,
			Title:     item.Title,
			Link:      item.Link,
		})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
	if max > 0 && len(articles) > max {
		articles = articles[:max]
	}
	return articles
}

// selectArticles merges per-feed selections newest first, capped at
// maxTotal. 0 means unlimited.
func selectArticles(perFeed [][]Article, maxTotal int) []Article {
	var all []Article
	for _, articles := range perFeed {
		all = append(all, articles...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Published.After(all[j].Published)
	})
	if maxTotal > 0 && len(all) > maxTotal {
		all = all[:maxTotal]
	}
	return all
}

// RenderPage writes the HTML page for articles to w using the given
// template text.
func RenderPage(w io.Writer, tmplText string, articles []Article) error {
	t, err := template.New("page").Parse(tmplText)
	if err != nil {
		return fmt.Errorf("parse page template: %w", err)
	}
	if err := t.Execute(w, map[string]any{"Articles": articles}); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
