package feedpage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedpage.yaml", `
sources:
  - name: Example
    feedUrl: https://example.com/feed.xml
minFetchInterval: 3600
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.minIntervalDur)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 5*time.Second, cfg.perCallDur)
	assert.Equal(t, 10*time.Second, cfg.totalDur)
	assert.NotEmpty(t, cfg.HTTP.UserAgent)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "Example", cfg.Sources[0].Name)
}

func TestLoadConfigRejectsNamelessSource(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedpage.yaml", `
sources:
  - feedUrl: https://example.com/feed.xml
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources[0].name")
}

func TestLoadConfigRejectsMissingURL(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedpage.yaml", `
sources:
  - name: Example
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources[0].feedUrl")
}

func TestLoadConfigRejectsNegativeInterval(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedpage.yaml", `
sources:
  - name: Example
    feedUrl: https://example.com/feed.xml
minFetchInterval: -5
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedpage.yaml", `
sources:
  - name: Example
    feedUrl: https://example.com/feed.xml
http:
  timeoutPerCall: sometime
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeoutPerCall")
}

func TestLoadConfigRejectsEmptySourceSet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "feedpage.yaml", `
minFetchInterval: 60
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources")
}

func TestLoadConfigMergesOPML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "subs.opml", `<?xml version="1.0"?>
<opml version="2.0">
  <body>
    <outline text="Tech">
      <outline title="Example" xmlUrl="https://example.com/other.xml"/>
      <outline text="Imported" xmlUrl="https://imported.example/feed.xml"/>
    </outline>
  </body>
</opml>`)
	path := writeFile(t, dir, "feedpage.yaml", `
sources:
  - name: Example
    feedUrl: https://example.com/feed.xml
opmlImports:
  - subs.opml
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Sources, 2)
	// The explicit definition wins over the imported duplicate.
	assert.Equal(t, "https://example.com/feed.xml", cfg.Sources[0].FeedURL)
	assert.Equal(t, Source{Name: "Imported", FeedURL: "https://imported.example/feed.xml"}, cfg.Sources[1])
}

func TestLoadOPMLNameFallbacks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "subs.opml", `<?xml version="1.0"?>
<opml version="2.0">
  <body>
    <outline title="Titled" xmlUrl="https://a.example/feed"/>
    <outline text="Texted" xmlUrl="https://b.example/feed"/>
    <outline xmlUrl="https://c.example/feed"/>
  </body>
</opml>`)

	sources, err := loadOPML(path)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, "Titled", sources[0].Name)
	assert.Equal(t, "Texted", sources[1].Name)
	assert.Equal(t, "https://c.example/feed", sources[2].Name)
}

func TestLoadOPMLRejectsGarbage(t *testing.T) {
	path := writeFile(t, t.TempDir(), "subs.opml", "{ definitely not xml")

	_, err := loadOPML(path)
	assert.Error(t, err)
}
