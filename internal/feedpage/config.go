package feedpage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source is one configured remote feed: a logical name (cache key and
// display label) and the URL to fetch.
type Source struct {
	Name    string `yaml:"name"`
	FeedURL string `yaml:"feedUrl"`
}

type Config struct {
	Sources []Source `yaml:"sources"`

	// OPML subscription lists whose outlines are merged into Sources.
	// Relative paths resolve against the config file's directory.
	OPMLImports []string `yaml:"opmlImports"`

	// Minimum interval between fetches of the same source, in seconds.
	// 0 means every run may fetch.
	MinFetchInterval int `yaml:"minFetchInterval"`

	// Entry caps for the rendered page. 0 means unlimited.
	MaxEntriesPerSource int `yaml:"maxEntriesPerSource"`
	MaxTotalEntries     int `yaml:"maxTotalEntries"`

	FetchConcurrency int `yaml:"fetchConcurrency"`

	HTTP struct {
		TimeoutPerCall string `yaml:"timeoutPerCall"`
		TimeoutTotal   string `yaml:"timeoutTotal"`
		UserAgent      string `yaml:"userAgent"`
	} `yaml:"http"`

	// compiled
	minIntervalDur time.Duration
	perCallDur     time.Duration
	totalDur       time.Duration
}

func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.MinFetchInterval < 0 {
		return Config{}, fmt.Errorf("minFetchInterval must not be negative")
	}
	cfg.minIntervalDur = time.Duration(cfg.MinFetchInterval) * time.Second

	if cfg.FetchConcurrency == 0 {
		cfg.FetchConcurrency = 8
	}
	if cfg.FetchConcurrency < 1 {
		return Config{}, fmt.Errorf("fetchConcurrency must be positive")
	}

	if cfg.HTTP.TimeoutPerCall == "" {
		cfg.HTTP.TimeoutPerCall = "5s"
	}
	if cfg.HTTP.TimeoutTotal == "" {
		cfg.HTTP.TimeoutTotal = "10s"
	}
	if cfg.perCallDur, err = time.ParseDuration(cfg.HTTP.TimeoutPerCall); err != nil {
		return Config{}, fmt.Errorf("http.timeoutPerCall: %w", err)
	}
	if cfg.totalDur, err = time.ParseDuration(cfg.HTTP.TimeoutTotal); err != nil {
		return Config{}, fmt.Errorf("http.timeoutTotal: %w", err)
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = "feedpage/1.0 RSS feed reader"
	}

	for i, src := range cfg.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return Config{}, fmt.Errorf("sources[%d].name is required", i)
		}
		if strings.TrimSpace(src.FeedURL) == "" {
			return Config{}, fmt.Errorf("sources[%d].feedUrl is required", i)
		}
	}

	for _, imp := range cfg.OPMLImports {
		if !filepath.IsAbs(imp) {
			imp = filepath.Join(filepath.Dir(path), imp)
		}
		imported, err := loadOPML(imp)
		if err != nil {
			return Config{}, fmt.Errorf("opml import %s: %w", imp, err)
		}
		cfg.Sources = mergeSources(cfg.Sources, imported)
	}

	if len(cfg.Sources) == 0 {
		return Config{}, fmt.Errorf("no sources configured")
	}

	return cfg, nil
}

// mergeSources appends extra sources, skipping any whose name is already
// taken. First definition wins.
func mergeSources(base, extra []Source) []Source {
	seen := make(map[string]struct{}, len(base))
	for _, src := range base {
		seen[src.Name] = struct{}{}
	}
	for _, src := range extra {
		if _, ok := seen[src.Name]; ok {
			continue
		}
		seen[src.Name] = struct{}{}
		base = append(base, src)
	}
	return base
}
