package feedpage

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

// Service ties the pieces together for one driver: a transport with
// bounded timeouts, the cache manager over a store rooted at cacheDir,
// and the downstream feed parser.
type Service struct {
	cfg     Config
	fetcher *Fetcher
	caches  *Manager
	parser  *gofeed.Parser
	failLog *rateLimitedLogger
}

func NewService(cfg Config, cacheDir string) *Service {
	client := &http.Client{
		Timeout: cfg.totalDur,
		Transport: &http.Transport{
			ResponseHeaderTimeout: cfg.perCallDur,
		},
	}
	return &Service{
		cfg:     cfg,
		fetcher: NewFetcher(client, cfg.minIntervalDur, cfg.HTTP.UserAgent),
		caches:  NewManager(NewStore(cacheDir)),
		parser:  gofeed.NewParser(),
		failLog: newRateLimitedLogger(10 * time.Minute),
	}
}

// RunTick fetches every configured source once, concurrently and
// bounded, then flushes all records. A failing source is logged and
// never cancels its siblings; the flush starts only after every worker
// has released its record.
func (s *Service) RunTick(ctx context.Context) {
	stats := newStatsCollector()
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.FetchConcurrency)
	for _, src := range s.cfg.Sources {
		g.Go(func() error {
			s.fetchOne(ctx, src, stats)
			return nil
		})
	}
	_ = g.Wait()

	if err := s.caches.SaveAll(); err != nil {
		log.Printf("saving caches: %v", err)
	}
	log.Printf("tick done: %s", stats.Summary())
}

func (s *Service) fetchOne(ctx context.Context, src Source, stats *statsCollector) {
	h, err := s.caches.Acquire(src.Name)
	if err != nil {
		stats.ObserveFailure()
		s.failLog.Printf(src.Name, "cache for %s is unusable: %v", src.Name, err)
		return
	}
	defer h.Release()

	rec := h.Record()
	outcome, err := s.fetcher.Run(ctx, rec, src)
	if err != nil {
		stats.ObserveFailure()
		s.failLog.Printf(src.Name, "fetching %s: %v", src.Name, err)
		return
	}

	switch outcome {
	case OutcomeFetched:
		log.Printf("new content from %s", src.Name)
	case OutcomeNotModified:
		log.Printf("no new content from %s", src.Name)
	case OutcomeSkippedFresh:
		log.Printf("%s was fetched recently, not fetching again", src.Name)
	case OutcomeSkippedBackoff:
		log.Printf("%s asked us to back off, not fetching until %s",
			src.Name, rec.LastRetryAfter.Format(time.RFC3339))
	case OutcomeRateLimited:
		log.Printf("rate limited by %s", src.Name)
	}

	bodyLen := 0
	if outcome == OutcomeFetched && rec.LastBody != nil {
		bodyLen = len(*rec.LastBody)
	}
	stats.Observe(outcome, bodyLen)
}

// WritePage parses every cached feed, selects the newest entries per the
// configured caps and renders the HTML page to path. Feeds that fail to
// parse are logged and left out.
func (s *Service) WritePage(path, tmplText string) error {
	var perFeed [][]Article
	for name, res := range s.caches.Feeds(s.parser.Parse) {
		if res.Err != nil {
			log.Printf("reading feed from %s: %v", name, res.Err)
			continue
		}
		perFeed = append(perFeed, selectEntries(name, res.Feed, s.cfg.MaxEntriesPerSource))
	}
	articles := selectArticles(perFeed, s.cfg.MaxTotalEntries)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	if err := RenderPage(f, tmplText, articles); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}
