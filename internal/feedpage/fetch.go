package feedpage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Transport dispatches a single HTTP exchange. *http.Client satisfies it;
// tests substitute fakes.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome classifies a completed Run. None of these are errors; each has
// its own effect on the record and its own log line. Only meaningful when
// Run returned a nil error.
type Outcome int

const (
	OutcomeSkippedFresh   Outcome = iota // fetched too recently, no network call
	OutcomeSkippedBackoff                // inside a retry-after window, no network call
	OutcomeFetched                       // 200, headers and body replaced
	OutcomeNotModified                   // 304, only the fetch time moved
	OutcomeRateLimited                   // 429 handled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkippedFresh:
		return "skipped-fresh"
	case OutcomeSkippedBackoff:
		return "skipped-backoff"
	case OutcomeFetched:
		return "fetched"
	case OutcomeNotModified:
		return "not-modified"
	case OutcomeRateLimited:
		return "rate-limited"
	}
	return "unknown"
}

// Fetcher runs the conditional fetch protocol against one record at a
// time. It does no locking of its own; the caller must hold the record's
// entry for the duration of Run.
type Fetcher struct {
	transport        Transport
	minFetchInterval time.Duration
	userAgent        string
}

func NewFetcher(transport Transport, minFetchInterval time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		transport:        transport,
		minFetchInterval: minFetchInterval,
		userAgent:        userAgent,
	}
}

// Run performs at most one conditional HTTP exchange for src and mutates
// rec accordingly. Skips and handled rate limits report success; only
// transport failures, header decode failures and unexpected statuses come
// back as errors. Nothing is retried here.
func (f *Fetcher) Run(ctx context.Context, rec *Record, src Source) (Outcome, error) {
	now := time.Now()
	if rec.LastFetchTime != nil && rec.LastFetchTime.Add(f.minFetchInterval).After(now) {
		return OutcomeSkippedFresh, nil
	}
	if rec.LastRetryAfter != nil && !rec.LastRetryAfter.Before(now) {
		return OutcomeSkippedBackoff, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FeedURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if etag, ok := rec.LastHeaders["etag"]; ok {
		req.Header.Set("If-None-Match", etag)
	} else if lastModified, ok := rec.LastHeaders["last-modified"]; ok {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.transport.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", src.FeedURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		headers := make(map[string]string, len(resp.Header))
		for k, vs := range resp.Header {
			v := strings.Join(vs, ", ")
			if !utf8.ValidString(k) || !utf8.ValidString(v) {
				return 0, fmt.Errorf("invalid header %q in response", k)
			}
			headers[strings.ToLower(k)] = v
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("read body: %w", err)
		}
		text := string(body)
		rec.LastHeaders = headers
		rec.LastBody = &text
		rec.LastFetchTime = &now
		rec.LastRetryAfter = nil
		return OutcomeFetched, nil

	case resp.StatusCode == http.StatusNotModified:
		rec.LastFetchTime = &now
		return OutcomeNotModified, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		// A missing or malformed retry hint is noted, never fatal.
		raw := resp.Header.Get("Retry-After")
		if raw == "" {
			log.Printf("429 without retry-after header from %s", src.Name)
			return OutcomeRateLimited, nil
		}
		seconds, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			log.Printf("malformed retry-after %q from %s", raw, src.Name)
			return OutcomeRateLimited, nil
		}
		until := now.Add(time.Duration(seconds) * time.Second)
		rec.LastRetryAfter = &until
		return OutcomeRateLimited, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 600:
		return 0, fmt.Errorf("error status %s", resp.Status)

	default:
		// Informational, redirect or odd 2xx the transport didn't resolve.
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}
}
