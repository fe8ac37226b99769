package feedpage

import "time"

// Record is the durable fetch state for one source.
type Record struct {
	// LastFetchTime is when the most recent fetch attempt completed,
	// whether it returned new content or 304 Not Modified.
	LastFetchTime *time.Time

	// LastRetryAfter suppresses fetching while it lies in the future. It is
	// set from a 429 retry-after header and never cleared eagerly; once
	// past, the comparison simply stops blocking.
	LastRetryAfter *time.Time

	// LastHeaders holds the lower-cased response headers of the most recent
	// 200 response. A record with nil headers has never completed a
	// successful fetch, so no conditional headers may be sent for it.
	LastHeaders map[string]string

	// LastBody is the body of the most recent 200 response. Updated only
	// together with LastHeaders.
	LastBody *string
}
