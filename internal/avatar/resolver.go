// Package avatar resolves account identifiers to avatar media URLs against a
// PostgREST-style filtered-read endpoint.
//
// Lookups are issued in bounded batches and the result is always total: every
// distinct trimmed identifier in the input maps to either a URL or nil,
// regardless of how many remote calls fail along the way. Callers never see
// an error from Resolve; a chunk that could not be read simply degrades its
// identifiers to nil.
package avatar

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// chunkSize is the maximum number of identifiers per remote call. The bound
// keeps the filter clause comfortably under the endpoint's practical URL
// length limits.
const chunkSize = 50

// Config holds the remote endpoint settings for a Resolver. Zero-value
// column and resource names fall back to the profile-table defaults.
type Config struct {
	// BaseURL is the root of the filtered-read API, e.g.
	// "https://example.supabase.co/rest/v1".
	BaseURL string

	// ResourcePath is the table or view to read. Defaults to "profile".
	ResourcePath string

	// APIKey is sent both as the apikey header and as a bearer token.
	APIKey string

	// IDColumn is the remote identifier column. Defaults to "account_id".
	IDColumn string

	// ValueColumn is the remote attribute column. Defaults to
	// "avatar_media_url".
	ValueColumn string
}

// Resolver performs batched avatar lookups. Construct with New.
type Resolver struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.http = hc
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.http.Timeout = d
	}
}

// WithLogger sets the logger used for chunk-level failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// New creates a Resolver for the given endpoint configuration.
func New(cfg Config, opts ...Option) *Resolver {
	if cfg.ResourcePath == "" {
		cfg.ResourcePath = "profile"
	}
	if cfg.IDColumn == "" {
		cfg.IDColumn = "account_id"
	}
	if cfg.ValueColumn == "" {
		cfg.ValueColumn = "avatar_media_url"
	}
	r := &Resolver{
		cfg: cfg,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps every distinct trimmed identifier in ids to an avatar URL, or
// to nil when the remote service has no value for it or the lookup failed.
// The returned map always covers the full normalized input set; Resolve
// never returns an error.
//
// Chunks are fetched strictly in sequence. A canceled context fails the
// remaining chunks, whose identifiers then fall back to nil like any other
// failed chunk.
func (r *Resolver) Resolve(ctx context.Context, ids []string) map[string]*string {
	want := normalize(ids)
	result := make(map[string]*string, len(want))
	if len(want) == 0 {
		return result
	}

	for start := 0; start < len(want); start += chunkSize {
		batch := want[start:min(start+chunkSize, len(want))]
		outcome := r.fetchChunk(ctx, batch)
		if !outcome.ok {
			// Unknown, not resolved-absent: leave the batch for the
			// terminal pass below.
			continue
		}

		// First non-nil row wins when the remote returns duplicate rows
		// for one identifier.
		found := make(map[string]*string, len(outcome.records))
		for _, rec := range outcome.records {
			if prev, dup := found[rec.id]; dup && prev != nil {
				continue
			}
			found[rec.id] = rec.url
		}

		// A successful chunk settles every identifier it asked about:
		// either a value came back, or the identifier is resolved-absent.
		// An already-settled non-nil value is never downgraded.
		for _, id := range batch {
			if prev, settled := result[id]; settled && prev != nil {
				continue
			}
			result[id] = found[id]
		}
	}

	// Terminal fallback for identifiers whose chunk failed.
	for _, id := range want {
		if _, settled := result[id]; !settled {
			result[id] = nil
		}
	}
	return result
}
