package avatar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Local alias names the remote columns are mapped to via the select
// parameter, so response rows have a fixed shape regardless of the
// configured column names.
const (
	aliasID    = "account_id"
	aliasValue = "avatar_media_url"
)

// record is one row returned by the remote API: an identifier and its
// attribute value, nil when the remote field was empty or absent.
type record struct {
	id  string
	url *string
}

// chunkOutcome reports one batch's fate. ok=false means the call itself
// failed (network error or non-2xx status) and the batch is unknown, not
// resolved-absent. A successful call with an unparseable or non-array body
// is ok=true with no records.
type chunkOutcome struct {
	ok      bool
	records []record
}

// fetchChunk issues one filtered read for a batch of normalized identifiers.
// All failure is communicated through the returned outcome; nothing escapes
// as an error.
func (r *Resolver) fetchChunk(ctx context.Context, ids []string) chunkOutcome {
	clause := inClause(ids)
	if clause == "" {
		// Nothing to ask about; trivially successful with zero records.
		return chunkOutcome{ok: true}
	}

	endpoint := strings.TrimRight(r.cfg.BaseURL, "/") + "/" + strings.TrimLeft(r.cfg.ResourcePath, "/")
	u, err := url.Parse(endpoint)
	if err != nil {
		r.log.Warn("avatar: invalid endpoint", zap.String("endpoint", endpoint), zap.Error(err))
		return chunkOutcome{}
	}
	q := u.Query()
	q.Set("select", aliasID+":"+r.cfg.IDColumn+","+aliasValue+":"+r.cfg.ValueColumn)
	q.Set(r.cfg.IDColumn, clause)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		r.log.Warn("avatar: create request", zap.Error(err))
		return chunkOutcome{}
	}
	req.Header.Set("apikey", r.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	// Every call is a fresh read, never served stale.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := r.http.Do(req)
	if err != nil {
		r.log.Warn("avatar: chunk request failed", zap.Int("batch", len(ids)), zap.Error(err))
		return chunkOutcome{}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log.Warn("avatar: read chunk body", zap.Error(err))
		return chunkOutcome{}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.log.Warn("avatar: chunk rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return chunkOutcome{}
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		// The server answered with a 2xx but the body is not a JSON array.
		// That is a well-formed-but-empty answer, not a failed call.
		r.log.Warn("avatar: unparseable chunk body", zap.Error(err))
		return chunkOutcome{ok: true}
	}

	out := chunkOutcome{ok: true, records: make([]record, 0, len(rows))}
	for _, row := range rows {
		id := coerceString(row[aliasID])
		if id == "" {
			continue
		}
		rec := record{id: id}
		// Only a non-empty string counts as a value; anything else is
		// stored as absent.
		if s, isStr := row[aliasValue].(string); isStr {
			if v := strings.TrimSpace(s); v != "" {
				rec.url = &v
			}
		}
		out.records = append(out.records, rec)
	}
	return out
}

// coerceString turns a decoded JSON value into a trimmed string. Identifiers
// may arrive as JSON numbers; anything else collapses to "".
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
