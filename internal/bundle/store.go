// Package bundle reads precomputed per-user analysis bundles from a data
// root directory, one subdirectory per user. Artifacts inside a bundle are
// best-effort: a missing or unparseable file degrades the fields derived
// from it to their zero values instead of failing the whole load.
package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when a user has no bundle directory.
var ErrNotFound = errors.New("bundle: user not found")

// Artifact file names inside a user's bundle directory.
const (
	groupResultsFile     = "group_results.json"
	clusteringParamsFile = "clustering_params.json"
	tweetIDMapsFile      = "local_tweet_id_maps.json"
	ontologyItemsFile    = "cluster_ontology_items.json"
	clusterLabelsFile    = "cluster_labels.json"
)

// summaryLoadLimit bounds concurrent bundle reads in SummaryAll.
const summaryLoadLimit = 8

// Summary aggregates the headline numbers for one user's bundle.
type Summary struct {
	Description string `json:"description"`
	Clusters    int    `json:"clusters"`
	Tweets      int    `json:"tweets"`
}

// Store lists and loads analysis bundles under a single root directory.
type Store struct {
	root string
	log  *zap.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for artifact-level read failures.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore creates a Store rooted at the given directory.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{
		root: root,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users returns the sorted names of all non-hidden bundle directories.
func (s *Store) Users(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		users = append(users, entry.Name())
	}
	// os.ReadDir sorts by name already.
	return users, nil
}

// Summary loads the headline numbers for one user's bundle: the collapsed
// overall summary text, the cluster count, and the number of distinct tweet
// identifiers across the local tweet ID maps.
func (s *Store) Summary(_ context.Context, user string) (*Summary, error) {
	dir, err := s.userDir(user)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}

	var group struct {
		OverallSummary string `json:"overall_summary"`
	}
	if err := s.readArtifact(filepath.Join(dir, groupResultsFile), &group); err == nil {
		sum.Description = strings.Join(strings.Fields(group.OverallSummary), " ")
	}

	var params map[string]any
	if err := s.readArtifact(filepath.Join(dir, clusteringParamsFile), &params); err == nil {
		sum.Clusters = toInt(params["n_clusters"])
	}

	var tweetMaps map[string]map[string]any
	if err := s.readArtifact(filepath.Join(dir, tweetIDMapsFile), &tweetMaps); err == nil {
		distinct := make(map[string]struct{})
		for _, cluster := range tweetMaps {
			for _, raw := range cluster {
				if id := toString(raw); id != "" {
					distinct[id] = struct{}{}
				}
			}
		}
		sum.Tweets = len(distinct)
	}

	return sum, nil
}

// SummaryAll loads summaries for every user, a bounded number of bundles at
// a time. Users whose bundle disappears mid-listing are skipped.
func (s *Store) SummaryAll(ctx context.Context) (map[string]*Summary, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Summary, len(users))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryLoadLimit)
	for _, user := range users {
		g.Go(func() error {
			sum, err := s.Summary(gctx, user)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[user] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// userDir validates a user name and returns its bundle directory. Names that
// could escape the root (separators, leading dot) are treated as not found.
func (s *Store) userDir(user string) (string, error) {
	if user == "" || strings.HasPrefix(user, ".") || strings.ContainsAny(user, `/\`) {
		return "", ErrNotFound
	}
	dir := filepath.Join(s.root, user)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", ErrNotFound
	}
	return dir, nil
}

// readArtifact reads and unmarshals one JSON artifact. Failures are logged
// at debug level; callers treat them as "artifact absent".
func (s *Store) readArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Debug("bundle: unparseable artifact", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}
