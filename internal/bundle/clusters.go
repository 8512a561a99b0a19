package bundle

import (
	"context"
	"path/filepath"
	"sort"
)

// maxOntologyEntries caps each ontology bucket at the few entries the
// dashboard actually renders.
const maxOntologyEntries = 4

// YearlySummary is one period's summary line for a cluster.
type YearlySummary struct {
	Period  string `json:"period"`
	Summary string `json:"summary"`
}

// OntologyEntry is one normalized item from a cluster's ontology. Label
// carries the bucket-specific headline (entity name, belief, goal, username,
// mood, or concept).
type OntologyEntry struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	Description     string   `json:"description"`
	TweetReferences []string `json:"tweet_references,omitempty"`
}

// Ontology groups the normalized ontology buckets for one cluster.
type Ontology struct {
	Entities      []OntologyEntry `json:"entities"`
	Beliefs       []OntologyEntry `json:"beliefs_and_values"`
	Goals         []OntologyEntry `json:"goals"`
	Relationships []OntologyEntry `json:"social_relationships"`
	Moods         []OntologyEntry `json:"moods_and_emotional_tones"`
	Concepts      []OntologyEntry `json:"key_concepts_and_ideas"`
}

// RelatedCluster names another cluster grouped with this one.
type RelatedCluster struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Cluster is the dashboard view of one tweet cluster.
type Cluster struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	YearlySummaries []YearlySummary  `json:"yearly_summaries"`
	Ontology        Ontology         `json:"ontology"`
	Related         []RelatedCluster `json:"related_clusters"`
}

// Clusters loads the normalized cluster view for one user: yearly summaries
// and ontology items from the ontology artifact (falling back to the label
// artifact), plus related-cluster adjacency from the group results. Missing
// artifacts yield an empty list, not an error.
func (s *Store) Clusters(_ context.Context, user string) ([]Cluster, error) {
	dir, err := s.userDir(user)
	if err != nil {
		return nil, err
	}

	yearly := make(map[string][]YearlySummary)
	ontology := make(map[string]Ontology)
	known := make(map[string]struct{})

	var items map[string]any
	if err := s.readArtifact(filepath.Join(dir, ontologyItemsFile), &items); err == nil {
		for key, raw := range items {
			entry, _ := raw.(map[string]any)
			id := clusterKey(key, entry)
			if id == "" {
				continue
			}
			known[id] = struct{}{}
			if bucket := normalizeYearly(ontologyContainer(entry)["yearly_summaries"]); len(bucket) > 0 {
				yearly[id] = bucket
			}
			ontology[id] = extractOntology(entry)
		}
	}

	// The label artifact is the fallback for bundles produced before
	// ontology extraction existed.
	if len(yearly) == 0 {
		var labels map[string]any
		if err := s.readArtifact(filepath.Join(dir, clusterLabelsFile), &labels); err == nil {
			for key, raw := range labels {
				entry, _ := raw.(map[string]any)
				id := clusterKey(key, entry)
				if id == "" {
					continue
				}
				if _, dup := yearly[id]; dup {
					continue
				}
				known[id] = struct{}{}
				if bucket := normalizeYearly(ontologyContainer(entry)["yearly_summaries"]); len(bucket) > 0 {
					yearly[id] = bucket
				}
				if _, dup := ontology[id]; !dup {
					ontology[id] = extractOntology(entry)
				}
			}
		}
	}

	names, related := s.relatedClusters(dir, known)

	clusters := make([]Cluster, 0, len(known))
	for id := range known {
		name := names[id]
		if name == "" {
			name = id
		}
		clusters = append(clusters, Cluster{
			ID:              id,
			Name:            name,
			YearlySummaries: yearly[id],
			Ontology:        ontology[id],
			Related:         related[id],
		})
	}
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Name != clusters[j].Name {
			return clusters[i].Name < clusters[j].Name
		}
		return clusters[i].ID < clusters[j].ID
	})
	return clusters, nil
}

// relatedClusters derives a name map and pairwise adjacency from the group
// results artifact: every member of a group is related to every other
// member. Only clusters in the known set are kept.
func (s *Store) relatedClusters(dir string, known map[string]struct{}) (map[string]string, map[string][]RelatedCluster) {
	names := make(map[string]string)
	adjacency := make(map[string]map[string]string)

	var group struct {
		Groups []struct {
			Members []struct {
				ID   any `json:"id"`
				Name any `json:"name"`
			} `json:"members"`
		} `json:"groups"`
	}
	if err := s.readArtifact(filepath.Join(dir, groupResultsFile), &group); err != nil {
		return names, nil
	}

	type member struct{ id, name string }
	for _, g := range group.Groups {
		members := make([]member, 0, len(g.Members))
		for _, m := range g.Members {
			id := toString(m.ID)
			if id == "" {
				continue
			}
			name := toString(m.Name)
			if name == "" {
				name = id
			}
			names[id] = name
			members = append(members, member{id: id, name: name})
		}
		for _, m := range members {
			for _, other := range members {
				if other.id == m.id {
					continue
				}
				if adjacency[m.id] == nil {
					adjacency[m.id] = make(map[string]string)
				}
				adjacency[m.id][other.id] = other.name
			}
		}
	}

	related := make(map[string][]RelatedCluster, len(adjacency))
	for id, neighbors := range adjacency {
		if _, ok := known[id]; !ok {
			continue
		}
		list := make([]RelatedCluster, 0, len(neighbors))
		for nid, name := range neighbors {
			if _, ok := known[nid]; !ok {
				continue
			}
			list = append(list, RelatedCluster{ID: nid, Name: name})
		}
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Name != list[j].Name {
				return list[i].Name < list[j].Name
			}
			return list[i].ID < list[j].ID
		})
		related[id] = list
	}
	return names, related
}

// clusterKey picks the canonical cluster ID for a map entry: the embedded
// cluster_id when present, the map key otherwise.
func clusterKey(key string, entry map[string]any) string {
	if entry != nil {
		if id := toString(entry["cluster_id"]); id != "" {
			return id
		}
	}
	return key
}

// ontologyContainer returns the dict holding the ontology buckets: the
// nested ontology_items object when present, the entry itself otherwise.
func ontologyContainer(entry map[string]any) map[string]any {
	if entry == nil {
		return map[string]any{}
	}
	if c, ok := entry["ontology_items"].(map[string]any); ok {
		return c
	}
	return entry
}

// normalizeYearly keeps yearly summary entries that carry a period or a
// summary, coercing both to strings.
func normalizeYearly(raw any) []YearlySummary {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]YearlySummary, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		period, _ := entry["period"].(string)
		summary, _ := entry["summary"].(string)
		if period == "" && summary == "" {
			continue
		}
		out = append(out, YearlySummary{Period: period, Summary: summary})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBucket extracts up to maxOntologyEntries entries from one
// ontology bucket. labelKey and descKey name the bucket-specific fields.
func normalizeBucket(raw any, labelKey, descKey string) []OntologyEntry {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]OntologyEntry, 0, maxOntologyEntries)
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label := toString(entry[labelKey])
		desc := toString(entry[descKey])
		if label == "" && desc == "" {
			continue
		}
		out = append(out, OntologyEntry{
			ID:              toString(entry["id"]),
			Label:           label,
			Description:     desc,
			TweetReferences: toStrings(entry["tweet_references"]),
		})
		if len(out) == maxOntologyEntries {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// extractOntology normalizes every ontology bucket of one cluster entry.
func extractOntology(entry map[string]any) Ontology {
	container := ontologyContainer(entry)
	return Ontology{
		Entities:      normalizeBucket(container["entities"], "name", "description"),
		Beliefs:       normalizeBucket(container["beliefs_and_values"], "belief", "description"),
		Goals:         normalizeBucket(container["goals"], "goal", "description"),
		Relationships: normalizeBucket(container["social_relationships"], "username", "interaction_type"),
		Moods:         normalizeBucket(container["moods_and_emotional_tones"], "mood", "description"),
		Concepts:      normalizeBucket(container["key_concepts_and_ideas"], "concept", "description"),
	}
}
