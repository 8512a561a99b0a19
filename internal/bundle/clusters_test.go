package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusters_FromOntologyItems(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "kim", map[string]string{
		ontologyItemsFile: `{
			"0": {
				"cluster_id": "c-art",
				"ontology_items": {
					"yearly_summaries": [
						{"period": "2021", "summary": "sketches"},
						{"period": "", "summary": ""},
						{"period": "2022"}
					],
					"entities": [
						{"id": 1, "name": "Museum", "description": "visits", "tweet_references": ["10", 20]},
						{"name": "", "description": ""},
						{"name": "Gallery"}
					],
					"social_relationships": [
						{"username": "friend1", "interaction_type": "replies"}
					]
				}
			},
			"1": {
				"yearly_summaries": [{"period": "2020", "summary": "code"}]
			}
		}`,
		groupResultsFile: `{
			"groups": [
				{"members": [{"id": "c-art", "name": "Art"}, {"id": "1", "name": "Code"}, {"id": "offmap", "name": "Elsewhere"}]}
			]
		}`,
	})

	store := NewStore(root)
	clusters, err := store.Clusters(t.Context(), "kim")

	require.NoError(t, err)
	require.Len(t, clusters, 2)

	// Sorted by name: "Art" before "Code".
	art := clusters[0]
	assert.Equal(t, "c-art", art.ID)
	assert.Equal(t, "Art", art.Name)
	require.Len(t, art.YearlySummaries, 2)
	assert.Equal(t, YearlySummary{Period: "2021", Summary: "sketches"}, art.YearlySummaries[0])
	assert.Equal(t, YearlySummary{Period: "2022"}, art.YearlySummaries[1])

	require.Len(t, art.Ontology.Entities, 2)
	assert.Equal(t, "Museum", art.Ontology.Entities[0].Label)
	assert.Equal(t, []string{"10", "20"}, art.Ontology.Entities[0].TweetReferences,
		"numeric references coerce to strings")
	assert.Equal(t, "Gallery", art.Ontology.Entities[1].Label)

	require.Len(t, art.Ontology.Relationships, 1)
	assert.Equal(t, "friend1", art.Ontology.Relationships[0].Label)
	assert.Equal(t, "replies", art.Ontology.Relationships[0].Description)

	require.Len(t, art.Related, 1, "related clusters outside the bundle are dropped")
	assert.Equal(t, RelatedCluster{ID: "1", Name: "Code"}, art.Related[0])

	code := clusters[1]
	assert.Equal(t, "1", code.ID)
	assert.Equal(t, "Code", code.Name, "names come from the group results")
	require.Len(t, code.YearlySummaries, 1)
	assert.Equal(t, "code", code.YearlySummaries[0].Summary)
	require.Len(t, code.Related, 1)
	assert.Equal(t, "c-art", code.Related[0].ID)
}

func TestClusters_OntologyBucketCap(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "max", map[string]string{
		ontologyItemsFile: `{
			"42": {
				"goals": [
					{"goal": "g1"}, {"goal": "g2"}, {"goal": "g3"},
					{"goal": "g4"}, {"goal": "g5"}, {"goal": "g6"}
				]
			}
		}`,
	})

	store := NewStore(root)
	clusters, err := store.Clusters(t.Context(), "max")

	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "42", clusters[0].ID)
	assert.Equal(t, "42", clusters[0].Name, "unlabeled clusters fall back to their ID")
	require.Len(t, clusters[0].Ontology.Goals, maxOntologyEntries)
	assert.Equal(t, "g4", clusters[0].Ontology.Goals[3].Label)
}

func TestClusters_LabelFallback(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "legacy", map[string]string{
		clusterLabelsFile: `{
			"7": {
				"yearly_summaries": [{"period": "2019", "summary": "early days"}],
				"key_concepts_and_ideas": [{"concept": "bootstrapping", "description": "how it started"}]
			}
		}`,
	})

	store := NewStore(root)
	clusters, err := store.Clusters(t.Context(), "legacy")

	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "7", clusters[0].ID)
	require.Len(t, clusters[0].YearlySummaries, 1)
	assert.Equal(t, "early days", clusters[0].YearlySummaries[0].Summary)
	require.Len(t, clusters[0].Ontology.Concepts, 1)
	assert.Equal(t, "bootstrapping", clusters[0].Ontology.Concepts[0].Label)
}

func TestClusters_OntologyArtifactWinsOverLabels(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "both", map[string]string{
		ontologyItemsFile: `{
			"1": {"yearly_summaries": [{"period": "2024", "summary": "current"}]}
		}`,
		clusterLabelsFile: `{
			"1": {"yearly_summaries": [{"period": "2018", "summary": "stale"}]},
			"2": {"yearly_summaries": [{"period": "2018", "summary": "also stale"}]}
		}`,
	})

	store := NewStore(root)
	clusters, err := store.Clusters(t.Context(), "both")

	require.NoError(t, err)
	require.Len(t, clusters, 1, "labels are only consulted when the ontology artifact has no summaries")
	assert.Equal(t, "current", clusters[0].YearlySummaries[0].Summary)
}

func TestClusters_MissingArtifacts(t *testing.T) {
	root := t.TempDir()
	writeBundle(t, root, "bare", nil)

	store := NewStore(root)
	clusters, err := store.Clusters(t.Context(), "bare")

	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestClusters_MissingUser(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Clusters(t.Context(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
