package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviary-app/aviary/internal/avatar"
	"github.com/aviary-app/aviary/internal/bundle"
)

// newTestServer builds a dashboard server over a temp bundle root and a fake
// filtered-read remote, returning the API base URL.
func newTestServer(t *testing.T, avatars map[string]string, opts ...ServerOption) (string, string) {
	t.Helper()

	root := t.TempDir()

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := make([]map[string]any, 0, len(avatars))
		for id, url := range avatars {
			rows = append(rows, map[string]any{"account_id": id, "avatar_media_url": url})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}))
	t.Cleanup(remote.Close)

	srv := NewServer(
		bundle.NewStore(root),
		avatar.New(avatar.Config{BaseURL: remote.URL, APIKey: "k"}),
		opts...,
	)
	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)

	return api.URL, root
}

// seedUser creates a bundle directory with the given artifacts.
func seedUser(t *testing.T, root, user string, artifacts map[string]string) {
	t.Helper()
	dir := filepath.Join(root, user)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range artifacts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	api, _ := newTestServer(t, nil)

	var body map[string]string
	resp := getJSON(t, api+"/healthz", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestListUsers(t *testing.T) {
	api, root := newTestServer(t, nil)
	seedUser(t, root, "beta", nil)
	seedUser(t, root, "alpha", nil)

	var body map[string][]string
	resp := getJSON(t, api+"/api/users", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"alpha", "beta"}, body["users"])
}

func TestGetSummary(t *testing.T) {
	api, root := newTestServer(t, nil)
	seedUser(t, root, "kim", map[string]string{
		"group_results.json":     `{"overall_summary": "busy  year"}`,
		"clustering_params.json": `{"n_clusters": 4}`,
	})

	var sum bundle.Summary
	resp := getJSON(t, api+"/api/users/kim/summary", &sum)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "busy year", sum.Description)
	assert.Equal(t, 4, sum.Clusters)
}

func TestGetSummary_UnknownUser(t *testing.T) {
	api, _ := newTestServer(t, nil)

	var body map[string]string
	resp := getJSON(t, api+"/api/users/ghost/summary", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "ghost")
}

func TestGetClusters(t *testing.T) {
	api, root := newTestServer(t, nil)
	seedUser(t, root, "kim", map[string]string{
		"cluster_ontology_items.json": `{"5": {"yearly_summaries": [{"period": "2023", "summary": "hiking"}]}}`,
	})

	var body map[string][]bundle.Cluster
	resp := getJSON(t, api+"/api/users/kim/clusters", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["clusters"], 1)
	assert.Equal(t, "5", body["clusters"][0].ID)
}

func TestGetClusters_EmptyBundleIsEmptyList(t *testing.T) {
	api, root := newTestServer(t, nil)
	seedUser(t, root, "bare", nil)

	resp, err := http.Get(api + "/api/users/bare/clusters")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw["clusters"]), "empty cluster list must marshal as [], not null")
}

func TestResolveAvatars(t *testing.T) {
	api, _ := newTestServer(t, map[string]string{
		"111": "https://cdn.example/111.jpg",
	})

	reqBody := bytes.NewBufferString(`{"ids": ["111", "222", " 111 "]}`)
	resp, err := http.Post(api+"/api/avatars", "application/json", reqBody)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Avatars map[string]*string `json:"avatars"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Avatars, 2)
	require.NotNil(t, body.Avatars["111"])
	assert.Equal(t, "https://cdn.example/111.jpg", *body.Avatars["111"])
	v, present := body.Avatars["222"]
	require.True(t, present)
	assert.Nil(t, v, "unresolved identifiers come back as explicit nulls")
}

func TestResolveAvatars_BadBody(t *testing.T) {
	api, _ := newTestServer(t, nil)

	resp, err := http.Post(api+"/api/avatars", "application/json", bytes.NewBufferString("{nope"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResolveAvatars_TooManyIDs(t *testing.T) {
	api, _ := newTestServer(t, nil)

	ids := make([]string, maxAvatarRequestIDs+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}
	payload, err := json.Marshal(map[string][]string{"ids": ids})
	require.NoError(t, err)

	resp, err := http.Post(api+"/api/avatars", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// denyAll rejects every token.
type denyAll struct{}

func (denyAll) Validate(context.Context, string) error {
	return errors.New("no session")
}

func TestSessionValidator_Denied(t *testing.T) {
	api, _ := newTestServer(t, nil, WithSessionValidator(denyAll{}))

	resp, err := http.Get(api + "/api/users")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The health check stays open.
	resp, err = http.Get(api + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// tokenValidator accepts a single token.
type tokenValidator struct{ want string }

func (v tokenValidator) Validate(_ context.Context, token string) error {
	if token != v.want {
		return errors.New("bad token")
	}
	return nil
}

func TestSessionValidator_BearerToken(t *testing.T) {
	api, _ := newTestServer(t, nil, WithSessionValidator(tokenValidator{want: "s3cret"}))

	req, err := http.NewRequest(http.MethodGet, api+"/api/users", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
