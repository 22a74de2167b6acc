package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *CloudClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewCloudClient("key", "user-token", "alice", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewCloudClient_Validation(t *testing.T) {
	tests := []struct {
		name                  string
		apiKey, token, userID string
	}{
		{"no key", "", "t", "u"},
		{"no token", "k", "", "u"},
		{"no user", "k", "t", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCloudClient(tt.apiKey, tt.token, tt.userID)
			assert.Error(t, err)
		})
	}
}

func TestCloudClient_FlatFeedDefaultsToOwnUser(t *testing.T) {
	c, err := NewCloudClient("k", "t", "alice")
	require.NoError(t, err)

	assert.Equal(t, "timeline:alice", c.FlatFeed("timeline", "").ID())
	assert.Equal(t, "user:bob", c.FlatFeed("user", "bob").ID())
}

func TestCloudFeed_GetActivities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/feed/timeline/alice/", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "jwt", r.Header.Get("Stream-Auth-Type"))

		_, _ = w.Write([]byte(`{"results":[{"id":"2","actor":"SU:bob","verb":"post","object":"o2","message":"new"},{"id":"1","actor":"SU:bob","verb":"post","object":"o1","message":"old"}]}`))
	})

	got, err := c.FlatFeed("timeline", "").GetActivities(t.Context(), 25)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].Message())
	assert.Equal(t, "old", got[1].Message())
}

func TestCloudFeed_AddActivity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/feed/user/alice/", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["message"])

		body["id"] = "act-1"
		_ = json.NewEncoder(w).Encode(body)
	})

	stored, err := c.FlatFeed("user", "").AddActivity(t.Context(), Activity{
		Actor: "SU:alice", Verb: "post", Object: "o", Extra: map[string]any{"message": "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "act-1", stored.ID)
	assert.Equal(t, "hello", stored.Message())
}

func TestCloudFeed_Follow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feed/timeline/alice/following/", r.URL.Path)

		var body followRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user:bob", body.Target)
		w.WriteHeader(http.StatusCreated)
	})

	err := c.FlatFeed("timeline", "").Follow(t.Context(), c.FlatFeed("user", "bob"))
	assert.NoError(t, err)
}

func TestCloudFeed_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":17,"detail":"token is not allowed"}`))
	})

	_, err := c.FlatFeed("timeline", "").GetActivities(t.Context(), 25)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, 17, apiErr.Code)
	assert.Contains(t, err.Error(), "token is not allowed")
}

func TestCloudFeed_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.FlatFeed("timeline", "").GetActivities(t.Context(), 25)
	assert.ErrorContains(t, err, "decode response")
}
