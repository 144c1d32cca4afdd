package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
	"github.com/skilltrack-hub/skill-progress-hub/pkg/retry"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := DefaultClientConfig(serverURL)
	cfg.Timeout = 2 * time.Second
	cfg.RetryOptions = []retry.Option{
		retry.WithMaxAttempts(2),
		retry.WithInitialDelay(time.Millisecond),
	}
	cfg.RateLimiterConfig = RateLimiterConfig{
		RequestsPerSecond: 100,
		BurstSize:         100,
		MinInterval:       0,
		WaitTimeout:       time.Second,
	}
	return NewClient(cfg)
}

func TestFetchCandidates_PrimaryEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/resources", r.URL.Path)
		assert.Equal(t, "programming", r.URL.Query().Get("category"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "res-1", "url": "https://example.com/go", "title": "Go Course",
				 "category": "Programming", "level": "intermediate",
				 "prerequisites": ["go-basics"]},
				{"id": "res-2", "title": "Piano 101", "category": "Music"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	entries, err := client.FetchCandidates(context.Background(), []shared.Category{"Programming"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "https://example.com/go", entries[0].Ref)
	assert.Equal(t, shared.Category("programming"), entries[0].Category)
	assert.Equal(t, []shared.SkillID{"go-basics"}, entries[0].PrerequisiteSkillIDs)
	assert.Equal(t, 0, entries[0].Position)

	// URL missing: provider ID becomes the ref.
	assert.Equal(t, "res-2", entries[1].Ref)
	assert.Equal(t, 1, entries[1].Position)
}

func TestFetchCandidates_FallbackSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/resources":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/v1/search":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"results": [
					{"link": "https://example.com/found", "title": "Found It",
					 "snippet": "a result", "category_tag": "Design"}
				]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	entries, err := client.FetchCandidates(context.Background(), []shared.Category{"Design"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://example.com/found", entries[0].Ref)
	assert.Equal(t, shared.Category("design"), entries[0].Category)
	assert.Empty(t, entries[0].PrerequisiteSkillIDs, "fallback results are ungated")
}

func TestFetchCandidates_UnavailableMapsToDomainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.config.FallbackEnabled = false

	_, err := client.FetchCandidates(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, shared.IsCatalogUnavailable(err),
		"transport failures must be absorbable as degraded mode")
}

func TestFetchCandidates_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"items": [{"id": "r", "title": "R", "category": "Music"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.config.FallbackEnabled = false

	entries, err := client.FetchCandidates(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestFetchCandidates_MalformedEntriesDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "", "title": "no ref", "category": "Music"},
				{"id": "ok", "title": "fine", "category": "Music"},
				{"id": "no-cat", "title": "missing category", "category": "  "}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	entries, err := client.FetchCandidates(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ok", entries[0].Ref)
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         2,
		MinInterval:       0,
		WaitTimeout:       10 * time.Millisecond,
	})

	assert.True(t, rl.TryAllow())
	assert.True(t, rl.TryAllow())
	assert.False(t, rl.TryAllow(), "bucket exhausted after burst")
}
